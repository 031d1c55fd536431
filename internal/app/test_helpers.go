package app

import (
	"bytes"
	"os"
	"sync"
	"testing"

	"github.com/capitalone/Stratum-Observability/internal/config"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest creates a new app instance for system testing. A nil loader
// selects DefaultLoader.
func SetupAppTest(t *testing.T, appConfig *Config, loader config.Loader, modules Modules) (*App, *SafeBuffer) {
	t.Helper()

	logBuffer := &SafeBuffer{}
	appConfig.LogLevel = "debug"
	if loader == nil {
		loader = DefaultLoader()
	}
	testApp := NewApp(logBuffer, appConfig, loader, modules)

	t.Cleanup(func() {
		testApp.Close()
		if os.Getenv("STRATUM_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
