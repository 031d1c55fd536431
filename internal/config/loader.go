package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/capitalone/Stratum-Observability/internal/ctxlog"
	"github.com/capitalone/Stratum-Observability/internal/fsutil"
)

// Loader reads configuration from paths into the format-agnostic model.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Dispatch is a Loader that routes each file to the loader registered for
// its extension. Directories are searched recursively.
type Dispatch map[string]Loader

var _ Loader = Dispatch(nil)

// Extensions returns the registered extensions, sorted.
func (d Dispatch) Extensions() []string {
	exts := make([]string, 0, len(d))
	for ext := range d {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Load loads every matching file under paths, in the order found, and merges
// the results.
func (d Dispatch) Load(ctx context.Context, paths ...string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFiles(paths, d.Extensions()...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered configuration files.", "count", len(files))

	out := &Model{}
	for _, file := range files {
		l, ok := d[strings.ToLower(filepath.Ext(file))]
		if !ok {
			return nil, fmt.Errorf("no loader for %s", file)
		}
		m, err := l.Load(ctx, file)
		if err != nil {
			return nil, err
		}
		out.Merge(m)
	}
	logger.Debug("Configuration loaded.", "plugins", len(out.Plugins), "catalogs", len(out.Catalogs))
	return out, nil
}
