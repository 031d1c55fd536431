package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/capitalone/Stratum-Observability/internal/codec"
	"github.com/capitalone/Stratum-Observability/internal/config"
	"github.com/capitalone/Stratum-Observability/internal/plugin"
	"github.com/capitalone/Stratum-Observability/internal/publisher"
	"github.com/capitalone/Stratum-Observability/modules/archive"
	"github.com/capitalone/Stratum-Observability/modules/console"
	"github.com/capitalone/Stratum-Observability/modules/env"
	"github.com/capitalone/Stratum-Observability/modules/newrelic"
	"github.com/capitalone/Stratum-Observability/modules/postgres"
	"github.com/capitalone/Stratum-Observability/modules/socketio"
	"github.com/capitalone/Stratum-Observability/modules/webhook"
	"golang.org/x/time/rate"
)

// Builder creates a plugin from its declaration. The returned close
// function, when non-nil, releases the plugin's connections.
type Builder func(ctx context.Context, pc *config.PluginConfig, outW io.Writer) (plugin.Plugin, func(), error)

// Modules maps a plugin type, as written in configuration, to its Builder.
type Modules map[string]Builder

// coreModules is the definitive list of all plugin types that are compiled
// into the stratum binary.
var coreModules = Modules{
	"console":  buildConsole,
	"env":      buildEnv,
	"socketio": buildSocketIO,
	"archive":  buildArchive,
	"postgres": buildPostgres,
	"newrelic": buildNewRelic,
	"webhook":  buildWebhook,
}

// CoreModules returns a copy of the built-in plugin types.
func CoreModules() Modules {
	out := make(Modules, len(coreModules))
	for k, v := range coreModules {
		out[k] = v
	}
	return out
}

func buildConsole(_ context.Context, _ *config.PluginConfig, outW io.Writer) (plugin.Plugin, func(), error) {
	return console.New(outW), nil, nil
}

func buildEnv(_ context.Context, pc *config.PluginConfig, _ io.Writer) (plugin.Plugin, func(), error) {
	return env.New(env.Config{
		Name:        pc.Name,
		Prefix:      pc.String("prefix", ""),
		StripPrefix: pc.Bool("strip_prefix", false),
		Keys:        pc.Strings("keys"),
	}), nil, nil
}

func buildSocketIO(ctx context.Context, pc *config.PluginConfig, _ io.Writer) (plugin.Plugin, func(), error) {
	timeout, err := pc.Duration("connect_timeout", 0)
	if err != nil {
		return nil, nil, err
	}
	cfg := socketio.Config{
		Name:               pc.Name,
		URL:                pc.String("url", ""),
		Namespace:          pc.String("namespace", ""),
		Event:              pc.String("event", ""),
		InsecureSkipVerify: pc.Bool("insecure_skip_verify", false),
		ConnectTimeout:     timeout,
		EventTypes:         pc.Strings("event_types"),
	}
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("plugin %q: url is required", pc.Type)
	}
	client, err := socketio.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return socketio.New(cfg, client), client.Close, nil
}

func buildArchive(_ context.Context, pc *config.PluginConfig, _ io.Writer) (plugin.Plugin, func(), error) {
	format, err := codec.ParseFormat(pc.String("format", ""))
	if err != nil {
		return nil, nil, fmt.Errorf("plugin %q: %w", pc.Type, err)
	}
	store, err := archive.NewMinioStore(archive.StoreConfig{
		EndpointURL:     pc.String("endpoint", ""),
		AccessKeyID:     pc.String("access_key_id", os.Getenv("AWS_ACCESS_KEY_ID")),
		SecretAccessKey: pc.String("secret_access_key", os.Getenv("AWS_SECRET_ACCESS_KEY")),
		Region:          pc.String("region", ""),
		UseSSL:          pc.Bool("use_ssl", false),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("plugin %q: %w", pc.Type, err)
	}
	bucket := pc.String("bucket", "")
	if bucket == "" {
		return nil, nil, fmt.Errorf("plugin %q: bucket is required", pc.Type)
	}
	return archive.New(archive.Config{
		Name:     pc.Name,
		Bucket:   bucket,
		Prefix:   pc.String("prefix", ""),
		Format:   format,
		Compress: pc.Bool("compress", false),
	}, store), nil, nil
}

func buildPostgres(ctx context.Context, pc *config.PluginConfig, _ io.Writer) (plugin.Plugin, func(), error) {
	dsn := pc.String("dsn", os.Getenv("DATABASE_URL"))
	if dsn == "" {
		return nil, nil, fmt.Errorf("plugin %q: dsn is required", pc.Type)
	}
	pool, err := postgres.Connect(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	table := pc.String("table", postgres.DefaultTable)
	if pc.Bool("create_table", false) {
		if err := postgres.EnsureSchema(ctx, pool, table); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return postgres.New(postgres.Config{Name: pc.Name, Table: table}, pool), pool.Close, nil
}

func buildNewRelic(_ context.Context, pc *config.PluginConfig, _ io.Writer) (plugin.Plugin, func(), error) {
	timeout, err := pc.Duration("connect_timeout", 0)
	if err != nil {
		return nil, nil, err
	}
	cfg := newrelic.Config{
		Name:            pc.Name,
		AppName:         pc.String("app_name", ""),
		LicenseKey:      pc.String("license_key", os.Getenv("NEW_RELIC_LICENSE_KEY")),
		CustomEventType: pc.String("custom_event_type", ""),
		ConnectTimeout:  timeout,
	}
	nrApp, err := newrelic.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}
	return newrelic.New(cfg, nrApp), func() { nrApp.Shutdown(5 * time.Second) }, nil
}

func buildWebhook(_ context.Context, pc *config.PluginConfig, _ io.Writer) (plugin.Plugin, func(), error) {
	format, err := codec.ParseFormat(pc.String("format", ""))
	if err != nil {
		return nil, nil, fmt.Errorf("plugin %q: %w", pc.Type, err)
	}
	timeout, err := pc.Duration("request_timeout", 0)
	if err != nil {
		return nil, nil, err
	}
	url := pc.String("url", "")
	if url == "" {
		return nil, nil, fmt.Errorf("plugin %q: url is required", pc.Type)
	}
	headers := make(map[string]string)
	if raw, ok := pc.Attributes["headers"].(map[string]any); ok {
		for k, v := range raw {
			headers[k] = fmt.Sprint(v)
		}
	}
	client := webhook.NewClient(timeout)
	return webhook.New(webhook.Config{
		Name:    pc.Name,
		URL:     url,
		Method:  pc.String("method", ""),
		Headers: headers,
		Format:  format,
	}, client), client.CloseIdleConnections, nil
}

// guard applies the publish_timeout, rate_limit and burst attributes of pc
// to every publisher of p. The timeout defaults to def.
func guard(p plugin.Plugin, pc *config.PluginConfig, def time.Duration) (plugin.Plugin, error) {
	timeout, err := pc.Duration("publish_timeout", def)
	if err != nil {
		return nil, err
	}
	var limiter *rate.Limiter
	if perSecond := pc.Float("rate_limit", 0); perSecond > 0 {
		burst := int(pc.Float("burst", 1))
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	if timeout <= 0 && limiter == nil {
		return p, nil
	}
	return plugin.WrapPublishers(p, func(pub plugin.Publisher) plugin.Publisher {
		return publisher.WithTimeout(publisher.WithRateLimit(pub, limiter), timeout)
	}), nil
}
