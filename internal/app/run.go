package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/capitalone/Stratum-Observability/internal/ctxlog"
	"github.com/capitalone/Stratum-Observability/internal/pipeline"
)

// ErrNotDelivered is returned by Run when a publish did not satisfy the
// configured policy.
var ErrNotDelivered = errors.New("event not delivered")

// Run publishes every configured key in order. Every key is attempted; the
// failures are joined into the returned error.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if len(a.config.PublishKeys) == 0 {
		a.logger.Warn("No keys to publish, nothing to do.", "catalogs", a.service.Catalogs())
		return nil
	}

	var errs []error
	for _, ref := range a.config.PublishKeys {
		if err := a.publish(ctx, ref); err != nil {
			errs = append(errs, err)
		}
	}

	a.logger.Debug("App.Run method finished.", "failed", len(errs))
	return errors.Join(errs...)
}

func (a *App) publish(ctx context.Context, ref string) error {
	catalogID, key, ok := strings.Cut(ref, "#")
	if !ok {
		key = ref
		c, found := a.service.DefaultCatalog()
		if !found {
			return fmt.Errorf("%s: no catalog declared", ref)
		}
		catalogID = c.ID()
	}

	report, err := a.service.PublishWithReport(ctx, catalogID, key, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", ref, err)
	}
	for _, o := range report.Outcomes {
		if o.Err != nil {
			a.logger.Debug("Publisher outcome.", "tag", report.TagID, "publisher", o.Publisher, "outcome", o.Outcome.String(), "error", o.Err)
		}
	}

	ok = report.Result(a.config.Policy)
	a.logger.Info("Event published.",
		"tag", report.TagID,
		"delivered", report.Count(pipeline.Delivered),
		"failed", report.Count(pipeline.Failed),
		"policy", a.config.Policy.String(),
		"ok", ok)
	if !ok {
		return fmt.Errorf("%s: %w", report.TagID, ErrNotDelivered)
	}
	return nil
}
