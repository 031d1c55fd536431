package registry

import (
	"context"
	"fmt"

	"github.com/capitalone/Stratum-Observability/internal/content"
	"github.com/capitalone/Stratum-Observability/internal/ctxlog"
	"github.com/capitalone/Stratum-Observability/internal/model"
	"github.com/capitalone/Stratum-Observability/internal/snapshot"
)

// Hook transforms publisher content before delivery. It receives a copy of
// the content accumulated so far and returns a partial content value that is
// merged on top of it. Returning an error discards the partial output.
type Hook func(c *content.Map, m model.Model, snap *snapshot.Snapshot) (*content.Map, error)

// HookResult is the outcome of one hook in a chain run.
type HookResult struct {
	Index int
	// Err is nil when the hook's output was merged.
	Err error
}

// RegisterOnBeforePublish appends h to the hook chain.
func (r *Registry) RegisterOnBeforePublish(h Hook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, h)
	r.logger.Debug("Registered onBeforePublish hook.", "count", len(r.hooks))
}

// OnBeforePublishHooks returns the registered hooks in order.
func (r *Registry) OnBeforePublishHooks() []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Hook(nil), r.hooks...)
}

// RunHookChain folds the hook chain over c. The original c is never
// modified: the fold starts from a shallow copy of it.
func (r *Registry) RunHookChain(ctx context.Context, c *content.Map, m model.Model, snap *snapshot.Snapshot) *content.Map {
	out, _ := r.RunHookChainReport(ctx, c, m, snap)
	return out
}

// RunHookChainReport is RunHookChain that also reports the outcome of every
// hook. A hook that errors or panics leaves the accumulator unchanged and the
// fold continues with the next hook.
func (r *Registry) RunHookChainReport(ctx context.Context, c *content.Map, m model.Model, snap *snapshot.Snapshot) (*content.Map, []HookResult) {
	hooks := r.OnBeforePublishHooks()
	acc := c.Clone()
	if len(hooks) == 0 {
		return acc, nil
	}

	logger := ctxlog.FromContext(ctx)
	results := make([]HookResult, 0, len(hooks))
	for i, h := range hooks {
		partial, err := callHook(h, acc.Clone(), m, snap)
		if err != nil {
			logger.Debug("onBeforePublish hook failed, output discarded.", "hook", i, "error", err)
			results = append(results, HookResult{Index: i, Err: err})
			continue
		}
		acc.Merge(partial)
		results = append(results, HookResult{Index: i})
	}
	return acc, results
}

func callHook(h Hook, c *content.Map, m model.Model, snap *snapshot.Snapshot) (out *content.Map, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("hook panicked: %v", rec)
		}
	}()
	return h(c, m, snap)
}
