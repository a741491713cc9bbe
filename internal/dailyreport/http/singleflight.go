package reporthttp

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dailyflow/dailyflow/internal/dailyreport/export"
)

var exportGroup singleflight.Group

// singleflightExport collapses concurrent identical exports (same format, area
// and week) into one pipeline run. The run owns its own timeout and ignores
// every caller's cancellation; each caller only stops waiting on its own ctx.
func singleflightExport(ctx context.Context, key string, timeout time.Duration, fn func(context.Context) (export.Result, error)) (export.Result, error, bool) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	detached := context.WithoutCancel(ctx)
	resultChan := exportGroup.DoChan(key, func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(detached, timeout)
		defer cancel()
		return fn(runCtx)
	})
	select {
	case <-ctx.Done():
		return export.Result{}, ctx.Err(), false
	case res := <-resultChan:
		if res.Err != nil {
			return export.Result{}, res.Err, res.Shared
		}
		return res.Val.(export.Result), nil, res.Shared
	}
}
