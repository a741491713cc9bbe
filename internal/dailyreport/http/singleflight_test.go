package reporthttp

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailyflow/dailyflow/internal/dailyreport/export"
	_ "github.com/dailyflow/dailyflow/testing"
)

type sharedOutcome struct {
	res    export.Result
	err    error
	shared bool
}

func TestSharedExportOutlivesCancelledCaller(t *testing.T) {
	key := "pdf|" + uuid.NewString() + "|2026-01-19"
	started := make(chan struct{})
	release := make(chan struct{})
	var runs atomic.Int32
	run := func(ctx context.Context) (export.Result, error) {
		if runs.Add(1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return export.Result{}, err
		}
		return export.Result{Filename: "reporte-semanal.pdf"}, nil
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err, _ := singleflightExport(firstCtx, key, time.Minute, run)
		firstErr <- err
	}()
	<-started

	second := make(chan sharedOutcome, 1)
	go func() {
		res, err, shared := singleflightExport(context.Background(), key, time.Minute, run)
		second <- sharedOutcome{res: res, err: err, shared: shared}
	}()
	// Give the second caller time to join the in-flight run.
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)
	close(release)

	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, "reporte-semanal.pdf", got.res.Filename)
	assert.True(t, got.shared)
	assert.Equal(t, int32(1), runs.Load())
}

func TestSharedExportHasOwnTimeout(t *testing.T) {
	key := "xlsx|" + uuid.NewString() + "|2026-01-19"
	_, err, _ := singleflightExport(context.Background(), key, 20*time.Millisecond, func(ctx context.Context) (export.Result, error) {
		<-ctx.Done()
		return export.Result{}, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSharedExportCallerStopsWaiting(t *testing.T) {
	key := "pdf|" + uuid.NewString() + "|2026-01-26"
	release := make(chan struct{})
	defer close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err, _ := singleflightExport(ctx, key, time.Minute, func(context.Context) (export.Result, error) {
		<-release
		return export.Result{}, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
