package notify

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Dispatcher runs detached side effects after an authoritative write has committed.
// Task failures and panics only reach the logger.
type Dispatcher struct {
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher logging to logger
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Go starts fn in the background. The task context is detached from ctx cancellation
// so it outlives the request that triggered it.
func (d *Dispatcher) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	taskCtx := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("Background task panicked",
					zap.String("task", name),
					zap.String("panic", fmt.Sprint(r)))
			}
		}()

		if err := fn(taskCtx); err != nil {
			d.logger.Warn("Background task failed", zap.String("task", name), zap.Error(err))
			return
		}
		d.logger.Debug("Background task completed", zap.String("task", name))
	}()
}

// Wait blocks until every started task has finished
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
