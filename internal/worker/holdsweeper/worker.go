package holdsweeper

import (
	"context"
	"time"
)

// Sweeper освобождает истекшие удержания
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Worker периодически освобождает удержания, к которым никто не обратился после истечения
type Worker struct {
	sweeper  Sweeper
	interval time.Duration
	logger   Logger
}

func NewWorker(sweeper Sweeper, interval time.Duration, logger Logger) *Worker {
	return &Worker{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
	}
}

// Start блокирует до отмены контекста
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("Hold sweeper started, interval=%s", w.interval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Hold sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Worker) sweep(ctx context.Context) {
	swept, err := w.sweeper.SweepExpired(ctx)
	if err != nil {
		w.logger.Error("Hold sweeper: failed to sweep expired holds: %v", err)
		return
	}
	if swept > 0 {
		w.logger.Info("Hold sweeper: %d expired holds released", swept)
	}
}
