package worker

import (
	"context"
	"time"

	"storefront/internal/usecase"

	"go.uber.org/zap"
)

const retentionActor = "retention-sweep"

type sweeper interface {
	Sweep(ctx context.Context, actor string) (usecase.SweepResult, error)
}

// 一定間隔で保持期間切れの注文を消す
type RetentionWorker struct {
	sweeper  sweeper
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

func NewRetentionWorker(s sweeper, interval time.Duration, logger *zap.Logger) *RetentionWorker {
	return &RetentionWorker{sweeper: s, interval: interval, timeout: 5 * time.Minute, logger: logger}
}

// Run は ctx が終わるまで返らない。起動直後に一度実行する。
func (w *RetentionWorker) Run(ctx context.Context) {
	w.sweepOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.sweepOnce(ctx)
		case <-ctx.Done():
			w.logger.Info("retention worker stopped")
			return
		}
	}
}

func (w *RetentionWorker) sweepOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	res, err := w.sweeper.Sweep(ctx, retentionActor)
	if err != nil {
		w.logger.Error("retention sweep failed", zap.Error(err))
		return
	}
	w.logger.Debug("retention sweep",
		zap.Int("scanned", res.Scanned), zap.Int("deleted", res.Deleted), zap.Time("cutoff", res.Cutoff))
}
