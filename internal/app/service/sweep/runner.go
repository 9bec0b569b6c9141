package sweep

import (
	"context"
	"sync"
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/billing"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Runner drives the sweeps and the opportunistic reconcile scan on tickers.
// The same operations stay reachable over HTTP for external schedulers; the
// runner exists so a single deployment is self-sufficient. Intervals of 0
// disable the corresponding loop.
type Runner struct {
	cfg     *config.Config
	log     *zap.SugaredLogger
	sweeper Sweeper
	billing billing.Manager

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewRunner(cfg *config.Config, log *zap.SugaredLogger, sweeper Sweeper, mgr billing.Manager) *Runner {
	return &Runner{
		cfg:     cfg,
		log:     log,
		sweeper: sweeper,
		billing: mgr,
		stopCh:  make(chan struct{}),
	}
}

func (r *Runner) Start() {
	if d := r.cfg.Sweep.ExpiryInterval(); d > 0 {
		r.loop("expiry_sweep", d, func(ctx context.Context) {
			if _, err := r.sweeper.SweepExpired(ctx, time.Now()); err != nil {
				r.log.Errorw("expiry_sweep_failed", "err", err)
			}
		})
	}
	if d := r.cfg.Sweep.ReminderInterval(); d > 0 {
		r.loop("reminder_sweep", d, func(ctx context.Context) {
			if _, err := r.sweeper.SweepReminders(ctx, time.Now()); err != nil {
				r.log.Errorw("reminder_sweep_failed", "err", err)
			}
		})
	}
	if d := r.cfg.Sweep.ReconcileScanInterval(); d > 0 {
		r.loop("reconcile_scan", d, func(ctx context.Context) {
			if _, err := r.billing.Reconcile(ctx, &billing.ReconcileOptions{}); err != nil {
				r.log.Errorw("reconcile_scan_failed", "err", err)
			}
		})
	}
}

func (r *Runner) Stop() {
	close(r.stopCh)
	r.wg.Wait()
}

func (r *Runner) loop(name string, interval time.Duration, run func(ctx context.Context)) {
	ticker := time.NewTicker(interval)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer ticker.Stop()
		r.log.Infow("sweep_loop_started", "name", name, "interval", interval.String())
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Sweep.RunTimeout())
				run(ctx)
				cancel()
			case <-r.stopCh:
				r.log.Infow("sweep_loop_stopped", "name", name)
				return
			}
		}
	}()
}

func registerRunner(lc fx.Lifecycle, r *Runner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			r.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			r.Stop()
			return nil
		},
	})
}
