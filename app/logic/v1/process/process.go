package process

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vieagent/vieagent/app/core"
)

const (
	defaultSweepCron       = "0 3 * * *"
	defaultPerformanceDays = 30
)

// Process owns the background schedules: currently the model performance
// retention sweep.
type Process struct {
	cron *cron.Cron
	core *core.Core
}

func NewProcess(core *core.Core) *Process {
	p := &Process{
		cron: cron.New(),
		core: core,
	}

	spec := core.Cfg().Retention.SweepCron
	if spec == "" {
		spec = defaultSweepCron
	}
	if _, err := p.cron.AddFunc(spec, p.sweepModelPerformance); err != nil {
		panic(err)
	}

	return p
}

func (p *Process) Cron() *cron.Cron {
	return p.cron
}

func (p *Process) Start() {
	p.cron.Start()
}

func (p *Process) Stop() {
	if p.cron != nil {
		ctx := p.cron.Stop()
		<-ctx.Done()
	}
}

func (p *Process) sweepModelPerformance() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute*10)
	defer cancel()

	days := p.core.Cfg().Retention.PerformanceDays
	if days <= 0 {
		days = defaultPerformanceDays
	}
	cutoff := time.Now().AddDate(0, 0, -days).Unix()

	deleted, err := p.core.Store().ModelPerformanceStore().DeleteBefore(ctx, cutoff)
	if err != nil {
		slog.Error("model performance retention sweep failed", slog.Any("error", err))
		return
	}

	p.core.Metrics().RetentionDeletedAdd("model_performance", deleted)
	slog.Info("model performance retention sweep finished",
		slog.Int64("deleted", deleted),
		slog.Int("retention_days", days))
}
