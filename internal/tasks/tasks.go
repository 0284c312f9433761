// Package tasks defines the background jobs processed by cmd/worker.
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/noah-isme/omnipay-inventory/internal/reports"
)

// Task types.
const (
	TypeWarmHourlyReport = "reports:warm_hourly"
)

// WarmHourlyPayload selects the day to warm. An empty Date means today in the
// report time zone.
type WarmHourlyPayload struct {
	Date string `json:"date,omitempty"`
}

// NewWarmHourlyTask builds a reports:warm_hourly task.
func NewWarmHourlyTask(date string) (*asynq.Task, error) {
	payload, err := json.Marshal(WarmHourlyPayload{Date: date})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeWarmHourlyReport, payload, asynq.MaxRetry(3), asynq.Timeout(2*time.Minute)), nil
}

// Warmer recomputes and caches an hourly report.
type Warmer interface {
	WarmHourly(ctx context.Context, day time.Time) (reports.Summary, error)
}

// Enqueuer is the subset of *asynq.Client used to schedule work.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Processor handles report tasks.
type Processor struct {
	Reports  Warmer
	Location *time.Location
}

// HandleWarmHourlyReport processes reports:warm_hourly.
func (p *Processor) HandleWarmHourlyReport(ctx context.Context, t *asynq.Task) error {
	var payload WarmHourlyPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal warm hourly payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	var day time.Time
	if payload.Date != "" {
		parsed, err := reports.ParseDate(payload.Date, loc)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", payload.Date, asynq.SkipRetry)
		}
		day = parsed
	}
	sum, err := p.Reports.WarmHourly(ctx, day)
	if err != nil {
		return fmt.Errorf("warm hourly report: %w", err)
	}
	log.Ctx(ctx).Info().
		Int("hours", len(sum.HourlySummary)).
		Int("items", len(sum.ItemSummary)).
		Msg("hourly report warmed")
	return nil
}

// EnqueueWarmHourly schedules a warm-up of date on the default queue.
func EnqueueWarmHourly(ctx context.Context, q Enqueuer, date string) (*asynq.TaskInfo, error) {
	task, err := NewWarmHourlyTask(date)
	if err != nil {
		return nil, err
	}
	return q.EnqueueContext(ctx, task)
}

// NewServeMux registers every task handler of p. Handlers log through
// log.Ctx, so each task context carries logger tagged with the task type and id.
func NewServeMux(p *Processor, logger zerolog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Use(ContextLogger(logger))
	mux.HandleFunc(TypeWarmHourlyReport, p.HandleWarmHourlyReport)
	return mux
}

// ContextLogger places logger on the context of every task it wraps.
func ContextLogger(logger zerolog.Logger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			lc := logger.With().Str("task", t.Type())
			if id, ok := asynq.GetTaskID(ctx); ok {
				lc = lc.Str("task_id", id)
			}
			l := lc.Logger()
			return next.ProcessTask(l.WithContext(ctx), t)
		})
	}
}
