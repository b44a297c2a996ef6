package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"reflectivejournal/internal/domain"
	"reflectivejournal/internal/insights"
	"reflectivejournal/internal/journalapi"

	"github.com/robfig/cron/v3"
)

const (
	WeeklySummarySpec     = "0 0 * * 1"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	weeklySummaryTimeout  = 15 * time.Minute
)

type SessionLister interface {
	ListSessions(ctx context.Context) (map[int64]domain.Credentials, error)
}

type SummaryBuilder interface {
	Build(
		ctx context.Context,
		userID int64,
		token string,
		start time.Time,
		end time.Time,
	) (*domain.PeriodSummary, error)
}

// Scheduler stores last week's summary for every signed-in user. It never
// messages anyone.
type Scheduler struct {
	ctx      context.Context
	cron     *cron.Cron
	sessions SessionLister
	builder  SummaryBuilder
	now      func() time.Time
	log      *slog.Logger
}

func New(
	ctx context.Context,
	sessions SessionLister,
	builder SummaryBuilder,
	log *slog.Logger,
) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:      ctx,
		cron:     c,
		sessions: sessions,
		builder:  builder,
		now:      time.Now,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(WeeklySummarySpec, s.weeklySummaries); err != nil {
		return fmt.Errorf("add weekly summary job: %w", err)
	}

	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) weeklySummaries() {
	ctx, cancel := context.WithTimeout(s.ctx, weeklySummaryTimeout)
	defer cancel()

	if err := s.BuildWeeklySummaries(ctx); err != nil {
		s.log.ErrorContext(ctx, "Failed to build weekly summaries",
			"error", err)
	}
}

// BuildWeeklySummaries summarizes the previous UTC week for each stored
// session. Users whose token the backend rejects are skipped.
func (s *Scheduler) BuildWeeklySummaries(ctx context.Context) error {
	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return nil
	default:
	}

	sessions, err := s.sessions.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	start, end := insights.PreviousWeek(s.now().UTC())

	var errs []error
	built := 0

	for userID, creds := range sessions {
		if ctx.Err() != nil {
			s.log.InfoContext(ctx, "Scheduler context is done",
				"error", ctx.Err())
			break
		}

		summary, err := s.builder.Build(ctx, userID, creds.Token, start, end)
		if err != nil {
			var apiErr *journalapi.APIError
			if errors.As(err, &apiErr) && apiErr.Unauthorized() {
				s.log.WarnContext(ctx, "Skipping user with rejected token",
					"userID", userID)
				continue
			}

			errs = append(errs, fmt.Errorf("build summary for user %d: %w", userID, err))
			continue
		}

		if summary.ID != 0 {
			built++
		}
	}

	s.log.InfoContext(ctx, "Weekly summaries are built",
		"userCount", len(sessions),
		"built", built,
		"failed", len(errs),
		"startDate", start.Format(time.DateOnly),
		"endDate", end.Format(time.DateOnly))

	return errors.Join(errs...)
}
