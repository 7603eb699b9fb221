package summary

import (
	"context"
	"time"

	"workpulse/internal/aggregator"
	"workpulse/internal/database"
	"workpulse/internal/models"

	"go.uber.org/zap"
)

// Generator reduces every user's activity for one day into DailyReport rows.
type Generator struct {
	repo       *database.Repository
	summarizer *aggregator.Summarizer
	logger     *zap.Logger
	now        func() time.Time
}

// Result counts the outcome of one generation run.
type Result struct {
	Users  int `json:"users"`
	Failed int `json:"failed"`
}

func NewGenerator(repo *database.Repository, summarizer *aggregator.Summarizer, logger *zap.Logger) *Generator {
	return &Generator{
		repo:       repo,
		summarizer: summarizer,
		logger:     logger,
		now:        time.Now,
	}
}

// Generate upserts one DailyReport per user with a session overlapping day.
// A zero day defaults to today. Users fail independently: one user's store
// error is logged and skipped so the rest of the batch proceeds; retries are
// left to the next scheduled run. Re-running with no new events overwrites
// each row with identical values and preserves report_sent.
func (g *Generator) Generate(ctx context.Context, day time.Time) (*Result, error) {
	if day.IsZero() {
		day = g.now()
	}
	day = models.Day(day)

	userIDs, err := g.repo.UserIDsWithSessionsOn(ctx, day)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, userID := range userIDs {
		if err := g.generateForUser(ctx, userID, day); err != nil {
			result.Failed++
			g.logger.Error("daily report generation failed for user",
				zap.String("user_id", userID),
				zap.Time("date", day),
				zap.Error(err),
			)
			continue
		}
		result.Users++
	}

	g.logger.Info("daily reports generated",
		zap.Time("date", day),
		zap.Int("users", result.Users),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// generateForUser does the read-then-write for one user: all of the user's
// events for the day are fetched before the report row is written.
func (g *Generator) generateForUser(ctx context.Context, userID string, day time.Time) error {
	from := day
	to := day.Add(24*time.Hour - time.Nanosecond)

	events, err := g.repo.EventsByDateRange(ctx, userID, from, to)
	if err != nil {
		return err
	}

	summary, err := g.summarizer.Summarize(ctx, events)
	if err != nil {
		return err
	}

	report := &models.DailyReport{
		UserID:                 userID,
		Date:                   day,
		TotalProductiveHours:   hours(summary.ProductiveTime),
		TotalUnproductiveHours: hours(summary.UnproductiveTime),
		TotalActiveHours:       hours(summary.TotalActiveTime),
	}
	if report.TotalActiveHours > 0 {
		report.ProductivityPercentage = report.TotalProductiveHours / report.TotalActiveHours * 100.0
	}

	return g.repo.UpsertDailyReport(ctx, report)
}

func hours(seconds int64) float64 {
	return float64(seconds) / 3600.0
}
