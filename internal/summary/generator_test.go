package summary

import (
	"context"
	"testing"
	"time"

	"workpulse/internal/aggregator"
	"workpulse/internal/config"
	"workpulse/internal/database"
	"workpulse/internal/models"

	"go.uber.org/zap"
)

var day = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestGenerator(t *testing.T) (*Generator, *database.Repository) {
	t.Helper()
	db, err := database.Connect(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("Connect() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}

	repo := database.NewRepository(db)
	summarizer := aggregator.New(aggregator.NewStoreResolver(repo), aggregator.DefaultTopLimit)
	return NewGenerator(repo, summarizer, zap.NewNop()), repo
}

func seedDay(t *testing.T, repo *database.Repository, userID string, events []*models.ActivityEvent) {
	t.Helper()
	ctx := context.Background()

	session, err := repo.CreateSession(ctx, userID, day.Add(9*time.Hour))
	if err != nil {
		t.Fatalf("CreateSession() error: %v", err)
	}
	for i, event := range events {
		event.SessionID = session.ID
		if event.StartTime.IsZero() {
			event.StartTime = day.Add(time.Duration(9+i) * time.Hour)
		}
		if err := repo.CreateEvent(ctx, event); err != nil {
			t.Fatalf("CreateEvent() error: %v", err)
		}
	}
	if err := repo.CloseSession(ctx, session.ID, day.Add(17*time.Hour)); err != nil {
		t.Fatalf("CloseSession() error: %v", err)
	}
}

func TestGenerateComputesHoursAndPercentage(t *testing.T) {
	generator, repo := newTestGenerator(t)
	ctx := context.Background()

	productive := &models.Category{Name: "Development", Productivity: models.Productive}
	unproductive := &models.Category{Name: "Social", Productivity: models.Unproductive}
	for _, c := range []*models.Category{productive, unproductive} {
		if err := repo.CreateCategory(ctx, c); err != nil {
			t.Fatalf("CreateCategory() error: %v", err)
		}
	}

	seedDay(t, repo, "user-1", []*models.ActivityEvent{
		{ActivityType: models.ActivityApp, AppName: "editor", DurationSeconds: 3 * 3600, CategoryID: &productive.ID},
		{ActivityType: models.ActivityWebsite, URLDomain: "social.example.com", DurationSeconds: 3600, CategoryID: &unproductive.ID},
		{ActivityType: models.ActivityIdle, DurationSeconds: 1800},
	})

	result, err := generator.Generate(ctx, day)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if result.Users != 1 || result.Failed != 0 {
		t.Fatalf("Result = %+v, want 1 user, 0 failed", result)
	}

	report, err := repo.ReportForUser(ctx, "user-1", day)
	if err != nil {
		t.Fatalf("ReportForUser() error: %v", err)
	}
	if report == nil {
		t.Fatal("no report row written")
	}
	if report.TotalProductiveHours != 3 {
		t.Errorf("TotalProductiveHours = %f, want 3", report.TotalProductiveHours)
	}
	if report.TotalUnproductiveHours != 1 {
		t.Errorf("TotalUnproductiveHours = %f, want 1", report.TotalUnproductiveHours)
	}
	if report.TotalActiveHours != 4 {
		t.Errorf("TotalActiveHours = %f, want 4 (idle excluded)", report.TotalActiveHours)
	}
	if report.ProductivityPercentage != 75 {
		t.Errorf("ProductivityPercentage = %f, want 75", report.ProductivityPercentage)
	}
	if report.ReportSent {
		t.Error("fresh report marked sent")
	}
}

func TestGenerateZeroActiveHours(t *testing.T) {
	generator, repo := newTestGenerator(t)
	ctx := context.Background()

	// Only idle time: percentage must be 0, not NaN or an error.
	seedDay(t, repo, "user-1", []*models.ActivityEvent{
		{ActivityType: models.ActivityIdle, DurationSeconds: 3600},
	})

	if _, err := generator.Generate(ctx, day); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	report, err := repo.ReportForUser(ctx, "user-1", day)
	if err != nil {
		t.Fatalf("ReportForUser() error: %v", err)
	}
	if report.TotalActiveHours != 0 {
		t.Errorf("TotalActiveHours = %f, want 0", report.TotalActiveHours)
	}
	if report.ProductivityPercentage != 0 {
		t.Errorf("ProductivityPercentage = %f, want 0", report.ProductivityPercentage)
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	generator, repo := newTestGenerator(t)
	ctx := context.Background()

	seedDay(t, repo, "user-1", []*models.ActivityEvent{
		{ActivityType: models.ActivityApp, AppName: "editor", DurationSeconds: 7200},
	})

	if _, err := generator.Generate(ctx, day); err != nil {
		t.Fatalf("first Generate() error: %v", err)
	}
	first, err := repo.ReportForUser(ctx, "user-1", day)
	if err != nil {
		t.Fatalf("ReportForUser() error: %v", err)
	}

	if err := repo.MarkReportsSent(ctx, []string{first.ID}); err != nil {
		t.Fatalf("MarkReportsSent() error: %v", err)
	}

	// No new events in between: the rerun overwrites with identical values
	// and does not reset report_sent.
	if _, err := generator.Generate(ctx, day); err != nil {
		t.Fatalf("second Generate() error: %v", err)
	}

	rows, err := repo.ReportsForDate(ctx, day)
	if err != nil {
		t.Fatalf("ReportsForDate() error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rerun duplicated the report row: %d rows", len(rows))
	}
	second := rows[0]
	if second.TotalProductiveHours != first.TotalProductiveHours ||
		second.TotalUnproductiveHours != first.TotalUnproductiveHours ||
		second.TotalActiveHours != first.TotalActiveHours ||
		second.ProductivityPercentage != first.ProductivityPercentage {
		t.Errorf("rerun changed values: %+v vs %+v", second, first)
	}
	if !second.ReportSent {
		t.Error("rerun reset report_sent")
	}
}

func TestGenerateCoversAllUsersOfTheDay(t *testing.T) {
	generator, repo := newTestGenerator(t)
	ctx := context.Background()

	seedDay(t, repo, "user-1", []*models.ActivityEvent{
		{ActivityType: models.ActivityApp, AppName: "editor", DurationSeconds: 3600},
	})
	seedDay(t, repo, "user-2", []*models.ActivityEvent{
		{ActivityType: models.ActivityWebsite, URLDomain: "docs.example.com", DurationSeconds: 1800},
	})

	result, err := generator.Generate(ctx, day)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if result.Users != 2 {
		t.Errorf("Result.Users = %d, want 2", result.Users)
	}

	for _, userID := range []string{"user-1", "user-2"} {
		report, err := repo.ReportForUser(ctx, userID, day)
		if err != nil {
			t.Fatalf("ReportForUser(%s) error: %v", userID, err)
		}
		if report == nil {
			t.Errorf("no report for %s", userID)
		}
	}
}

func TestGenerateDefaultsToToday(t *testing.T) {
	generator, repo := newTestGenerator(t)
	ctx := context.Background()
	generator.now = func() time.Time { return day.Add(15 * time.Hour) }

	seedDay(t, repo, "user-1", []*models.ActivityEvent{
		{ActivityType: models.ActivityApp, AppName: "editor", DurationSeconds: 600},
	})

	if _, err := generator.Generate(ctx, time.Time{}); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	report, err := repo.ReportForUser(ctx, "user-1", day)
	if err != nil {
		t.Fatalf("ReportForUser() error: %v", err)
	}
	if report == nil {
		t.Fatal("zero date did not default to the clock's day")
	}
}
