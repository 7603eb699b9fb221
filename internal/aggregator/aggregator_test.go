package aggregator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"workpulse/internal/models"
)

func ptr(s string) *string { return &s }

func testResolver() StaticResolver {
	return StaticResolver{
		"cat-productive":   models.Productive,
		"cat-unproductive": models.Unproductive,
		"cat-neutral":      models.Neutral,
	}
}

func TestSummarizeScenario(t *testing.T) {
	events := []*models.ActivityEvent{
		{ID: "1", ActivityType: models.ActivityApp, AppName: "editor", DurationSeconds: 1800, CategoryID: ptr("cat-productive")},
		{ID: "2", ActivityType: models.ActivityWebsite, URLDomain: "mail.example.com", DurationSeconds: 600, CategoryID: ptr("cat-unproductive")},
		{ID: "3", ActivityType: models.ActivityIdle, DurationSeconds: 300},
	}

	s := New(testResolver(), DefaultTopLimit)
	summary, err := s.Summarize(context.Background(), events)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}

	if summary.TotalActiveTime != 2400 {
		t.Errorf("TotalActiveTime = %d, want 2400", summary.TotalActiveTime)
	}
	if summary.TotalIdleTime != 300 {
		t.Errorf("TotalIdleTime = %d, want 300", summary.TotalIdleTime)
	}
	if summary.TotalPauseTime != 0 {
		t.Errorf("TotalPauseTime = %d, want 0", summary.TotalPauseTime)
	}
	if summary.ProductiveTime != 1800 {
		t.Errorf("ProductiveTime = %d, want 1800", summary.ProductiveTime)
	}
	if summary.UnproductiveTime != 600 {
		t.Errorf("UnproductiveTime = %d, want 600", summary.UnproductiveTime)
	}
	if summary.NeutralTime != 0 {
		t.Errorf("NeutralTime = %d, want 0", summary.NeutralTime)
	}

	if len(summary.TopApps) != 1 {
		t.Fatalf("TopApps has %d entries, want 1", len(summary.TopApps))
	}
	app := summary.TopApps[0]
	if app.Name != "editor" || app.DurationSeconds != 1800 {
		t.Errorf("TopApps[0] = %+v, want editor/1800", app)
	}
	// Percentages are over the grand total of 2700.
	if math.Abs(app.Percentage-1800.0/2700.0*100.0) > 0.01 {
		t.Errorf("TopApps[0].Percentage = %f, want 66.67", app.Percentage)
	}

	if len(summary.TopWebsites) != 1 {
		t.Fatalf("TopWebsites has %d entries, want 1", len(summary.TopWebsites))
	}
	site := summary.TopWebsites[0]
	if site.Name != "mail.example.com" || site.DurationSeconds != 600 {
		t.Errorf("TopWebsites[0] = %+v, want mail.example.com/600", site)
	}
	if math.Abs(site.Percentage-600.0/2700.0*100.0) > 0.01 {
		t.Errorf("TopWebsites[0].Percentage = %f, want 22.22", site.Percentage)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := New(testResolver(), DefaultTopLimit)
	summary, err := s.Summarize(context.Background(), nil)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}

	if summary.GrandTotal() != 0 {
		t.Errorf("GrandTotal() = %d, want 0", summary.GrandTotal())
	}
	if len(summary.TopApps) != 0 || len(summary.TopWebsites) != 0 {
		t.Errorf("rankings not empty: apps=%d websites=%d", len(summary.TopApps), len(summary.TopWebsites))
	}
}

func TestSummarizeInvariants(t *testing.T) {
	tests := []struct {
		name   string
		events []*models.ActivityEvent
	}{
		{
			name: "mixed types",
			events: []*models.ActivityEvent{
				{ActivityType: models.ActivityApp, AppName: "a", DurationSeconds: 100, CategoryID: ptr("cat-productive")},
				{ActivityType: models.ActivityApp, AppName: "b", DurationSeconds: 200},
				{ActivityType: models.ActivityWebsite, URLDomain: "x.com", DurationSeconds: 50, CategoryID: ptr("cat-unproductive")},
				{ActivityType: models.ActivityIdle, DurationSeconds: 30},
				{ActivityType: models.ActivityPause, DurationSeconds: 70},
			},
		},
		{
			name: "unmapped category is neutral",
			events: []*models.ActivityEvent{
				{ActivityType: models.ActivityApp, AppName: "a", DurationSeconds: 10, CategoryID: ptr("no-such-category")},
				{ActivityType: models.ActivityWebsite, URLDomain: "y.com", DurationSeconds: 20},
			},
		},
		{
			name: "zero durations",
			events: []*models.ActivityEvent{
				{ActivityType: models.ActivityApp, AppName: "a", DurationSeconds: 0},
				{ActivityType: models.ActivityIdle, DurationSeconds: 0},
			},
		},
	}

	s := New(testResolver(), DefaultTopLimit)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := s.Summarize(context.Background(), tt.events)
			if err != nil {
				t.Fatalf("Summarize() error: %v", err)
			}

			var total int64
			for _, e := range tt.events {
				total += e.DurationSeconds
			}
			if summary.GrandTotal() != total {
				t.Errorf("GrandTotal() = %d, want sum of inputs %d", summary.GrandTotal(), total)
			}

			byCategory := summary.ProductiveTime + summary.UnproductiveTime + summary.NeutralTime
			if byCategory != summary.TotalActiveTime {
				t.Errorf("productive+unproductive+neutral = %d, want TotalActiveTime %d", byCategory, summary.TotalActiveTime)
			}

			for _, entry := range append(summary.TopApps, summary.TopWebsites...) {
				if entry.Percentage < 0 || entry.Percentage > 100 {
					t.Errorf("entry %s percentage %f outside [0,100]", entry.Name, entry.Percentage)
				}
			}
		})
	}
}

func TestSummarizeRanking(t *testing.T) {
	var events []*models.ActivityEvent
	// 15 distinct apps with ascending durations, plus a duplicate of app-3
	// that must merge into one entry.
	for i := 1; i <= 15; i++ {
		events = append(events, &models.ActivityEvent{
			ActivityType:    models.ActivityApp,
			AppName:         fmt.Sprintf("app-%d", i),
			DurationSeconds: int64(i * 60),
		})
	}
	events = append(events, &models.ActivityEvent{
		ActivityType:    models.ActivityApp,
		AppName:         "app-3",
		DurationSeconds: 60,
	})

	s := New(testResolver(), DefaultTopLimit)
	summary, err := s.Summarize(context.Background(), events)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}

	if len(summary.TopApps) != 10 {
		t.Fatalf("TopApps has %d entries, want 10", len(summary.TopApps))
	}
	for i := 1; i < len(summary.TopApps); i++ {
		if summary.TopApps[i].DurationSeconds > summary.TopApps[i-1].DurationSeconds {
			t.Errorf("TopApps not sorted descending at %d: %d > %d",
				i, summary.TopApps[i].DurationSeconds, summary.TopApps[i-1].DurationSeconds)
		}
	}
	if summary.TopApps[0].Name != "app-15" {
		t.Errorf("TopApps[0] = %s, want app-15", summary.TopApps[0].Name)
	}

	// app-3 appeared twice: 180 + 60 = 240.
	for _, entry := range summary.TopApps {
		if entry.Name == "app-3" && entry.DurationSeconds != 240 {
			t.Errorf("app-3 duration = %d, want 240", entry.DurationSeconds)
		}
	}
}

func TestSummarizeTieOrderStable(t *testing.T) {
	events := []*models.ActivityEvent{
		{ActivityType: models.ActivityWebsite, URLDomain: "first.com", DurationSeconds: 100},
		{ActivityType: models.ActivityWebsite, URLDomain: "second.com", DurationSeconds: 100},
		{ActivityType: models.ActivityWebsite, URLDomain: "third.com", DurationSeconds: 100},
	}

	s := New(testResolver(), DefaultTopLimit)
	summary, err := s.Summarize(context.Background(), events)
	if err != nil {
		t.Fatalf("Summarize() error: %v", err)
	}

	want := []string{"first.com", "second.com", "third.com"}
	for i, entry := range summary.TopWebsites {
		if entry.Name != want[i] {
			t.Errorf("TopWebsites[%d] = %s, want %s (ties keep insertion order)", i, entry.Name, want[i])
		}
	}
}

func TestSummarizeRejectsBadInput(t *testing.T) {
	s := New(testResolver(), DefaultTopLimit)

	_, err := s.Summarize(context.Background(), []*models.ActivityEvent{
		{ID: "bad", ActivityType: models.ActivityApp, AppName: "a", DurationSeconds: -5},
	})
	if !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("negative duration: err = %v, want ErrInvalidDuration", err)
	}

	_, err = s.Summarize(context.Background(), []*models.ActivityEvent{
		{ID: "bad", ActivityType: "MEETING", DurationSeconds: 60},
	})
	if !errors.Is(err, ErrUnknownActivityType) {
		t.Errorf("unknown type: err = %v, want ErrUnknownActivityType", err)
	}
}

func TestStaticResolverUnmappedIsNeutral(t *testing.T) {
	r := testResolver()
	got, err := r.Resolve(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got != models.Neutral {
		t.Errorf("Resolve() = %s, want NEUTRAL", got)
	}
}
