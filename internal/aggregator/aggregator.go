package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"workpulse/internal/models"
)

// Aggregation-input validation errors. Both indicate upstream data corruption
// and abort the whole aggregation; skipping the bad record would silently
// break the sum invariants.
var (
	ErrInvalidDuration     = errors.New("activity event has a negative duration")
	ErrUnknownActivityType = errors.New("activity event has an unknown activity type")
)

const DefaultTopLimit = 10

// CategoryResolver looks up the productivity classification of a category id.
// An unmapped id resolves to Neutral, never to an error.
type CategoryResolver interface {
	Resolve(ctx context.Context, categoryID string) (models.Productivity, error)
}

// Summarizer reduces activity events into an ActivitySummary.
type Summarizer struct {
	resolver CategoryResolver
	topLimit int
}

// New creates a Summarizer. topLimit bounds the ranked breakdowns; values
// below 1 fall back to DefaultTopLimit.
func New(resolver CategoryResolver, topLimit int) *Summarizer {
	if topLimit < 1 {
		topLimit = DefaultTopLimit
	}
	return &Summarizer{resolver: resolver, topLimit: topLimit}
}

// accumulator keeps per-key durations in first-seen order so that ties in the
// ranking stay stable.
type accumulator struct {
	durations map[string]int64
	order     []string
}

func newAccumulator() *accumulator {
	return &accumulator{durations: make(map[string]int64)}
}

func (a *accumulator) add(key string, duration int64) {
	if _, seen := a.durations[key]; !seen {
		a.order = append(a.order, key)
	}
	a.durations[key] += duration
}

// Summarize computes the summary of a finite event set. It is deterministic,
// has no side effects beyond category lookups, and is total over the empty
// set (all-zero summary, empty rankings).
func (s *Summarizer) Summarize(ctx context.Context, events []*models.ActivityEvent) (*models.ActivitySummary, error) {
	summary := &models.ActivitySummary{
		TopApps:     []models.RankedEntry{},
		TopWebsites: []models.RankedEntry{},
	}

	apps := newAccumulator()
	websites := newAccumulator()

	for _, event := range events {
		duration := event.DurationSeconds
		if duration < 0 {
			return nil, fmt.Errorf("event %s: %w", event.ID, ErrInvalidDuration)
		}

		switch event.ActivityType {
		case models.ActivityIdle:
			summary.TotalIdleTime += duration

		case models.ActivityPause:
			summary.TotalPauseTime += duration

		case models.ActivityApp, models.ActivityWebsite:
			summary.TotalActiveTime += duration

			productivity, err := s.classify(ctx, event)
			if err != nil {
				return nil, err
			}
			switch productivity {
			case models.Productive:
				summary.ProductiveTime += duration
			case models.Unproductive:
				summary.UnproductiveTime += duration
			default:
				summary.NeutralTime += duration
			}

			// app_name and url_domain are populated for disjoint activity
			// types, but both checks run so a malformed event still lands in
			// exactly the buckets its fields claim.
			if event.AppName != "" {
				apps.add(event.AppName, duration)
			}
			if event.URLDomain != "" {
				websites.add(event.URLDomain, duration)
			}

		default:
			return nil, fmt.Errorf("event %s: %q: %w", event.ID, event.ActivityType, ErrUnknownActivityType)
		}
	}

	grandTotal := summary.GrandTotal()
	summary.TopApps = rank(apps, grandTotal, s.topLimit)
	summary.TopWebsites = rank(websites, grandTotal, s.topLimit)

	return summary, nil
}

func (s *Summarizer) classify(ctx context.Context, event *models.ActivityEvent) (models.Productivity, error) {
	if event.CategoryID == nil || *event.CategoryID == "" {
		return models.Neutral, nil
	}
	if s.resolver == nil {
		return models.Neutral, nil
	}
	return s.resolver.Resolve(ctx, *event.CategoryID)
}

// rank maps an accumulator to ranked entries sorted descending by duration,
// ties resolved by first-seen order, truncated to limit. Percentages are
// relative to the grand total, 0 when the grand total is 0.
func rank(acc *accumulator, grandTotal int64, limit int) []models.RankedEntry {
	entries := make([]models.RankedEntry, 0, len(acc.order))
	for _, key := range acc.order {
		duration := acc.durations[key]
		percentage := 0.0
		if grandTotal > 0 {
			percentage = float64(duration) / float64(grandTotal) * 100.0
		}
		entries = append(entries, models.RankedEntry{
			Name:            key,
			DurationSeconds: duration,
			Percentage:      percentage,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].DurationSeconds > entries[j].DurationSeconds
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
