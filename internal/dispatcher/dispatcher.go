package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workpulse/internal/database"
	"workpulse/internal/models"

	"go.uber.org/zap"
)

var ErrDeliveryFailed = errors.New("daily report delivery failed")

// Dispatcher reads unsent daily reports, renders one aggregate team report,
// and mails it to every admin.
type Dispatcher struct {
	repo   *database.Repository
	mailer Mailer
	logger *zap.Logger
	now    func() time.Time
}

// SendResult counts the outcome of one dispatch run.
type SendResult struct {
	ReportsSent    int `json:"reports_sent"`
	AdminsNotified int `json:"admins_notified"`
}

func New(repo *database.Repository, mailer Mailer, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		repo:   repo,
		mailer: mailer,
		logger: logger,
		now:    time.Now,
	}
}

// SendDailyReports mails today's unsent reports as one message to all admins
// and flips report_sent for exactly the rows included. An empty unsent set is
// a no-op, not an error. When delivery fails every row stays unsent, so the
// next run naturally retries the whole batch (at-least-once delivery).
func (d *Dispatcher) SendDailyReports(ctx context.Context) (*SendResult, error) {
	day := models.Day(d.now())

	rows, err := d.repo.UnsentReports(ctx, day)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		d.logger.Info("no unsent reports for today", zap.Time("date", day))
		return &SendResult{}, nil
	}

	admins, err := d.repo.AdminEmails(ctx)
	if err != nil {
		return nil, err
	}
	if len(admins) == 0 {
		d.logger.Warn("no admin recipients configured, skipping dispatch", zap.Time("date", day))
		return &SendResult{}, nil
	}

	team := buildTeamReport(day, rows, d.now())
	html, err := RenderHTML(team)
	if err != nil {
		return nil, err
	}

	subject := fmt.Sprintf("Daily Team Productivity Report - %s", day.Format("2006-01-02"))
	if err := d.mailer.Send(ctx, admins, subject, html); err != nil {
		d.logger.Error("report mail not delivered",
			zap.Time("date", day),
			zap.Int("reports", len(rows)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	reportIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		reportIDs = append(reportIDs, row.ReportID)
	}
	if err := d.repo.MarkReportsSent(ctx, reportIDs); err != nil {
		return nil, err
	}

	d.logger.Info("daily reports dispatched",
		zap.Time("date", day),
		zap.Int("reports", len(rows)),
		zap.Int("admins", len(admins)),
	)
	return &SendResult{
		ReportsSent:    len(rows),
		AdminsNotified: len(admins),
	}, nil
}

// TeamReportFor assembles the aggregate view of one day's reports, sent or
// not, for display surfaces.
func (d *Dispatcher) TeamReportFor(ctx context.Context, day time.Time) (*models.TeamReport, error) {
	day = models.Day(day)
	rows, err := d.repo.ReportsWithUsers(ctx, day)
	if err != nil {
		return nil, err
	}
	return buildTeamReport(day, rows, d.now()), nil
}

// buildTeamReport sums member rows into team totals and the average
// productivity across members.
func buildTeamReport(day time.Time, rows []models.MemberReport, generatedAt time.Time) *models.TeamReport {
	team := &models.TeamReport{
		Date:        day,
		Members:     rows,
		GeneratedAt: generatedAt,
	}

	var productivitySum float64
	for _, row := range rows {
		team.TotalProductive += row.TotalProductiveHours
		team.TotalUnproductive += row.TotalUnproductiveHours
		team.TotalActive += row.TotalActiveHours
		productivitySum += row.ProductivityPercentage
	}
	if len(rows) > 0 {
		team.AverageProductivity = productivitySum / float64(len(rows))
	}
	return team
}
