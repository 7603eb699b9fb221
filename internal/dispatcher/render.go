package dispatcher

import (
	"fmt"
	"html/template"
	"strings"

	"workpulse/internal/models"
)

var reportTemplate = template.Must(template.New("daily-report").Parse(`<html>
  <body>
    <h1>Daily Team Productivity Report</h1>
    <p>Date: {{.Date.Format "2006-01-02"}}</p>
    <h2>Team Summary</h2>
    <ul>
      <li>Team members: {{len .Members}}</li>
      <li>Total productive hours: {{printf "%.1f" .TotalProductive}}h</li>
      <li>Total active hours: {{printf "%.1f" .TotalActive}}h</li>
      <li>Average productivity: {{printf "%.0f" .AverageProductivity}}%</li>
    </ul>
    <h2>Individual Reports</h2>
    <table border="1" cellpadding="6" cellspacing="0">
      <tr>
        <th>Employee</th><th>Email</th><th>Productive</th><th>Unproductive</th><th>Active</th><th>Productivity</th>
      </tr>
      {{range .Members}}
      <tr>
        <td>{{.Name}}</td>
        <td>{{.Email}}</td>
        <td>{{printf "%.1f" .TotalProductiveHours}}h</td>
        <td>{{printf "%.1f" .TotalUnproductiveHours}}h</td>
        <td>{{printf "%.1f" .TotalActiveHours}}h</td>
        <td>{{printf "%.0f" .ProductivityPercentage}}%</td>
      </tr>
      {{end}}
    </table>
    <p>Productivity percentage = productive hours / active hours &times; 100.</p>
  </body>
</html>
`))

// RenderHTML renders the aggregate team report as the email body.
func RenderHTML(team *models.TeamReport) (string, error) {
	var buf strings.Builder
	if err := reportTemplate.Execute(&buf, team); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

// RenderText formats the team report as a human-readable table for the CLI.
func RenderText(team *models.TeamReport) string {
	output := fmt.Sprintf("Daily Team Productivity Report - %s\n", team.Date.Format("2006-01-02"))
	output += fmt.Sprintf("Members: %d  Productive: %.1fh  Active: %.1fh  Avg productivity: %.0f%%\n\n",
		len(team.Members), team.TotalProductive, team.TotalActive, team.AverageProductivity)

	if len(team.Members) == 0 {
		output += "No reports for this date.\n"
		return output
	}

	output += fmt.Sprintf("%-24s %12s %14s %10s %13s\n", "Employee", "Productive", "Unproductive", "Active", "Productivity")
	output += strings.Repeat("-", 78) + "\n"
	for _, m := range team.Members {
		output += fmt.Sprintf("%-24s %11.1fh %13.1fh %9.1fh %12.0f%%\n",
			truncate(m.Name, 24),
			m.TotalProductiveHours,
			m.TotalUnproductiveHours,
			m.TotalActiveHours,
			m.ProductivityPercentage)
	}
	return output
}

// truncate truncates a string to the specified length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
