// Package mailer composes operational mail and hands it to the outbox
// table. An external trigger does the actual delivery.
package mailer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/harumakino16/setlink/internal/store"
)

// Outbox is the write side of the mail queue.
type Outbox interface {
	EnqueueMail(ctx context.Context, to, subject, body string) error
}

// Mailer composes and enqueues admin-facing mail.
type Mailer struct {
	outbox    Outbox
	adminAddr string
}

// New wires a mailer. adminAddr receives every operational report.
func New(outbox Outbox, adminAddr string) *Mailer {
	return &Mailer{outbox: outbox, adminAddr: adminAddr}
}

// SendDailyKPIReport mails the day's metrics snapshot to the admin address.
func (m *Mailer) SendDailyKPIReport(ctx context.Context, snapshot store.MetricsSnapshot) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily KPI report for %s\n\n", snapshot.Date)
	fmt.Fprintf(&b, "New users this month: %d\n", snapshot.NewUsers)
	fmt.Fprintf(&b, "Ad-attributed users:  %d\n", snapshot.AdUsers)
	fmt.Fprintf(&b, "Monthly active users: %d\n", snapshot.MAU)
	fmt.Fprintf(&b, "Paid users:           %d\n", snapshot.PaidUsers)
	fmt.Fprintf(&b, "Ad-attributed paid:   %d\n", snapshot.AdPaidUsers)
	fmt.Fprintf(&b, "Ad conversion rate:   %.1f%%\n", snapshot.AdConversionRate*100)

	if len(snapshot.SignupSources) > 0 {
		b.WriteString("\nSignups by source:\n")
		sources := make([]string, 0, len(snapshot.SignupSources))
		for source := range snapshot.SignupSources {
			sources = append(sources, source)
		}
		sort.Strings(sources)
		for _, source := range sources {
			fmt.Fprintf(&b, "  %s: %d\n", source, snapshot.SignupSources[source])
		}
	}

	subject := fmt.Sprintf("[Setlink] Daily KPI %s", snapshot.Date)
	return m.outbox.EnqueueMail(ctx, m.adminAddr, subject, b.String())
}

// MonthlyComparison pairs a headline metric with its values across periods.
type MonthlyComparison struct {
	Name     string
	Current  int
	Previous int
	YearAgo  int
}

// SendMonthlySummary mails month-over-month and year-over-year movement for
// the headline metrics.
func (m *Mailer) SendMonthlySummary(ctx context.Context, month string, comparisons []MonthlyComparison) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Monthly summary for %s\n\n", month)
	for _, c := range comparisons {
		fmt.Fprintf(&b, "%s: %d\n", c.Name, c.Current)
		fmt.Fprintf(&b, "  vs last month: %s\n", growthLine(c.Current, c.Previous))
		fmt.Fprintf(&b, "  vs last year:  %s\n", growthLine(c.Current, c.YearAgo))
	}

	subject := fmt.Sprintf("[Setlink] Monthly summary %s", month)
	return m.outbox.EnqueueMail(ctx, m.adminAddr, subject, b.String())
}

// SendFeedbackNotification tells the admin a new feedback entry landed.
func (m *Mailer) SendFeedbackNotification(ctx context.Context, email, category, message string) error {
	var b strings.Builder
	if email != "" {
		fmt.Fprintf(&b, "From: %s\n", email)
	}
	if category != "" {
		fmt.Fprintf(&b, "Category: %s\n", category)
	}
	b.WriteString("\n")
	b.WriteString(message)
	b.WriteString("\n")

	return m.outbox.EnqueueMail(ctx, m.adminAddr, "[Setlink] New feedback", b.String())
}

// growthLine renders a signed percentage with a word for the direction, or
// notes that no baseline exists.
func growthLine(current, baseline int) string {
	if baseline == 0 {
		return "no baseline"
	}
	pct := (float64(current) - float64(baseline)) / float64(baseline) * 100
	switch {
	case pct > 0:
		return fmt.Sprintf("up %.1f%%", pct)
	case pct < 0:
		return fmt.Sprintf("down %.1f%%", -pct)
	default:
		return "flat"
	}
}
