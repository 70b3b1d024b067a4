package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/akulov/checkup-bot/internal/domain"
)

// ReportService computes aggregate statistics over a trailing day window.
// Generation is a pure function of the repository contents and the clock.
type ReportService struct {
	submissions domain.SubmissionRepository
	form        []domain.Field
	clock       Clock
}

// NewReportService creates a new ReportService
func NewReportService(submissions domain.SubmissionRepository, form []domain.Field, clock Clock) *ReportService {
	return &ReportService{
		submissions: submissions,
		form:        form,
		clock:       clock,
	}
}

// Generate builds a report for the window [now-days, now], both bounds
// inclusive. A submission created exactly at now-days is counted.
func (r *ReportService) Generate(days int) (*domain.Report, error) {
	if days <= 0 {
		return nil, fmt.Errorf("report window must be positive, got %d days", days)
	}

	now := r.clock.Now()
	from := now.AddDate(0, 0, -days)

	subs, err := r.submissions.FindByDateRange(from, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}

	rep := &domain.Report{
		Days:        days,
		From:        from,
		To:          now,
		Count:       len(subs),
		ByEnum:      make(map[string]map[string]int),
		Submissions: subs,
	}

	for _, f := range r.form {
		if f.Kind != domain.KindEnum {
			continue
		}
		counts := make(map[string]int)
		for _, sub := range subs {
			if v, ok := sub.Answers[f.ID]; ok && v.Text != "" {
				counts[v.Text]++
			}
		}
		rep.ByEnum[f.ID] = counts
	}

	return rep, nil
}

// FormatText renders the report as a chat message.
func (r *ReportService) FormatText(rep *domain.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Отчёт по заявкам за %d дней*\n\n", rep.Days)
	fmt.Fprintf(&b, "Всего заявок: %d\n", rep.Count)

	for _, f := range r.form {
		counts := rep.ByEnum[f.ID]
		if len(counts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", f.Label)
		// Stable order: canonical option order from the field definition
		for _, opt := range f.Enum.Options {
			if n := counts[opt]; n > 0 {
				fmt.Fprintf(&b, "  • %s — %d\n", opt, n)
			}
		}
	}
	return b.String()
}

// CSV renders all submissions of the window as a spreadsheet-importable
// attachment, one row per submission, columns in the field-definition order.
func (r *ReportService) CSV(rep *domain.Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"id", "user_id", "username", "created_at"}
	for _, f := range r.form {
		header = append(header, f.ID)
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, sub := range rep.Submissions {
		row := []string{
			sub.ID,
			strconv.FormatInt(sub.UserID, 10),
			sub.Username,
			sub.CreatedAt.UTC().Format(time.RFC3339),
		}
		for _, f := range r.form {
			if f.Kind == domain.KindFile {
				row = append(row, strings.Join(sub.Files, ";"))
				continue
			}
			row = append(row, sub.Answers[f.ID].String())
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
