package service_test

import (
	"strings"
	"testing"

	"github.com/akulov/checkup-bot/internal/domain"
	"github.com/akulov/checkup-bot/internal/service"
	"github.com/akulov/checkup-bot/internal/testutil"
)

func reportFixture(t *testing.T) (*service.ReportService, *testutil.MemorySubmissionRepository, *testutil.StubClock) {
	t.Helper()
	repo := testutil.NewMemorySubmissionRepository()
	clock := testutil.FixedClock()
	return service.NewReportService(repo, scenarioForm(), clock), repo, clock
}

func storedSubmission(id string, created int, clock *testutil.StubClock, propertyType string) *domain.Submission {
	return &domain.Submission{
		ID:       id,
		UserID:   1,
		Username: "alice",
		Answers: map[string]domain.Value{
			"name": {Kind: domain.KindText, Text: "Alice"},
			"area": {Kind: domain.KindNumber, Text: "50", Number: 50},
			"type": {Kind: domain.KindEnum, Text: propertyType},
		},
		CreatedAt: clock.Now().AddDate(0, 0, -created),
	}
}

func TestGenerateRejectsNonPositiveWindow(t *testing.T) {
	reports, _, _ := reportFixture(t)
	for _, days := range []int{0, -7} {
		if _, err := reports.Generate(days); err == nil {
			t.Errorf("Generate(%d) should fail", days)
		}
	}
}

func TestGenerateCountsWindow(t *testing.T) {
	reports, repo, clock := reportFixture(t)

	repo.Insert(storedSubmission("in-1", 0, clock, "flat"))
	repo.Insert(storedSubmission("in-2", 15, clock, "house"))
	repo.Insert(storedSubmission("out-1", 31, clock, "flat"))

	rep, err := reports.Generate(30)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if rep.Count != 2 {
		t.Errorf("Count = %d, want 2", rep.Count)
	}
	if !rep.From.Equal(clock.Now().AddDate(0, 0, -30)) {
		t.Errorf("From = %v, want now-30d", rep.From)
	}
	for _, sub := range rep.Submissions {
		if strings.HasPrefix(sub.ID, "out-") {
			t.Errorf("submission %s is outside the window", sub.ID)
		}
	}
}

func TestGenerateWindowBoundsAreInclusive(t *testing.T) {
	reports, repo, clock := reportFixture(t)

	// Exactly at now-30d and exactly at now: both count
	repo.Insert(storedSubmission("edge-old", 30, clock, "flat"))
	repo.Insert(storedSubmission("edge-new", 0, clock, "flat"))

	rep, err := reports.Generate(30)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if rep.Count != 2 {
		t.Errorf("Count = %d, want both boundary submissions", rep.Count)
	}
}

func TestGenerateEnumBreakdown(t *testing.T) {
	reports, repo, clock := reportFixture(t)

	repo.Insert(storedSubmission("s1", 1, clock, "flat"))
	repo.Insert(storedSubmission("s2", 2, clock, "flat"))
	repo.Insert(storedSubmission("s3", 3, clock, "house"))

	rep, err := reports.Generate(7)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	byType := rep.ByEnum["type"]
	if byType["flat"] != 2 || byType["house"] != 1 {
		t.Errorf("breakdown = %v, want flat:2 house:1", byType)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	reports, repo, clock := reportFixture(t)
	repo.Insert(storedSubmission("s1", 1, clock, "flat"))

	first, err := reports.Generate(7)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	second, err := reports.Generate(7)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if first.Count != second.Count || !first.From.Equal(second.From) {
		t.Error("same repository and clock must yield the same report")
	}
}

func TestFormatText(t *testing.T) {
	reports, repo, clock := reportFixture(t)
	repo.Insert(storedSubmission("s1", 1, clock, "flat"))
	repo.Insert(storedSubmission("s2", 2, clock, "house"))

	rep, err := reports.Generate(7)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	text := reports.FormatText(rep)
	for _, want := range []string{"за 7 дней", "Всего заявок: 2", "flat — 1", "house — 1"} {
		if !strings.Contains(text, want) {
			t.Errorf("report text missing %q:\n%s", want, text)
		}
	}
}

func TestCSV(t *testing.T) {
	reports, repo, clock := reportFixture(t)
	repo.Insert(storedSubmission("s1", 1, clock, "flat"))

	rep, err := reports.Generate(7)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	data, err := reports.CSV(rep)
	if err != nil {
		t.Fatalf("CSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d csv lines, want header + 1 row", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,user_id,username,created_at,name,area,type") {
		t.Errorf("unexpected header %q", lines[0])
	}
	for _, want := range []string{"s1", "alice", "Alice", "50", "flat"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("row missing %q: %q", want, lines[1])
		}
	}
}
