package domain_test

import (
	"context"
	"testing"
	"time"

	"github.com/akulov/checkup-bot/internal/domain"
)

func miniForm() []domain.Field {
	return []domain.Field{
		{ID: "name", Kind: domain.KindText, Text: &domain.TextRule{}},
		{ID: "area", Kind: domain.KindNumber, Number: &domain.NumberRule{Min: 10, Max: 500}},
		{ID: "type", Kind: domain.KindEnum, Enum: &domain.EnumRule{Options: []string{"flat", "house"}}},
	}
}

func TestSessionWalksFieldsInOrder(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	sess := domain.NewSession(7, "alice", "Alice", miniForm(), now)

	wantOrder := []string{"name", "area", "type"}
	for _, want := range wantOrder {
		field, ok := sess.Current()
		if !ok {
			t.Fatalf("expected to be awaiting %q", want)
		}
		if field.ID != want {
			t.Fatalf("awaiting %q, want %q", field.ID, want)
		}
		if err := sess.Record(ctx, field, domain.Value{Kind: field.Kind, Text: "x"}); err != nil {
			t.Fatalf("Record(%q) error = %v", want, err)
		}
	}

	if !sess.Completed() {
		t.Error("session should be completed after the last field")
	}
	if _, ok := sess.Current(); ok {
		t.Error("completed session must not report a current field")
	}
	if len(sess.Answers) != len(wantOrder) {
		t.Errorf("got %d answers, want %d", len(sess.Answers), len(wantOrder))
	}
}

func TestSessionCancel(t *testing.T) {
	ctx := context.Background()
	sess := domain.NewSession(7, "alice", "Alice", miniForm(), time.Now())

	if err := sess.Cancel(ctx); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if !sess.Cancelled() {
		t.Error("session should be cancelled")
	}
	if _, ok := sess.Current(); ok {
		t.Error("cancelled session must not report a current field")
	}

	// No transition may leave a terminal state
	field := miniForm()[0]
	if err := sess.Record(ctx, field, domain.Value{Kind: domain.KindText, Text: "x"}); err == nil {
		t.Error("Record() after cancel should fail")
	}
}

func TestSessionDisplayName(t *testing.T) {
	form := miniForm()
	withUsername := domain.NewSession(1, "alice", "Alice Smith", form, time.Now())
	if got := withUsername.DisplayName(); got != "alice" {
		t.Errorf("DisplayName() = %q, want username", got)
	}
	noUsername := domain.NewSession(2, "", "Alice Smith", form, time.Now())
	if got := noUsername.DisplayName(); got != "Alice Smith" {
		t.Errorf("DisplayName() = %q, want full name", got)
	}
}
