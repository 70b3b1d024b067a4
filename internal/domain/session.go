package domain

import (
	"context"
	"time"

	"github.com/looplab/fsm"
)

// Session states and events for the conversation state machine.
// Per-field states are generated from the form as "awaiting:<field id>".
const (
	StateCompleted = "completed"
	StateCancelled = "cancelled"

	EventCancel = "cancel"
)

func awaitingState(fieldID string) string { return "awaiting:" + fieldID }
func answerEvent(fieldID string) string   { return "answer:" + fieldID }

// Session is the transient per-user conversation progress record.
// At most one Session exists per user id; a restart replaces it entirely.
type Session struct {
	UserID    int64
	Username  string
	FullName  string
	Answers   map[string]Value
	Files     []string
	CreatedAt time.Time
	UpdatedAt time.Time

	// PendingSubmission holds a completed but not yet durably written
	// submission. While set, the session survives until the write succeeds.
	PendingSubmission *Submission

	form []Field
	fsm  *fsm.FSM
}

// NewSession creates a session positioned at the first field of the form.
func NewSession(userID int64, username, fullName string, form []Field, now time.Time) *Session {
	events := fsm.Events{}
	awaiting := make([]string, len(form))
	for i, f := range form {
		awaiting[i] = awaitingState(f.ID)
	}
	for i, f := range form {
		dst := StateCompleted
		if i+1 < len(form) {
			dst = awaiting[i+1]
		}
		events = append(events, fsm.EventDesc{Name: answerEvent(f.ID), Src: []string{awaiting[i]}, Dst: dst})
	}
	events = append(events, fsm.EventDesc{Name: EventCancel, Src: awaiting, Dst: StateCancelled})

	return &Session{
		UserID:    userID,
		Username:  username,
		FullName:  fullName,
		Answers:   make(map[string]Value),
		CreatedAt: now,
		UpdatedAt: now,
		form:      form,
		fsm:       fsm.NewFSM(awaiting[0], events, fsm.Callbacks{}),
	}
}

// Form returns the ordered field list this session walks through.
func (s *Session) Form() []Field { return s.form }

// Current returns the field the session is waiting on.
// ok is false once the session reached a terminal state.
func (s *Session) Current() (Field, bool) {
	state := s.fsm.Current()
	for _, f := range s.form {
		if awaitingState(f.ID) == state {
			return f, true
		}
	}
	return Field{}, false
}

// Record stores a validated value for the current field and advances the
// machine to the next field or to the completed state.
func (s *Session) Record(ctx context.Context, field Field, v Value) error {
	s.Answers[field.ID] = v
	return s.fsm.Event(ctx, answerEvent(field.ID))
}

// Cancel moves the session to its cancelled terminal state.
func (s *Session) Cancel(ctx context.Context) error {
	return s.fsm.Event(ctx, EventCancel)
}

func (s *Session) Completed() bool { return s.fsm.Current() == StateCompleted }
func (s *Session) Cancelled() bool { return s.fsm.Current() == StateCancelled }

// Touch refreshes the idle-expiry timestamp.
func (s *Session) Touch(now time.Time) { s.UpdatedAt = now }

// DisplayName matches the upstream convention: username when present,
// otherwise the full name from the profile.
func (s *Session) DisplayName() string {
	if s.Username != "" {
		return s.Username
	}
	return s.FullName
}
