package domain

import (
	"errors"
	"time"
)

// Sentinel errors for the failure taxonomy. Repository implementations wrap
// ErrStorageUnavailable so callers can match with errors.Is.
var (
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNoSession          = errors.New("no active session")
)

// FileMeta describes an inbound attachment before it is stored. FileID is
// the transport-level reference used to fetch the payload; the core never
// touches the bytes itself.
type FileMeta struct {
	FileID   string
	Name     string
	MimeType string
	Size     int64
}

// Submission is a completed, validated checkup request. Immutable once
// written; created exactly once per completed conversation.
type Submission struct {
	ID        string
	UserID    int64
	Username  string
	Answers   map[string]Value
	Files     []string
	CreatedAt time.Time
}

// SubmissionRepository defines the interface for durable submission storage
type SubmissionRepository interface {
	// Insert stores a submission atomically: it is either fully visible
	// to readers or not visible at all.
	Insert(sub *Submission) error
	// FindByDateRange returns submissions with from <= CreatedAt <= to,
	// ordered by creation time ascending.
	FindByDateRange(from, to time.Time) ([]*Submission, error)
}

// Report holds aggregate statistics over a submission time window.
// Derived on demand, never persisted.
type Report struct {
	Days  int
	From  time.Time
	To    time.Time
	Count int
	// ByEnum counts submissions per option for every enum field,
	// keyed by field id then by canonical option.
	ByEnum map[string]map[string]int

	Submissions []*Submission
}
