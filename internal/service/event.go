package service

import "github.com/akulov/checkup-bot/internal/domain"

// EventKind classifies an inbound event from the transport layer
type EventKind string

const (
	EventText    EventKind = "text"
	EventFile    EventKind = "file"
	EventCommand EventKind = "command"
)

// Commands understood by the engine, without the leading slash
const (
	CommandStart  = "start"
	CommandCancel = "cancel"
	CommandReport = "report"
)

// Event is one inbound message, already stripped of transport specifics.
// Text holds the message text for text events and the argument string for
// commands. File is set only for file events.
type Event struct {
	UserID   int64
	Username string
	FullName string
	Kind     EventKind
	Command  string
	Text     string
	File     *domain.FileMeta
}

// Document is a generated attachment delivered from memory
type Document struct {
	Name string
	Data []byte
}

// Outbound is a message for the transport layer to deliver. Options suggest
// a one-tap reply keyboard; FilePaths reference stored uploads to attach.
type Outbound struct {
	ChatID    int64
	Text      string
	Options   []string
	FilePaths []string
	Document  *Document
}

// FileStore persists attachment payloads outside the core. Implementations
// fetch the bytes by FileMeta.FileID and return a stable reference the
// submission records.
type FileStore interface {
	Save(userID int64, meta domain.FileMeta) (string, error)
}
