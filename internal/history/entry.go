package history

import (
	"time"

	"github.com/google/uuid"
)

// Move records one completed file move.
type Move struct {
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Timestamp   time.Time `json:"timestamp"`
}

// Entry records one organizing operation. Moves are appended in execution
// order as each move completes; failed and skipped moves are never recorded.
type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	SourceRoot string    `json:"sourceRoot"`
	TargetRoot string    `json:"targetRoot"`
	Moves      []Move    `json:"moves"`
}

// NewEntry creates an entry for an operation that is about to execute.
// IDs are UUIDv7 so they sort by creation time.
func NewEntry(sourceRoot, targetRoot string) *Entry {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &Entry{
		ID:         id.String(),
		Timestamp:  time.Now().UTC(),
		SourceRoot: sourceRoot,
		TargetRoot: targetRoot,
	}
}

// Append records one completed move.
func (e *Entry) Append(source, destination string) {
	e.Moves = append(e.Moves, Move{
		Source:      source,
		Destination: destination,
		Timestamp:   time.Now().UTC(),
	})
}
