package core

import "fmt"

// DocumentStatus tracks a document's progress through the ingestion pipeline.
// Transitions move forward only; StatusFailed is reachable from any
// non-terminal state, and a retry re-arms a failed document by moving it
// back to StatusProcessing.
type DocumentStatus uint8

const (
	// StatusProcessing is the initial status set at upload time.
	StatusProcessing DocumentStatus = iota + 1
	// StatusChunksCreated means all chunks are persisted but embeddings may be missing.
	StatusChunksCreated
	// StatusCompleted means every chunk has an embedding; the document is retrievable.
	StatusCompleted
	// StatusFailed means ingestion aborted; ErrorMessage carries the reason.
	StatusFailed
)

// statusTransitions is the allowed-transition table for the document state
// machine. Status changes that are not listed here are rejected.
var statusTransitions = map[DocumentStatus][]DocumentStatus{
	StatusProcessing:    {StatusChunksCreated, StatusFailed},
	StatusChunksCreated: {StatusCompleted, StatusFailed},
	StatusCompleted:     {},
	StatusFailed:        {StatusProcessing}, // retry re-entry
}

// CanTransition reports whether moving from s to next is allowed.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition validates and returns the next status.
// Returns ErrInvalidTransition if the move is not in the transition table.
func Transition(from, to DocumentStatus) (DocumentStatus, error) {
	if !from.CanTransition(to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

func (s DocumentStatus) String() string {
	switch s {
	case StatusProcessing:
		return "processing"
	case StatusChunksCreated:
		return "chunks_created"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// QueryStatus tracks the follow-up state of a captured customer query.
type QueryStatus uint8

const (
	// QueryPending means nobody has responded yet.
	QueryPending QueryStatus = iota + 1
	// QueryResponded means a human has answered the customer.
	QueryResponded
	// QueryArchived means the query needs no further action.
	QueryArchived
)

func (s QueryStatus) String() string {
	switch s {
	case QueryPending:
		return "pending"
	case QueryResponded:
		return "responded"
	case QueryArchived:
		return "archived"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// ParseQueryStatus parses the wire/CLI form of a query status.
func ParseQueryStatus(s string) (QueryStatus, error) {
	switch s {
	case "pending":
		return QueryPending, nil
	case "responded":
		return QueryResponded, nil
	case "archived":
		return QueryArchived, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidQueryStatus, s)
	}
}
