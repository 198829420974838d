package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNoResume is returned when an action needs a resume and none was loaded.
	ErrNoResume = errors.New("no resume loaded")
	// ErrNoRanking is returned when clustering is requested before a search.
	ErrNoRanking = errors.New("no ranked postings: run a search first")
)

// Kind names the external capability that failed.
type Kind string

const (
	KindExtract  Kind = "extract"
	KindFetch    Kind = "fetch"
	KindEmbed    Kind = "embed"
	KindGenerate Kind = "generate"
)

// CollaboratorError reports a failure of an external capability.
// A timeout satisfies errors.Is(err, context.DeadlineExceeded).
type CollaboratorError struct {
	Kind Kind
	Err  error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Kind, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// IsCollaborator reports whether err came from the given capability.
func IsCollaborator(err error, kind Kind) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce) && ce.Kind == kind
}
