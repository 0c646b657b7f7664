package orchestrator

import (
	"errors"
	"fmt"

	"github.com/themusiclab/infant-speech-song/audio"
)

var (
	// ErrSampleRateMismatch halts concatenation of one session; it is never resampled.
	ErrSampleRateMismatch = audio.ErrSampleRateMismatch
	ErrFormatMismatch     = audio.ErrFormatMismatch
	ErrIntervalOrder      = errors.New("annotation intervals overlap or are out of order")
	ErrDuplicateIndex     = errors.New("duplicate subclip index")
	ErrDuplicateSession   = errors.New("duplicate session id")
)

// Stage names used in logs and errors.
const (
	StageExport = "export"
	StageConcat = "concat"
	StageNPVI   = "npvi"
)

// SessionError is a failure confined to one session. The batch carries on.
type SessionError struct {
	Session string
	Stage   string
	Err     error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Session, e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }
