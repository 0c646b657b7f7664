package orchestrator

import (
	"errors"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	cfg "github.com/themusiclab/infant-speech-song/config"
)

// Pipeline runs the batch stages over the directories named in the config.
// Every stage handles sessions one at a time; a failing session is logged,
// collected and skipped.
type Pipeline struct {
	cfg   *cfg.Root
	log   *logrus.Entry
	runID string
}

func NewPipeline(c *cfg.Root, log *logrus.Logger) *Pipeline {
	if log == nil {
		log = logrus.StandardLogger()
	}
	id := uuid.NewString()
	return &Pipeline{cfg: c, log: log.WithField("run", id), runID: id}
}

func (p *Pipeline) RunID() string { return p.runID }

func (p *Pipeline) sessionLog(stage, session string) *logrus.Entry {
	return p.log.WithFields(logrus.Fields{"stage": stage, "session": session})
}

// fail logs and records a session-local error.
func (p *Pipeline) fail(errs *[]error, stage, session string, err error) {
	p.sessionLog(stage, session).WithError(err).Error("session failed")
	*errs = append(*errs, &SessionError{Session: session, Stage: stage, Err: err})
}

// outputPath resolves name under paths.outputs unless it is already absolute.
func (p *Pipeline) outputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.cfg.Paths.Outputs, name)
}

func joinErrs(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
