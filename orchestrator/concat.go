package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/themusiclab/infant-speech-song/audio"
	cfg "github.com/themusiclab/infant-speech-song/config"
)

// Concatenate rejoins the subclips under paths.export_dir into one file per
// session under paths.concat_dir, in ascending subclip index order.
func (p *Pipeline) Concatenate(ctx context.Context) (*ConcatReport, error) {
	if err := p.cfg.Validate(cfg.StageConcat); err != nil {
		return nil, err
	}
	names, err := listFiles(p.cfg.Paths.Export, hasExt(p.cfg.Export.AudioExt))
	if err != nil {
		return nil, fmt.Errorf("list subclips: %w", err)
	}

	var refs []SubclipRef
	for _, name := range names {
		session, n, ok := parseSubclipName(stem(name))
		if !ok {
			p.log.WithFields(logrus.Fields{"stage": StageConcat, "file": name}).Debug("not a subclip name, skipped")
			continue
		}
		refs = append(refs, SubclipRef{Session: session, Index: n, Path: filepath.Join(p.cfg.Paths.Export, name)})
	}
	groups := groupSubclips(refs)

	rep := &ConcatReport{}
	var errs []error
	for _, session := range sortedKeys(groups) {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.Sessions++
		out, err := p.concatSession(session, groups[session])
		if err != nil {
			rep.Failed++
			p.fail(&errs, StageConcat, session, err)
			continue
		}
		rep.Written = append(rep.Written, out)
	}
	return rep, joinErrs(errs)
}

func (p *Pipeline) concatSession(session string, group []SubclipRef) (string, error) {
	log := p.sessionLog(StageConcat, session)
	for i := 1; i < len(group); i++ {
		if group[i].Index == group[i-1].Index {
			return "", fmt.Errorf("%w: %d (%s, %s)", ErrDuplicateIndex, group[i].Index,
				filepath.Base(group[i-1].Path), filepath.Base(group[i].Path))
		}
	}
	if missing := gaps(group); len(missing) > 0 {
		log.WithField("missing", missing).Warn("subclip indices are not contiguous")
	}

	want := p.cfg.Audio.SampleRate
	clips := make([]*audio.Clip, 0, len(group))
	for _, ref := range group {
		c, err := audio.Read(ref.Path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", filepath.Base(ref.Path), err)
		}
		if want == 0 {
			want = c.SampleRate
		}
		if c.SampleRate != want {
			return "", fmt.Errorf("%w: %s is %d Hz, want %d Hz", ErrSampleRateMismatch,
				filepath.Base(ref.Path), c.SampleRate, want)
		}
		log.WithField("index", ref.Index).Debug("concatenating")
		clips = append(clips, c)
	}

	joined, err := audio.Concat(clips...)
	if err != nil {
		return "", err
	}
	if joined, err = joined.WithBitDepth(p.cfg.Audio.BitDepth); err != nil {
		return "", err
	}
	dst := filepath.Join(p.cfg.Paths.Concat, session+p.cfg.Export.AudioExt)
	if err := audio.Write(dst, joined); err != nil {
		return "", fmt.Errorf("write: %w", err)
	}
	log.WithFields(logrus.Fields{"subclips": len(clips), "frames": joined.Frames()}).Info("session concatenated")
	return dst, nil
}
