package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/themusiclab/infant-speech-song/audio"
	cfg "github.com/themusiclab/infant-speech-song/config"
	"github.com/themusiclab/infant-speech-song/textgrid"
)

// Export cuts every non-silent annotation interval out of its session
// recording and writes it as "{session}_{n}" under paths.export_dir, n counting
// from 1 in interval order. Recording and subclip timings go to two CSV files
// under paths.outputs.
func (p *Pipeline) Export(ctx context.Context) (*ExportReport, error) {
	if err := p.cfg.Validate(cfg.StageExport); err != nil {
		return nil, err
	}
	names, err := listFiles(p.cfg.Paths.Annotations, hasExt(p.cfg.Export.AnnotationExt))
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}

	rep := &ExportReport{}
	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		session := stem(name)
		rep.Sessions++
		clip, subs, err := p.exportSession(session, filepath.Join(p.cfg.Paths.Annotations, name))
		if err != nil {
			rep.Failed++
			p.fail(&errs, StageExport, session, err)
			continue
		}
		rep.ClipTimes = append(rep.ClipTimes, clip)
		rep.SubclipTimes = append(rep.SubclipTimes, subs...)
		rep.Subclips += len(subs)
	}

	if err := writeClipTimes(p.outputPath(p.cfg.Export.ClipTimesCSV), rep.ClipTimes); err != nil {
		return rep, fmt.Errorf("write clip times: %w", err)
	}
	if err := writeSubclipTimes(p.outputPath(p.cfg.Export.SubclipTimesCSV), rep.SubclipTimes); err != nil {
		return rep, fmt.Errorf("write subclip times: %w", err)
	}
	return rep, joinErrs(errs)
}

func (p *Pipeline) exportSession(session, gridPath string) (_ ClipTime, _ []SubclipTime, err error) {
	log := p.sessionLog(StageExport, session)

	src := filepath.Join(p.cfg.Paths.Audio, session+p.cfg.Export.AudioExt)
	clip, err := audio.Read(src)
	if err != nil {
		return ClipTime{}, nil, fmt.Errorf("read audio: %w", err)
	}
	orig := ClipTime{ID: session, Length: clip.Duration()}
	log.WithField("length", orig.Length).Debug("loaded recording")

	grid, err := textgrid.ReadFile(gridPath)
	if err != nil {
		return ClipTime{}, nil, fmt.Errorf("read annotation: %w", err)
	}
	tier, err := grid.Tier(p.cfg.Export.Tier)
	if err != nil {
		return ClipTime{}, nil, err
	}
	ivs := tier.Labeled()
	if err := checkOrder(ivs); err != nil {
		return ClipTime{}, nil, err
	}
	if len(ivs) == 0 {
		log.Warn("no labeled intervals, nothing to export")
	}

	// A half-exported session would be concatenated without its tail.
	var written []string
	defer func() {
		if err == nil {
			return
		}
		for _, w := range written {
			if rmErr := os.Remove(w); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				log.WithError(rmErr).WithField("file", filepath.Base(w)).Warn("could not remove partial subclip")
			}
		}
	}()

	subs := make([]SubclipTime, 0, len(ivs))
	for i, iv := range ivs {
		id := subclipName(session, i+1)
		cut, err := clip.Cut(iv.XMin, iv.XMax).WithBitDepth(p.cfg.Audio.BitDepth)
		if err != nil {
			return ClipTime{}, nil, fmt.Errorf("%s: %w", id, err)
		}
		dst := filepath.Join(p.cfg.Paths.Export, id+p.cfg.Export.AudioExt)
		if err = audio.Write(dst, cut); err != nil {
			return ClipTime{}, nil, fmt.Errorf("write %s: %w", id, err)
		}
		written = append(written, dst)
		subs = append(subs, SubclipTime{ID: id, Length: iv.XMax - iv.XMin, Beg: iv.XMin, End: iv.XMax})
	}
	log.WithField("subclips", len(subs)).Info("subclips exported")
	return orig, subs, nil
}
