package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	cfg "github.com/themusiclab/infant-speech-song/config"
	"github.com/themusiclab/infant-speech-song/prosody"
)

// Analyze scores every Prosogram nucleus table in paths.prosogram_dir,
// persists the full per-session result as the JSON cache and writes the
// summary CSV (id, npvi_phrase, npvi_total).
func (p *Pipeline) Analyze(ctx context.Context) (*AnalyzeReport, error) {
	if err := p.cfg.Validate(cfg.StageNPVI); err != nil {
		return nil, err
	}
	suffix := p.cfg.NPVI.Suffix
	names, err := listFiles(p.cfg.Paths.Prosogram, func(name string) bool {
		return strings.HasSuffix(name, suffix)
	})
	if err != nil {
		return nil, fmt.Errorf("list prosogram tables: %w", err)
	}

	rep := &AnalyzeReport{}
	var errs []error
	seen := map[string]string{}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		code := prosody.ParseSessionCode(name, suffix)
		rep.Sessions++
		if prev, dup := seen[code.ID]; dup {
			rep.Failed++
			p.fail(&errs, StageNPVI, code.ID, fmt.Errorf("%w: %s and %s", ErrDuplicateSession, prev, name))
			continue
		}
		seen[code.ID] = name

		events, err := prosody.ReadFile(filepath.Join(p.cfg.Paths.Prosogram, name))
		if err != nil {
			rep.Failed++
			p.fail(&errs, StageNPVI, code.ID, err)
			continue
		}
		if err := prosody.CheckDurations(events); err != nil {
			rep.Failed++
			p.fail(&errs, StageNPVI, code.ID, err)
			continue
		}
		rec := prosody.Analyze(code, events, p.cfg.NPVI.KeepTrailingPhrase)
		log := p.sessionLog(StageNPVI, code.ID)
		if rec.DroppedEvents > 0 {
			log.WithField("dropped_events", rec.DroppedEvents).Warn("events after the last pause form no phrase and were left out")
		}
		log.WithFields(logrus.Fields{
			"events":      rec.NumEvents,
			"phrases":     len(rec.Phrases),
			"npvi_phrase": rec.PhraseNPVI.String(),
			"npvi_total":  rec.TotalNPVI.String(),
		}).Info("session scored")
		rep.Records = append(rep.Records, rec)
	}

	rep.CachePath = p.outputPath(p.cfg.NPVI.CacheFile)
	if err := persistCache(rep.CachePath, p.runID, p.cfg.Paths.Prosogram, rep.Records); err != nil {
		return rep, fmt.Errorf("persist cache: %w", err)
	}
	rep.SummaryPath = p.outputPath(p.cfg.NPVI.SummaryCSV)
	if err := writeSummary(rep.SummaryPath, rep.Records); err != nil {
		return rep, fmt.Errorf("write summary: %w", err)
	}
	return rep, joinErrs(errs)
}

// Summarize rewrites the summary CSV from the persisted cache without
// re-reading any Prosogram table.
func (p *Pipeline) Summarize(ctx context.Context) (*AnalyzeReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rep := &AnalyzeReport{CachePath: p.outputPath(p.cfg.NPVI.CacheFile)}
	bundle, err := loadCache(rep.CachePath)
	if err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}
	for _, id := range sortedKeys(bundle.Sessions) {
		rec := bundle.Sessions[id]
		rec.ID = id
		rep.Records = append(rep.Records, rec)
	}
	rep.Sessions = len(rep.Records)

	rep.SummaryPath = p.outputPath(p.cfg.NPVI.SummaryCSV)
	if err := writeSummary(rep.SummaryPath, rep.Records); err != nil {
		return rep, fmt.Errorf("write summary: %w", err)
	}
	p.log.WithFields(logrus.Fields{
		"stage":     StageNPVI,
		"sessions":  rep.Sessions,
		"cache_run": bundle.RunID,
	}).Info("summary rebuilt from cache")
	return rep, nil
}
