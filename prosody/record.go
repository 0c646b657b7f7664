package prosody

// Record is the per-session analysis result.
type Record struct {
	SessionCode
	Events        []Event  `json:"events"`
	Phrases       []Phrase `json:"phrases"`
	PhraseNPVI    Score    `json:"npvi_phrase"`
	TotalNPVI     Score    `json:"npvi_total"`
	NumEvents     int      `json:"npvi_num_events"`
	DroppedEvents int      `json:"dropped_events"`
}

// Analyze segments one session into phrases and scores it. PhraseNPVI is the
// mean over phrases with a defined score; TotalNPVI treats the whole session
// as a single phrase and ignores pauses.
func Analyze(code SessionCode, events []Event, keepTrailing bool) Record {
	phrases, trailing := SplitPhrases(events, keepTrailing)
	scores := make([]Score, len(phrases))
	for i, p := range phrases {
		scores[i] = p.NPVI
	}
	rec := Record{
		SessionCode: code,
		Events:      events,
		Phrases:     phrases,
		PhraseNPVI:  Mean(scores),
		TotalNPVI:   NPVI(events),
		NumEvents:   len(events),
	}
	if !keepTrailing {
		rec.DroppedEvents = len(trailing)
	}
	return rec
}
