// Package scoring maps a raw survey answer set onto a profile score map and
// derives the single final profile. One scoring run is one synchronous pass:
// the engine builds a fresh ScoreMap per invocation and shares nothing
// between runs.
package scoring

import (
	"log"
	"strconv"
	"strings"

	"github.com/surveyforge/surveyforge/internal/catalog"
	"github.com/surveyforge/surveyforge/internal/lang"
)

// ScoreMap accumulates numeric scores per profile code over one run.
type ScoreMap map[string]float64

// Total returns the sum of all accumulated scores.
func (s ScoreMap) Total() float64 {
	t := 0.0
	for _, v := range s {
		t += v
	}
	return t
}

// strategy applies one answer to the score map under a question's params.
type strategy func(raw string, p catalog.Params, scores ScoreMap, dbg *debugLog)

// Dispatch table, keyed by canonical mode. Modes are canonicalized once at
// catalog load, so scoring an answer is a single map lookup.
var strategies = map[string]strategy{
	catalog.ModeDirect:  scoreDirect,
	catalog.ModeSingle:  scoreSingleChoice,
	catalog.ModeMulti:   scoreMultiChoice,
	catalog.ModeScale:   scoreScale,
	catalog.ModeLikert5: scoreLikert5,
}

// Engine scores answer sets against a loaded question catalog.
type Engine struct {
	logger *log.Logger
}

func NewEngine(logger *log.Logger) *Engine {
	return &Engine{logger: logger}
}

// QuestionID extracts the question id from an answer header of the form
// "<id>: <free text>". Headers without a colon are not question answers.
func QuestionID(header string) string {
	id, _, found := strings.Cut(header, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(id)
}

// Score runs every answer through its question's mode strategy and returns
// the accumulated score map. Answers without a catalog question, with an
// unknown mode, or that match no option contribute nothing; scoring always
// completes.
func (e *Engine) Score(answers map[string]string, questions map[string]catalog.Question) ScoreMap {
	scores := ScoreMap{}
	dbg := newDebugLog(e.logger)
	for header, raw := range answers {
		id := QuestionID(header)
		if id == "" {
			continue
		}
		q, ok := questions[id]
		if !ok {
			continue
		}
		fn, ok := strategies[q.Mode]
		if !ok {
			dbg.notef("unknown-mode", "question %s: unknown mode %q", id, q.Mode)
			continue
		}
		fn(raw, q.Params, scores, dbg)
	}
	return scores
}

// parseNumber reads a decimal leniently: comma or dot separator, surrounding
// text after the first field tolerated ("3,5", "3.5", "4 - agree").
func parseNumber(raw string) (float64, bool) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	if fields := strings.Fields(s); len(fields) > 0 {
		if v, err := strconv.ParseFloat(fields[0], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

// matchOption resolves a raw answer against an options list: first by folded
// label equality, then treating the answer as a 1-based index into the list.
func matchOption(raw string, options []catalog.Option) (catalog.Option, int, bool) {
	folded := lang.Fold(raw)
	for i, opt := range options {
		if lang.Fold(opt.Label) == folded {
			return opt, i, true
		}
	}
	if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], n - 1, true
	}
	return catalog.Option{}, -1, false
}

// scoreDirect assigns the raw numeric value to the configured profile.
// Direct assignment overwrites: a later answer for the same profile replaces
// the earlier one instead of accumulating.
func scoreDirect(raw string, p catalog.Params, scores ScoreMap, dbg *debugLog) {
	if p.Profile == "" {
		return
	}
	v, ok := parseNumber(raw)
	if !ok {
		dbg.notef("unparsable-direct", "direct answer %q for profile %s is not numeric", raw, p.Profile)
		return
	}
	scores[p.Profile] = v
}

// scoreSingleChoice accumulates the matched option's value (default 1) into
// the option's profile.
func scoreSingleChoice(raw string, p catalog.Params, scores ScoreMap, dbg *debugLog) {
	if raw == "" || len(p.Options) == 0 {
		return
	}
	opt, _, ok := matchOption(raw, p.Options)
	if !ok {
		dbg.notef("unmatched", "answer %q matches no option", raw)
		return
	}
	if opt.Profile == "" {
		return
	}
	v := 1.0
	if opt.Value != nil {
		v = *opt.Value
	}
	scores[opt.Profile] += v
}

// scoreMultiChoice splits the raw answer on commas and applies the
// single-choice rule to each token independently. Selecting the same option
// twice accumulates twice. Options without an explicit value are ignored
// here: a multi-select catalog must weight its options.
func scoreMultiChoice(raw string, p catalog.Params, scores ScoreMap, dbg *debugLog) {
	if raw == "" || len(p.Options) == 0 {
		return
	}
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		opt, _, ok := matchOption(token, p.Options)
		if !ok {
			dbg.notef("unmatched", "answer token %q matches no option", token)
			continue
		}
		if opt.Profile == "" || opt.Value == nil {
			continue
		}
		scores[opt.Profile] += *opt.Value
	}
}

// scoreScale accumulates the numeric answer into the mode's profile.
func scoreScale(raw string, p catalog.Params, scores ScoreMap, dbg *debugLog) {
	if p.Profile == "" {
		return
	}
	v, ok := parseNumber(raw)
	if !ok {
		dbg.notef("unparsable-scale", "scale answer %q is not numeric", raw)
		return
	}
	scores[p.Profile] += v
}

// scoreLikert5 accepts either a numeric point value or one of the mapped
// labels; labels without an explicit value score their 1-based position.
func scoreLikert5(raw string, p catalog.Params, scores ScoreMap, dbg *debugLog) {
	if v, ok := parseNumber(raw); ok && p.Profile != "" {
		scores[p.Profile] += v
		return
	}
	if len(p.Options) == 0 {
		dbg.notef("unparsable-scale", "likert answer %q is not numeric and no labels are mapped", raw)
		return
	}
	opt, idx, ok := matchOption(raw, p.Options)
	if !ok {
		dbg.notef("unmatched", "likert answer %q matches no label", raw)
		return
	}
	profile := opt.Profile
	if profile == "" {
		profile = p.Profile
	}
	if profile == "" {
		return
	}
	v := float64(idx + 1)
	if opt.Value != nil {
		v = *opt.Value
	}
	scores[profile] += v
}
