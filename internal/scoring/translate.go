package scoring

import (
	"strings"

	"github.com/surveyforge/surveyforge/internal/catalog"
)

// ScoreTranslated scores answers given in one language against the catalog
// of another: each selected option is located in the origin catalog (folded
// label, then index fallback) and mapped onto the target catalog's option at
// the same position, which is then scored under the target question's mode.
//
// Positional alignment between origin and target option lists is assumed,
// not verified. A mismatched pair of catalogs silently scores the wrong
// option; see DESIGN.md.
func (e *Engine) ScoreTranslated(answers map[string]string, origin, target map[string]catalog.Question) ScoreMap {
	scores := ScoreMap{}
	dbg := newDebugLog(e.logger)
	for header, raw := range answers {
		id := QuestionID(header)
		if id == "" {
			continue
		}
		tq, ok := target[id]
		if !ok {
			continue
		}

		// Numeric modes carry no labels, so they score directly against the
		// target parameters.
		if tq.Mode == catalog.ModeScale || tq.Mode == catalog.ModeDirect {
			if fn, ok := strategies[tq.Mode]; ok {
				fn(raw, tq.Params, scores, dbg)
			}
			continue
		}

		oq, ok := origin[id]
		if !ok || len(oq.Params.Options) == 0 || len(tq.Params.Options) == 0 {
			dbg.notef("untranslatable", "question %s has no origin options to translate from", id)
			continue
		}
		fn, ok := strategies[tq.Mode]
		if !ok {
			dbg.notef("unknown-mode", "question %s: unknown mode %q", id, tq.Mode)
			continue
		}
		for _, token := range strings.Split(raw, ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			_, idx, ok := matchOption(token, oq.Params.Options)
			if !ok {
				dbg.notef("unmatched", "answer token %q matches no origin option", token)
				continue
			}
			if idx >= len(tq.Params.Options) {
				dbg.notef("untranslatable", "question %s: origin option %d has no target counterpart", id, idx+1)
				continue
			}
			fn(tq.Params.Options[idx].Label, tq.Params, scores, dbg)
		}
	}
	return scores
}
