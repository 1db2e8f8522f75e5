package scoring

import (
	"sort"
	"strconv"

	"github.com/surveyforge/surveyforge/internal/catalog"
)

// Result is the flat record handed to the report composer. Built once per
// answer set, consumed immediately, never persisted by the engine.
type Result struct {
	Scores         ScoreMap          `json:"scores"`
	Profile        string            `json:"profile_final"`
	Recommendation string            `json:"recommendation,omitempty"`
	CodeToName     map[string]string `json:"code_to_name"`
	// Fields carries the merged display metadata plus the resolver's own
	// flat fields, with the precedence AssembleResult defines.
	Fields map[string]string `json:"fields"`
}

// AssembleResult merges the resolver outcome with the final profile's
// display metadata. Precedence is explicit: profile metadata is laid down
// first, resolver and score fields overwrite on collision.
func AssembleResult(scores ScoreMap, res Resolution, profiles map[string]catalog.Profile) Result {
	r := Result{
		Scores:         scores,
		Profile:        res.Profile,
		Recommendation: res.Recommendation,
		CodeToName:     codeToName(profiles),
		Fields:         map[string]string{},
	}

	// Layer 1: the matched profile's metadata.
	if p, ok := profiles[res.Profile]; ok {
		for k, v := range p.Extra {
			r.Fields[k] = v
		}
		r.Fields["profile_code"] = p.Code
		r.Fields["profile_name"] = p.Name
		r.Fields["profile_description"] = p.Description
	}

	// Layer 2: resolver output and per-profile scores win on collision.
	r.Fields["profile_final"] = res.Profile
	if res.Recommendation != "" {
		r.Fields["recommendation"] = res.Recommendation
	}
	for code, score := range scores {
		r.Fields["score_"+code] = formatScore(score)
	}
	return r
}

// ScoreLines returns (code, name, score) triples sorted by descending
// score, ties by code, for score-line templating.
type ScoreLine struct {
	Code  string
	Name  string
	Score float64
}

func (r Result) ScoreLines() []ScoreLine {
	lines := make([]ScoreLine, 0, len(r.Scores))
	for code, score := range r.Scores {
		name := r.CodeToName[code]
		if name == "" {
			name = code
		}
		lines = append(lines, ScoreLine{Code: code, Name: name, Score: score})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Score != lines[j].Score {
			return lines[i].Score > lines[j].Score
		}
		return lines[i].Code < lines[j].Code
	})
	return lines
}

// Flatten returns the placeholder map for {{key}} substitution.
func (r Result) Flatten() map[string]string {
	out := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		out[k] = v
	}
	return out
}

func codeToName(profiles map[string]catalog.Profile) map[string]string {
	out := make(map[string]string, len(profiles))
	for code, p := range profiles {
		if p.Name != "" {
			out[code] = p.Name
		} else {
			out[code] = code
		}
	}
	return out
}

// formatScore prints a score without a trailing ".0" on whole numbers.
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
