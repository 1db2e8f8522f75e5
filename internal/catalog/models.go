// Package catalog loads the per-(test type, language) question, profile and
// threshold definitions that drive scoring. Catalogs are immutable once
// loaded: loaders hand out fresh maps and never share mutable state between
// scoring runs.
package catalog

import "strings"

// Processing modes, as stored in question parameter payloads. Comparison is
// never done on the raw string: CanonicalMode is applied at load time.
const (
	ModeDirect  = "QCU_DIRECT"   // raw answer value is the score contribution
	ModeSingle  = "QCU_CAT"      // single choice, option carries profile+value
	ModeMulti   = "QRM_CAT"      // multi choice, comma-separated raw answer
	ModeScale   = "ECHELLE_NOTE" // numeric scale into one profile
	ModeLikert5 = "LIKERT_5"     // 5-point scale, numeric or mapped label
)

// CanonicalMode uppercases and collapses inner whitespace so that mode
// dispatch is insensitive to how the mode was typed in the backing store.
func CanonicalMode(mode string) string {
	return strings.ToUpper(strings.Join(strings.Fields(mode), " "))
}

// Option is one selectable choice of a QCU_CAT / QRM_CAT / LIKERT_5 question.
// Value is a pointer because its absence matters: single-choice matching
// defaults a missing value to 1, multi-choice ignores the option entirely.
type Option struct {
	Label   string   `json:"label"`
	Profile string   `json:"profile,omitempty"`
	Value   *float64 `json:"value,omitempty"`
}

// Params is the mode-tagged parameter payload embedded in each question row.
// Which fields are meaningful depends on Mode.
type Params struct {
	Mode    string   `json:"mode"`
	Profile string   `json:"profile,omitempty"`
	Options []Option `json:"options,omitempty"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	// Scale endpoint labels, only used when rendering forms.
	LabelMin string `json:"label_min,omitempty"`
	LabelMax string `json:"label_max,omitempty"`
}

// Question is one scored item of a catalog partition. Mode is the canonical
// form of Params.Mode, resolved once at load time.
type Question struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Mode        string `json:"mode"`
	Params      Params `json:"params"`
}

// Profile is a named outcome category. Extra carries whatever additional
// display columns the partition defines; the result assembler merges them
// into the flat result record for templating.
type Profile struct {
	Code        string            `json:"code"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// ThresholdRule is one ordered row of a threshold table. Code names the
// majority profile the rule applies to; Audience and Axis narrow the rule to
// a recipient/reading ("" matches anything); Expr is ">= n", "<= n" or "a-b"
// over the majority profile's percentage of the total score.
type ThresholdRule struct {
	Code           string `json:"code"`
	Audience       string `json:"audience,omitempty"`
	Axis           string `json:"axis,omitempty"`
	Expr           string `json:"expr"`
	Profile        string `json:"profile"`
	Recommendation string `json:"recommendation,omitempty"`
}

// Rule tags used by the profile resolver's threshold strategy.
const (
	AudienceRespondent   = "respondent"
	AxisDevelopPotential = "develop_potential"
)
