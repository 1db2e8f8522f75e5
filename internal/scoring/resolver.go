package scoring

import (
	"sort"

	"github.com/surveyforge/surveyforge/internal/catalog"
	"github.com/surveyforge/surveyforge/internal/lang"
)

// Undetermined is the final-profile sentinel for an empty score map. It is a
// normal terminal state, not a fault: an empty answer set resolves to it
// without error.
const Undetermined = ""

// Resolution is the resolver's output: the final profile code and, for the
// threshold strategy, the matched rule's recommendation text.
type Resolution struct {
	Profile        string
	Recommendation string
}

// Dichotomy axes of the 4-axis personality scheme. Ties go to the second
// pole of each pair.
var dichotomyAxes = [4][2]string{{"E", "I"}, {"S", "N"}, {"T", "F"}, {"J", "P"}}

// Test families with a dedicated resolution strategy. Names are compared in
// folded form, so spreadsheet-side case and accent drift is harmless.
var (
	dichotomyTestTypes = map[string]bool{"mbti": true}
	thresholdTestTypes = map[string]bool{
		"r&k_adaptabilite": true,
		"r&k_resilience":   true,
		"r&k_creativite":   true,
	}
)

// ResolveProfile derives the single final profile from an accumulated score
// map. Exactly one strategy applies per test type: dichotomy for the 4-axis
// scheme, the threshold table for the threshold family, majority otherwise.
func ResolveProfile(scores ScoreMap, testType string, thresholds []catalog.ThresholdRule) Resolution {
	if len(scores) == 0 {
		return Resolution{Profile: Undetermined}
	}
	key := lang.Fold(testType)
	switch {
	case dichotomyTestTypes[key]:
		return Resolution{Profile: resolveDichotomy(scores)}
	case thresholdTestTypes[key]:
		return resolveThreshold(scores, thresholds)
	default:
		return Resolution{Profile: majorityProfile(scores)}
	}
}

// resolveDichotomy picks the higher-scoring pole of each axis and
// concatenates the four pole letters. Total over any score map: absent
// poles count zero, so the result is always a 4-letter code.
func resolveDichotomy(scores ScoreMap) string {
	code := make([]byte, 0, 4)
	for _, axis := range dichotomyAxes {
		if scores[axis[0]] > scores[axis[1]] {
			code = append(code, axis[0][0])
		} else {
			code = append(code, axis[1][0])
		}
	}
	return string(code)
}

// majorityProfile returns the profile with the strictly highest score.
// Ties break to the lexicographically smallest code: deterministic and
// independent of map iteration order.
func majorityProfile(scores ScoreMap) string {
	codes := make([]string, 0, len(scores))
	for code := range scores {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	best := codes[0]
	for _, code := range codes[1:] {
		if scores[code] > scores[best] {
			best = code
		}
	}
	return best
}

// resolveThreshold refines the majority profile through the ordered
// threshold table: the first rule bound to the majority code, addressed to
// the respondent on the develop-potential axis, and whose expression holds
// for the majority's percentage of the total wins. No matching rule falls
// back to the raw majority code.
func resolveThreshold(scores ScoreMap, rules []catalog.ThresholdRule) Resolution {
	majority := majorityProfile(scores)
	total := scores.Total()
	if total == 0 {
		return Resolution{Profile: Undetermined}
	}
	pct := scores[majority] / total * 100

	for _, rule := range rules {
		if lang.Fold(rule.Code) != lang.Fold(majority) {
			continue
		}
		if rule.Audience != "" && rule.Audience != catalog.AudienceRespondent {
			continue
		}
		if rule.Axis != "" && rule.Axis != catalog.AxisDevelopPotential {
			continue
		}
		expr, ok := parseThresholdExpr(rule.Expr)
		if !ok || !expr.matches(pct) {
			continue
		}
		return Resolution{Profile: rule.Profile, Recommendation: rule.Recommendation}
	}
	return Resolution{Profile: majority}
}
