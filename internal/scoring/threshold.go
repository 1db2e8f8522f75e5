package scoring

import (
	"regexp"
	"strconv"
	"strings"
)

// Threshold expressions come in three shapes: ">= n", "<= n" and "a-b"
// (inclusive range). Anything else fails to parse and the rule is skipped.

type thresholdExpr struct {
	op       string // ">=", "<=", "range"
	min, max float64
}

var rangeRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)`)

func parseThresholdExpr(s string) (thresholdExpr, bool) {
	s = strings.TrimSpace(s)
	switch {
	case strings.Contains(s, ">="):
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.SplitN(s, ">=", 2)[1]), 64)
		if err != nil {
			return thresholdExpr{}, false
		}
		return thresholdExpr{op: ">=", min: v}, true
	case strings.Contains(s, "<="):
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.SplitN(s, "<=", 2)[1]), 64)
		if err != nil {
			return thresholdExpr{}, false
		}
		return thresholdExpr{op: "<=", max: v}, true
	default:
		m := rangeRe.FindStringSubmatch(s)
		if m == nil {
			return thresholdExpr{}, false
		}
		lo, err1 := strconv.ParseFloat(m[1], 64)
		hi, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			return thresholdExpr{}, false
		}
		return thresholdExpr{op: "range", min: lo, max: hi}, true
	}
}

func (e thresholdExpr) matches(pct float64) bool {
	switch e.op {
	case ">=":
		return pct >= e.min
	case "<=":
		return pct <= e.max
	case "range":
		return pct >= e.min && pct <= e.max
	default:
		return false
	}
}
