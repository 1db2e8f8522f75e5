package scoring

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/surveyforge/surveyforge/internal/lang"
)

// The environment-scan is the one test family that does not score through
// the catalog: 60 fixed items ENV001..ENV060 grouped into 15 themes of 4
// items each (positions 1-2 rate stability, 3-4 rate change velocity), all
// on a 1..9 scale. The output is two aggregate scores instead of a general
// profile map.

var envHeaderRe = regexp.MustCompile(`^ENV(\d{3})`)

var envThemes = [15]string{
	"Competition & market pressure",
	"Customers & demand",
	"Technology & innovation",
	"Regulation & legal framework",
	"Human resources & skills",
	"Financing & access to capital",
	"Suppliers & logistics",
	"Material resources & infrastructure",
	"Image & sector reputation",
	"Partnerships & networks",
	"Territory & geography",
	"Societal & cultural trends",
	"Global economic context",
	"Risk & security",
	"Growth opportunities & markets",
}

// IsEnvironmentScan reports whether a test type selects the fixed
// environment-scan scoring scheme instead of the catalog-driven path.
func IsEnvironmentScan(testType string) bool {
	key := lang.Fold(testType)
	return strings.Contains(key, "environnement") || strings.Contains(key, "environment")
}

// EnvTheme is one theme's pair of averages. A nil score means the theme's
// item pair was not fully answered.
type EnvTheme struct {
	Name          string
	Stability     *float64
	Velocity      *float64
	StabilityNote string
	VelocityNote  string
}

// EnvScan is the aggregate outcome: global stability (K) and velocity (r)
// scores on the 1..9 scale, the per-theme detail, and the quadrant title.
type EnvScan struct {
	Stability float64
	Velocity  float64
	Themes    [15]EnvTheme
	Title     string
}

func stabilityNote(x float64) string {
	switch {
	case x >= 7:
		return "Environment is mostly stable and predictable"
	case x <= 3:
		return "Environment is mostly unstable and shifting"
	default:
		return "Moderate stability with some variation"
	}
}

func velocityNote(x float64) string {
	switch {
	case x >= 7:
		return "Fast-moving, highly dynamic conditions"
	case x <= 3:
		return "Slow-moving, low-dynamic conditions"
	default:
		return "Moderate pace of change"
	}
}

func quadrantTitle(k, r float64) string {
	const hi, lo = 6.5, 3.5
	switch {
	case k >= hi && r <= lo:
		return "Stable & Slow"
	case k >= hi && r >= hi:
		return "Stable & Fast"
	case k <= lo && r >= hi:
		return "Unstable & Fast"
	case k <= lo && r <= lo:
		return "Unstable & Slow"
	case k >= r:
		return "Mostly Stable"
	default:
		return "Mostly Fast"
	}
}

// ScanEnvironment applies the fixed scheme to an answer set. Item values
// parse leniently (comma or dot); missing or unparsable items drop their
// theme pair rather than skewing the averages.
func ScanEnvironment(answers map[string]string) EnvScan {
	vals := map[int]float64{}
	for header, raw := range answers {
		m := envHeaderRe.FindStringSubmatch(header)
		if m == nil {
			continue
		}
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		if n < 1 || n > 60 {
			continue
		}
		if v, ok := parseNumber(raw); ok {
			vals[n] = v
		}
	}

	var scan EnvScan
	var sumK, sumR float64
	var nK, nR int
	for t := 0; t < 15; t++ {
		base := t * 4
		theme := EnvTheme{Name: envThemes[t]}

		if k1, ok1 := vals[base+1]; ok1 {
			if k2, ok2 := vals[base+2]; ok2 {
				k := (k1 + k2) / 2
				theme.Stability = &k
				theme.StabilityNote = stabilityNote(k)
				sumK += k
				nK++
			}
		}
		if r1, ok1 := vals[base+3]; ok1 {
			if r2, ok2 := vals[base+4]; ok2 {
				r := (r1 + r2) / 2
				theme.Velocity = &r
				theme.VelocityNote = velocityNote(r)
				sumR += r
				nR++
			}
		}
		scan.Themes[t] = theme
	}
	if nK > 0 {
		scan.Stability = round2(sumK / float64(nK))
	}
	if nR > 0 {
		scan.Velocity = round2(sumR / float64(nR))
	}
	scan.Title = quadrantTitle(scan.Stability, scan.Velocity)
	return scan
}

func round2(x float64) float64 {
	return float64(int(x*100+0.5)) / 100
}

// Scores exposes the scan as a two-profile score map (K = stability,
// r = velocity) so the downstream resolver/assembler path stays uniform.
func (s EnvScan) Scores() ScoreMap {
	return ScoreMap{"K": s.Stability, "r": s.Velocity}
}

// CodeToName labels the two aggregate codes for score-line templating.
func (s EnvScan) CodeToName() map[string]string {
	return map[string]string{"K": "Stability (K)", "r": "Velocity (r)"}
}

// Flatten renders every scan field as a flat placeholder map.
func (s EnvScan) Flatten() map[string]string {
	out := map[string]string{
		"score_stability": formatScore(s.Stability),
		"stability_note":  stabilityNote(s.Stability),
		"score_velocity":  formatScore(s.Velocity),
		"velocity_note":   velocityNote(s.Velocity),
		"profile_title":   s.Title,
	}
	for i, th := range s.Themes {
		prefix := fmt.Sprintf("theme_%d_", i+1)
		out[prefix+"name"] = th.Name
		if th.Stability != nil {
			out[prefix+"stability"] = formatScore(*th.Stability)
			out[prefix+"stability_note"] = th.StabilityNote
		} else {
			out[prefix+"stability"] = ""
			out[prefix+"stability_note"] = ""
		}
		if th.Velocity != nil {
			out[prefix+"velocity"] = formatScore(*th.Velocity)
			out[prefix+"velocity_note"] = th.VelocityNote
		} else {
			out[prefix+"velocity"] = ""
			out[prefix+"velocity_note"] = ""
		}
	}
	return out
}
