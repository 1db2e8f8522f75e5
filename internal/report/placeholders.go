package report

import "strings"

// Substitute replaces every "{{key}}" occurrence with its value from data.
// Unknown placeholders are left in place so a half-filled template is
// visible in the output instead of silently blank.
func Substitute(s string, data map[string]string) string {
	if s == "" || len(data) == 0 {
		return s
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
