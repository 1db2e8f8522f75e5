// Package lang canonicalizes free-text answers, option labels and language
// codes so that lookups survive the variance of user and host input
// ("Café" / "cafe " / "CAFÉ" all compare equal).
package lang

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD and drops the combining marks, which removes
// diacritics without touching the base letters.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var punctFolder = strings.NewReplacer(
	"’", "'", "‘", "'", "ʼ", "'", "´", "'", "`", "'",
	"“", `"`, "”", `"`, "«", `"`, "»", `"`,
	"–", "-", "—", "-", "−", "-",
	" ", " ",
)

// Fold returns the canonical comparison form of s: diacritics stripped,
// quote/dash variants unified, whitespace collapsed, lowercased. Fold is
// idempotent.
func Fold(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	out = punctFolder.Replace(out)
	out = strings.Join(strings.Fields(out), " ")
	return strings.ToLower(out)
}

var languageNames = map[string]string{
	"francais": "FR",
	"french":   "FR",
	"fr":       "FR",
	"english":  "EN",
	"anglais":  "EN",
	"en":       "EN",
	"espanol":  "ES",
	"spanish":  "ES",
	"es":       "ES",
	"deutsch":  "DE",
	"german":   "DE",
	"de":       "DE",
}

var languageFullNames = map[string]string{
	"FR": "Français",
	"EN": "English",
	"ES": "Español",
	"DE": "Deutsch",
}

// LanguageCode maps a free-form language name or code ("Français", "french",
// "fr") to its canonical 2-letter uppercase code. Unrecognized input is
// trimmed, uppercased and returned as-is: the caller stays in charge of
// deciding whether an unknown language is an error.
func LanguageCode(s string) string {
	if code, ok := languageNames[Fold(s)]; ok {
		return code
	}
	return strings.ToUpper(strings.TrimSpace(s))
}

// LanguageName returns the display name for a canonical language code, or
// the code itself when unknown.
func LanguageName(code string) string {
	if name, ok := languageFullNames[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return name
	}
	return code
}

// CleanHeader turns an arbitrary answer header into a placeholder-safe key:
// diacritics are stripped and each non [A-Za-z0-9_] rune becomes one
// underscore (runs are not collapsed). Headers that already carry a question id
// ("Q12: ...") should be left alone by the caller; this is for the free-form
// metadata columns (names, emails, timestamps).
func CleanHeader(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	var b strings.Builder
	b.Grow(len(out))
	for _, r := range out {
		if r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		} else {
			// one underscore per replaced rune, so "Langue / Language"
			// keys as Langue___Language and stays stable across reruns
			b.WriteByte('_')
		}
	}
	return b.String()
}
