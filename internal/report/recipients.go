package report

import "strings"

// RecipientConfig mirrors the deployment row's delivery switches: each
// audience has an address and an on/off flag, the developer address is
// always copied when set, and Overrides (used by manual reprocessing)
// replaces the switch-driven selection entirely.
type RecipientConfig struct {
	Respondent        string
	RespondentEnabled bool
	Trainer           string
	TrainerEnabled    bool
	Boss              string
	BossEnabled       bool
	Developer         string
	Overrides         []string
}

// Resolve returns the unique recipient list in a stable order.
func (c RecipientConfig) Resolve() []string {
	var out []string
	seen := map[string]bool{}
	add := func(addr string) {
		addr = strings.TrimSpace(addr)
		if addr == "" || seen[strings.ToLower(addr)] {
			return
		}
		seen[strings.ToLower(addr)] = true
		out = append(out, addr)
	}

	if len(c.Overrides) > 0 {
		for _, addr := range c.Overrides {
			add(addr)
		}
	} else {
		if c.RespondentEnabled {
			add(c.Respondent)
		}
		if c.BossEnabled {
			add(c.Boss)
		}
		if c.TrainerEnabled {
			add(c.Trainer)
		}
	}
	add(c.Developer)
	return out
}

// Headers the respondent's address may hide behind once cleaned for
// placeholder use. Checked in order.
var respondentEmailKeys = []string{
	"Votre_adresse_e_mail",
	"Adresse_e_mail",
	"Your_email_address",
	"Email_address",
	"email",
}

// RespondentEmail pulls the respondent's address out of the flattened
// answer data, or "" when none of the known header variants is present.
func RespondentEmail(data map[string]string) string {
	for _, key := range respondentEmailKeys {
		if v := strings.TrimSpace(data[key]); v != "" {
			return v
		}
	}
	return ""
}
