package catalog

import (
	"encoding/json"
	"log"
)

// Question and profile partitions are uploaded as tabular rows (one map per
// spreadsheet row, keyed by column header). These parsers are deliberately
// tolerant: a corrupt row is skipped and counted, never fatal, so a partly
// broken upload still yields a usable catalog.

// ParseQuestionRows reads rows with an "id" column and a "params" column
// holding the JSON mode payload. Rows with a missing id, unparsable params
// or no mode are dropped.
func ParseQuestionRows(rows []map[string]string) []Question {
	var out []Question
	skipped := 0
	for _, row := range rows {
		q := Question{
			ID:          row["id"],
			Title:       row["title"],
			Description: row["description"],
		}
		raw := row["params"]
		if q.ID == "" || raw == "" {
			skipped++
			continue
		}
		if err := json.Unmarshal([]byte(raw), &q.Params); err != nil {
			skipped++
			continue
		}
		q.Mode = CanonicalMode(q.Params.Mode)
		if q.Mode == "" {
			skipped++
			continue
		}
		out = append(out, q)
	}
	if skipped > 0 {
		log.Printf("catalog: question upload: skipped %d corrupt row(s)", skipped)
	}
	return out
}

// ParseProfileRows reads rows keyed on a "code" column, tolerating the
// legacy "profile" column name. "name" and "description" are lifted into
// the record; every other column lands in Extra so the output template can
// reference it.
func ParseProfileRows(rows []map[string]string) []Profile {
	var out []Profile
	for _, row := range rows {
		code := row["code"]
		if code == "" {
			code = row["profile"] // legacy column name
		}
		if code == "" {
			continue
		}
		p := Profile{Code: code, Name: row["name"], Description: row["description"]}
		for k, v := range row {
			switch k {
			case "code", "profile", "name", "description":
			default:
				if p.Extra == nil {
					p.Extra = map[string]string{}
				}
				p.Extra[k] = v
			}
		}
		out = append(out, p)
	}
	return out
}
