// Package factory turns a question catalog plus a deployment config into a
// renderable form definition, and owns the deployment lifecycle around it.
package factory

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/surveyforge/surveyforge/internal/catalog"
	"github.com/surveyforge/surveyforge/internal/lang"
)

// Item kinds a renderer has to know about.
const (
	ItemChoice    = "choice"    // single select
	ItemCheckbox  = "checkbox"  // multi select
	ItemScale     = "scale"     // bounded numeric scale
	ItemText      = "text"      // short free text
	ItemEmail     = "email"     // short text with email validation
	ItemParagraph = "paragraph" // long free text, also the error placeholder
	ItemPageBreak = "page_break"
)

// Item is one renderable form element.
type Item struct {
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Choices     []string `json:"choices,omitempty"`
	Min         int      `json:"min,omitempty"`
	Max         int      `json:"max,omitempty"`
	LabelMin    string   `json:"label_min,omitempty"`
	LabelMax    string   `json:"label_max,omitempty"`
	Required    bool     `json:"required"`
}

// Page groups the items shown for one language.
type Page struct {
	Title    string `json:"title"`
	LangCode string `json:"lang"`
	Items    []Item `json:"items"`
}

// FormDef is the complete generated form: optional meta items, then a
// required language selector whose choices route to the per-language pages.
type FormDef struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	MetaItems    []Item `json:"meta_items,omitempty"`
	LanguageItem Item   `json:"language_item"`
	Pages        []Page `json:"pages"`
}

// FileLinker resolves a document name to a shareable URL for [FILE_LINK:...]
// placeholders in question descriptions.
type FileLinker interface {
	Link(ctx context.Context, name string) (string, error)
}

// Builder generates form definitions from the catalog.
type Builder struct {
	Store  catalog.Store
	Files  FileLinker
	Logger *log.Logger
}

func NewBuilder(store catalog.Store, files FileLinker, logger *log.Logger) *Builder {
	return &Builder{Store: store, Files: files, Logger: logger}
}

// metaPartition is the catalog partition holding shared intro questions
// (identity, email) included ahead of the language selector.
const (
	metaTestType = "META"
	metaLang     = "FR"
)

// Build assembles the form for a deployment. Every language the catalog
// carries for the test type gets its own page; a catalog with no languages
// for the type is an error because the form would be empty.
func (b *Builder) Build(ctx context.Context, d Deployment) (FormDef, error) {
	codes, err := b.Store.Languages(ctx, d.TestType)
	if err != nil {
		return FormDef{}, err
	}
	if len(codes) == 0 {
		return FormDef{}, fmt.Errorf("factory: no question catalog for test type %q", d.TestType)
	}

	def := FormDef{Title: d.Title, Description: d.Subtitle}

	if len(d.MetaIDs) > 0 {
		def.MetaItems, err = b.buildMetaItems(ctx, d.MetaIDs)
		if err != nil {
			return FormDef{}, err
		}
	}

	selector := Item{Kind: ItemChoice, Title: "Langue / Language", Required: true}
	for _, code := range codes {
		questions, err := b.Store.ListQuestions(ctx, d.TestType, code)
		if err != nil {
			return FormDef{}, err
		}
		limit := len(questions)
		if d.MaxQuestions > 0 && d.MaxQuestions < limit {
			limit = d.MaxQuestions
		}
		if limit == 0 {
			continue
		}
		name := lang.LanguageName(code)
		page := Page{Title: "Questions (" + name + ")", LangCode: code}
		for _, q := range questions[:limit] {
			page.Items = append(page.Items, b.buildItem(ctx, q.ID+": "+q.Title, q.Mode, q.Description, q.Params))
		}
		selector.Choices = append(selector.Choices, name)
		def.Pages = append(def.Pages, page)
	}

	def.LanguageItem = selector
	return def, nil
}

func (b *Builder) buildMetaItems(ctx context.Context, ids []string) ([]Item, error) {
	questions, err := b.Store.ListQuestions(ctx, metaTestType, metaLang)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]catalog.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	var out []Item
	for _, id := range ids {
		q, ok := byID[strings.TrimSpace(id)]
		if !ok {
			b.logf("factory: meta question %s not in catalog, skipped", id)
			continue
		}
		out = append(out, b.buildItem(ctx, q.Title, q.Mode, q.Description, q.Params))
	}
	return out, nil
}

// Meta item modes outside the scoring set.
const (
	modeEmail     = "EMAIL"
	modeShortText = "TEXTE_COURT"
)

// buildItem maps one catalog question to a form item. Incomplete parameters
// never abort the build; the question becomes a visible paragraph placeholder
// so the operator sees exactly which row to fix.
func (b *Builder) buildItem(ctx context.Context, title, mode, description string, p catalog.Params) Item {
	description = b.resolveFileLinks(ctx, description)
	choices := choiceLabels(p)

	var item Item
	switch {
	case strings.HasPrefix(mode, "QRM"):
		if len(choices) == 0 {
			return Item{Kind: ItemParagraph, Title: "[Erreur QRM: Options manquantes] " + title}
		}
		item = Item{Kind: ItemCheckbox, Title: title, Choices: choices, Required: true}

	case strings.HasPrefix(mode, "QCU"):
		if len(choices) == 0 {
			return Item{Kind: ItemParagraph, Title: "[Erreur QCU: Options manquantes] " + title}
		}
		item = Item{Kind: ItemChoice, Title: title, Choices: choices, Required: true}

	case mode == catalog.ModeScale:
		if p.Min == nil || p.Max == nil {
			return Item{Kind: ItemParagraph, Title: "[Erreur ECHELLE_NOTE: Paramètres incomplets (min/max)] " + title}
		}
		item = Item{Kind: ItemScale, Title: title, Min: int(*p.Min), Max: int(*p.Max), Required: true}
		if p.LabelMin != "" && p.LabelMax != "" {
			item.LabelMin, item.LabelMax = p.LabelMin, p.LabelMax
		}
		// scale labels take the description slot
		return item

	case mode == catalog.ModeLikert5:
		if len(choices) == 0 {
			return Item{Kind: ItemParagraph, Title: "[Erreur LIKERT_5: Options manquantes] " + title}
		}
		item = Item{Kind: ItemChoice, Title: title, Choices: choices, Required: true}

	case mode == modeEmail:
		item = Item{Kind: ItemEmail, Title: title, Required: true}

	case mode == modeShortText:
		item = Item{Kind: ItemText, Title: title, Required: true}

	default:
		return Item{Kind: ItemParagraph, Title: "[Type Inconnu: " + mode + "] " + title}
	}

	item.Description = description
	return item
}

func choiceLabels(p catalog.Params) []string {
	var out []string
	for _, o := range p.Options {
		if s := strings.TrimSpace(o.Label); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var fileLinkRe = regexp.MustCompile(`\[FILE_LINK:(.*?)\]`)

// resolveFileLinks replaces the first [FILE_LINK:Name] placeholder with the
// document's URL. A name that cannot be resolved is replaced with a visible
// error marker rather than dropped.
func (b *Builder) resolveFileLinks(ctx context.Context, description string) string {
	m := fileLinkRe.FindStringSubmatch(description)
	if m == nil {
		return description
	}
	name := strings.TrimSpace(m[1])
	if b.Files == nil {
		return strings.Replace(description, m[0], "[ERREUR: aucun annuaire de fichiers]", 1)
	}
	url, err := b.Files.Link(ctx, name)
	if err != nil {
		b.logf("factory: resolving file link %q: %v", name, err)
		return strings.Replace(description, m[0],
			fmt.Sprintf("[ERREUR: Fichier '%s' introuvable]", name), 1)
	}
	return strings.Replace(description, m[0], url, 1)
}

func (b *Builder) logf(format string, args ...interface{}) {
	if b.Logger != nil {
		b.Logger.Printf(format, args...)
	}
}
