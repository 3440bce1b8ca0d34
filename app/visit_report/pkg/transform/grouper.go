package transform

import (
	"strings"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/catalog"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/model"
)

// BulletPrefix glyph in front of every list entry of the report
const BulletPrefix = "➤ "

// Grouping companies found in the slots and the titles they consumed
type Grouping struct {
	Companies []model.CompanyRecord
	Consumed  model.Set
}

// IndexByTitle builds the title -> answer index used for slot lookups.
// Unreadable items are left out; a repeated title keeps the later answer.
func IndexByTitle(answers []model.Answer) map[string]model.Answer {
	index := make(map[string]model.Answer, len(answers))
	for _, a := range answers {
		if _, bad := a.Value.InvalidReason(); bad || a.Title == "" {
			continue
		}
		index[a.Title] = a
	}
	return index
}

// GroupCompanies scans every slot independently: an empty slot k does not
// stop slot k+1 from being read. All titles of every slot are marked consumed
// whether or not the slot held a company.
func GroupCompanies(slots int, index map[string]model.Answer) Grouping {
	g := Grouping{Consumed: model.NewSet()}
	for i := 1; i <= slots; i++ {
		titles := catalog.Slot(i)
		g.Consumed.Add(titles.Titles()...)

		name := strings.TrimSpace(rawOf(index, titles.Name))
		if name == "" {
			continue
		}
		g.Companies = append(g.Companies, model.CompanyRecord{
			Slot:             i,
			Name:             name,
			TaxID:            rawOf(index, titles.TaxID),
			ContactPerson:    rawOf(index, titles.ContactPerson),
			ContactRole:      rawOf(index, titles.ContactRole),
			ContactEmail:     rawOf(index, titles.ContactEmail),
			InterventionRole: rawOf(index, titles.InterventionRole),
			WorkScope:        bulletList(itemsOf(index, titles.WorkScope)),
		})
	}
	return g
}

func rawOf(index map[string]model.Answer, title string) string {
	a, ok := index[title]
	if !ok {
		return ""
	}
	return a.Value.Raw()
}

func itemsOf(index map[string]model.Answer, title string) []string {
	a, ok := index[title]
	if !ok {
		return nil
	}
	if a.Value.IsList() {
		return a.Value.Items()
	}
	if raw := a.Value.Raw(); raw != "" {
		return []string{raw}
	}
	return nil
}

// bulletList drops blank entries and joins the rest one per line
func bulletList(items []string) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		lines = append(lines, BulletPrefix+it)
	}
	return strings.Join(lines, "\n")
}

// inlineList joins non blank entries with a comma
func inlineList(items []string) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it != "" {
			parts = append(parts, it)
		}
	}
	return strings.Join(parts, ", ")
}
