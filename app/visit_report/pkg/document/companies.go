package document

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/model"
)

// CompanyAnchor element id of a company heading
func CompanyAnchor(c model.CompanyRecord) string {
	return fmt.Sprintf("empresa-%d", c.Slot)
}

// insertCompanies replaces the companies placeholder with one block per
// record and returns the anchor of each company name
func (r *Renderer) insertCompanies(root *html.Node, companies []model.CompanyRecord) map[string]string {
	anchors := make(map[string]string, len(companies))
	nodes := textNodes(root, CompaniesToken)
	if len(nodes) == 0 {
		if len(companies) > 0 {
			r.log.Warnf("%s not found in template", CompaniesToken)
		}
		return anchors
	}

	n := nodes[0]
	at := ancestor(n, anchorTags)
	if at == nil {
		at = n
	}
	for i, c := range companies {
		for _, block := range companyBlock(c) {
			at.Parent.InsertBefore(block, at)
		}
		if i < len(companies)-1 {
			at.Parent.InsertBefore(element(atom.Hr), at)
		}
		if _, ok := anchors[c.Name]; !ok {
			anchors[c.Name] = CompanyAnchor(c)
		}
	}
	if at == n {
		n.Data = strings.ReplaceAll(n.Data, CompaniesToken, "")
	} else {
		removeNode(at)
	}

	for _, other := range nodes[1:] {
		other.Data = strings.ReplaceAll(other.Data, CompaniesToken, "")
	}
	return anchors
}

func companyBlock(c model.CompanyRecord) []*html.Node {
	out := []*html.Node{
		appendAll(element(atom.H3, "id", CompanyAnchor(c), "style", "font-size:15pt;font-weight:bold"), text(c.Name)),
	}

	fields := []struct{ label, value string }{
		{"CIF", c.TaxID},
		{"Persona de contacto", c.ContactPerson},
		{"Cargo", c.ContactRole},
		{"Interviene como", c.InterventionRole},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			continue
		}
		out = append(out, appendAll(element(atom.P),
			appendAll(element(atom.Span, "style", "font-size:12pt"), text(f.label+": ")),
			appendAll(element(atom.Strong, "style", "font-size:12pt"), text(f.value)),
		))
	}

	if strings.TrimSpace(c.WorkScope) != "" {
		out = append(out, appendAll(element(atom.P, "style", "font-size:12pt"), text("Trabajos que ejecuta:")))
		scope := element(atom.Strong, "style", "font-size:12pt")
		for i, line := range strings.Split(c.WorkScope, "\n") {
			if i > 0 {
				scope.AppendChild(element(atom.Br))
			}
			scope.AppendChild(text(line))
		}
		out = append(out, appendAll(element(atom.P), scope))
	}
	return out
}

// insertCompanyList fills the list placeholder's paragraph with one link per
// company pointing at its heading
func (r *Renderer) insertCompanyList(root *html.Node, companies []model.CompanyRecord, anchors map[string]string) {
	nodes := textNodes(root, CompanyListToken)
	if len(nodes) == 0 {
		return
	}

	var links []*html.Node
	for i, c := range companies {
		if i > 0 {
			links = append(links, element(atom.Br))
		}
		if id, ok := anchors[c.Name]; ok {
			links = append(links, appendAll(element(atom.A, "href", "#"+id), text(c.Name)))
		} else {
			links = append(links, text(c.Name))
		}
	}

	n := nodes[0]
	if at := ancestor(n, anchorTags); at != nil {
		for c := at.FirstChild; c != nil; c = at.FirstChild {
			at.RemoveChild(c)
		}
		appendAll(at, links...)
	} else {
		splitAround(n, CompanyListToken, links...)
	}

	for _, other := range nodes[1:] {
		if attached(other, root) {
			other.Data = strings.ReplaceAll(other.Data, CompanyListToken, "")
		}
	}
}
