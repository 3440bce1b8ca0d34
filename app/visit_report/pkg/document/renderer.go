package document

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/images"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/model"
)

const (
	// CompaniesToken paragraph replaced by the company records
	CompaniesToken = "{{datosEmpresasVisitadas}}"
	// CompanyListToken paragraph filled with links to the company records
	CompanyListToken = "{{empresasPresentesLista}}"

	// FirstAidLayout marks elements shown only with a first-aid room
	FirstAidLayout = "first-aid-room"
	// NoFirstAidLayout marks elements shown only without one
	NoFirstAidLayout = "no-first-aid-room"
	layoutAttr       = "data-layout"
)

// lineBreak stands in for value newlines until text nodes are split
const lineBreak = "\uE000"

var leftoverToken = regexp.MustCompile(`\{\{[^{}\s]+\}\}`)

// Result filled document
type Result struct {
	HTML []byte
	// Leftovers tokens still present after filling
	Leftovers []string
	// ImageErrors files that could not be embedded
	ImageErrors int
}

// Renderer fills an HTML report template from a ReportBundle
type Renderer struct {
	images images.Source
	log    logrus.FieldLogger
}

// NewRenderer creates a renderer. src may be nil, every photo then renders
// as a load error cell.
func NewRenderer(src images.Source, log logrus.FieldLogger) *Renderer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Renderer{images: src, log: log}
}

// Render fills tmpl. Passes run in a fixed order: hidden blocks are dropped
// from the template first, photos and company records are laid out, then
// text is substituted and finally styled.
func (r *Renderer) Render(ctx context.Context, tmpl []byte, b *model.ReportBundle) (*Result, error) {
	root, err := html.Parse(bytes.NewReader(tmpl))
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	res := &Result{}
	r.hide(root, b.Hidden)

	for _, g := range b.Images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.ImageErrors += r.insertImages(ctx, root, g)
	}

	anchors := r.insertCompanies(root, b.Companies)
	r.insertCompanyList(root, b.Companies, anchors)
	r.insertRichDescriptions(root, b.RichDescriptions)
	substitute(root, b.Substitutions)
	applyFirstAidLayout(root, b.FirstAidRoom)
	styleRatings(root, b.RatingStyles)
	styleAdvice(root, b.RatingStyles)

	seen := model.NewSet()
	for _, n := range textNodes(root, "{{") {
		for _, tok := range leftoverToken.FindAllString(n.Data, -1) {
			if !seen.Has(tok) {
				seen.Add(tok)
				res.Leftovers = append(res.Leftovers, tok)
			}
		}
	}
	if len(res.Leftovers) > 0 {
		r.log.WithField("tokens", strings.Join(res.Leftovers, ",")).Warn("template tokens left unfilled")
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	res.HTML = buf.Bytes()
	return res, nil
}

// hide removes every paragraph, list item, heading or table row whose text
// holds a hidden title or token
func (r *Renderer) hide(root *html.Node, hidden model.Set) {
	removed := 0
	for _, entry := range hidden.Sorted() {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		for _, n := range textNodes(root, entry) {
			if !attached(n, root) {
				continue
			}
			if block := ancestor(n, blockTags); block != nil {
				removeNode(block)
				removed++
			}
		}
	}
	if removed > 0 {
		r.log.Debugf("removed %d hidden blocks", removed)
	}
}

// substitute replaces every token in every text node, value newlines become <br>
func substitute(root *html.Node, subs []model.Substitution) {
	if len(subs) == 0 {
		return
	}
	pairs := make([]string, 0, len(subs)*2)
	for _, s := range subs {
		pairs = append(pairs, s.Token, strings.ReplaceAll(s.Value, "\n", lineBreak))
	}
	replacer := strings.NewReplacer(pairs...)

	for _, n := range textNodes(root, "{{") {
		replaced := replacer.Replace(n.Data)
		parts := strings.Split(replaced, lineBreak)
		n.Data = parts[0]
		ref := n.NextSibling
		for _, part := range parts[1:] {
			n.Parent.InsertBefore(element(atom.Br), ref)
			if part != "" {
				n.Parent.InsertBefore(text(part), ref)
			}
		}
	}
}

func (r *Renderer) insertRichDescriptions(root *html.Node, descs []model.RichDescription) {
	for _, d := range descs {
		for _, n := range textNodes(root, d.Token) {
			replaceAll(n, d.Token, func() []*html.Node { return richDescription(d) })
		}
	}
}

func richDescription(d model.RichDescription) []*html.Node {
	warning := appendAll(element(atom.Strong, "style", "color:#D32F2F;font-weight:bold"), text("⚠️ ATENCIÓN: "))
	summary := appendAll(element(atom.Em, "style", "font-size:9pt"), text(d.Summary+" "))
	var link *html.Node
	if d.LinkURL != "" {
		link = element(atom.A, "href", d.LinkURL, "style", "font-size:9pt;font-style:italic")
	} else {
		link = element(atom.Span, "style", "font-size:9pt;font-style:italic")
	}
	link.AppendChild(text(d.LinkText))
	return []*html.Node{element(atom.Br), warning, summary, link}
}

// applyFirstAidLayout keeps the elements matching whether the site has a
// first-aid room and drops the others
func applyFirstAidLayout(root *html.Node, answer string) {
	present := isAffirmative(answer)
	marked := elements(root, func(n *html.Node) bool {
		v, ok := getAttr(n, layoutAttr)
		return ok && (v == FirstAidLayout || v == NoFirstAidLayout)
	})
	for _, n := range marked {
		v, _ := getAttr(n, layoutAttr)
		if (v == FirstAidLayout) == present {
			removeAttr(n, layoutAttr)
			continue
		}
		removeNode(n)
	}
}

func isAffirmative(answer string) bool {
	a := strings.TrimSpace(answer)
	return strings.EqualFold(a, "sí") || strings.EqualFold(a, "si")
}
