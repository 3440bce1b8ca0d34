package document

import (
	"fmt"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/model"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/rating"
)

const ratingClass = "rating"

// styleRatings colours every star glyph string by its score
func styleRatings(root *html.Node, styles []model.RatingStyle) {
	done := model.NewSet()
	for _, st := range styles {
		if st.Glyph == "" || done.Has(st.Glyph) {
			continue
		}
		done.Add(st.Glyph)

		build := func() []*html.Node {
			span := element(atom.Span,
				"class", ratingClass,
				"data-rating", strconv.Itoa(st.Score),
				"style", fmt.Sprintf("color:%s;font-size:15pt;font-weight:bold", rating.Color(st.Score)))
			return []*html.Node{appendAll(span, text(st.Glyph))}
		}
		for _, n := range textNodes(root, st.Glyph) {
			if n.Parent != nil && n.Parent.DataAtom == atom.Span && hasClass(n.Parent, ratingClass) {
				continue
			}
			replaceAll(n, st.Glyph, build)
		}
	}
}

// styleAdvice sets the advisory keyword bold in the score colour and the
// remaining advice in black italics
func styleAdvice(root *html.Node, styles []model.RatingStyle) {
	done := model.NewSet()
	for _, st := range styles {
		if st.Advice == "" || done.Has(st.Advice) {
			continue
		}
		done.Add(st.Advice)

		keyword, rest, ok := rating.SplitAdvice(st.Advice)
		if !ok {
			continue
		}
		color := rating.Color(st.Score)
		build := func() []*html.Node {
			return []*html.Node{
				appendAll(element(atom.Strong, "class", "advice-keyword",
					"style", fmt.Sprintf("color:%s;font-size:12pt;font-weight:bold", color)), text(keyword)),
				text(" "),
				appendAll(element(atom.Em, "style", "color:#000000;font-size:12pt"), text(rest)),
			}
		}
		for _, n := range textNodes(root, st.Advice) {
			replaceAll(n, st.Advice, build)
		}
	}
}
