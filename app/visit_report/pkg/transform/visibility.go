package transform

import (
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/catalog"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/model"
)

// ResolveHidden computes the hide-set of a submission.
// Rules are evaluated independently of each other: a question hidden by one
// rule still fires its own rule.
func ResolveHidden(c *catalog.Catalog, answers []model.Answer) model.Set {
	hidden := model.NewSet()
	for _, a := range answers {
		if _, bad := a.Value.InvalidReason(); bad {
			continue
		}
		rule, ok := c.VisibilityRule(a.Title)
		if !ok {
			continue
		}
		if rule.Fires(a.Value.Raw()) {
			hidden.Add(rule.Hidden...)
		}
	}
	return hidden
}
