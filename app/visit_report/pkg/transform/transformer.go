package transform

import (
	"regexp"
	"strings"
	"time"

	"github.com/goodsign/monday"
	"github.com/sirupsen/logrus"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/catalog"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/model"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/rating"
)

// EmptyValue written for tokens without content so the template never keeps
// a blank line or a literal token
const EmptyValue = " "

// LongDateLayout weekday, day, month and year spelled out
const LongDateLayout = "Monday, 2 de January de 2006"

var ppeSeparators = regexp.MustCompile(`[,;\n]+`)

var visitDateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006-01-02T15:04",
	time.DateTime,
	"02/01/2006",
}

// Transformer turns form answers into a ReportBundle.
// It holds only read-only tables and is safe for concurrent use.
type Transformer struct {
	catalog *catalog.Catalog
	rating  *rating.Formatter
	loc     *time.Location
	locale  monday.Locale
	log     logrus.FieldLogger
}

// Option configures a Transformer
type Option func(*Transformer)

// WithLogger sets the logger used for skipped items
func WithLogger(l logrus.FieldLogger) Option {
	return func(t *Transformer) {
		if l != nil {
			t.log = l
		}
	}
}

// WithLocation sets the timezone visit dates are read in
func WithLocation(loc *time.Location) Option {
	return func(t *Transformer) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// WithLocale sets the language of the long visit date
func WithLocale(locale string) Option {
	return func(t *Transformer) {
		if locale != "" {
			t.locale = monday.Locale(strings.ReplaceAll(locale, "-", "_"))
		}
	}
}

// New creates a transformer over the given catalog
func New(c *catalog.Catalog, opts ...Option) *Transformer {
	t := &Transformer{
		catalog: c,
		rating:  rating.NewFormatter(c),
		loc:     time.Local,
		locale:  monday.LocaleEsES,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// run per invocation state
type run struct {
	bundle      *model.ReportBundle
	subs        *substitutions
	touched     model.Set
	consumed    model.Set
	visitors    *recipientSet
	individuals *recipientSet
	images      map[string]int
}

// Transform maps the answers to placeholder substitutions and side tables.
// A bad item is logged and skipped; the pass never fails as a whole.
func (t *Transformer) Transform(answers []model.Answer) *model.ReportBundle {
	hidden := ResolveHidden(t.catalog, answers)
	grouping := GroupCompanies(t.catalog.Slots(), IndexByTitle(answers))

	r := &run{
		bundle: &model.ReportBundle{
			Companies: grouping.Companies,
			Hidden:    hidden,
		},
		subs:        newSubstitutions(),
		touched:     model.NewSet(),
		consumed:    grouping.Consumed,
		visitors:    newRecipientSet(),
		individuals: newRecipientSet(),
		images:      make(map[string]int),
	}
	for _, company := range grouping.Companies {
		r.individuals.add(ExtractEmails(company.ContactEmail)...)
	}

	for i, a := range answers {
		if reason, bad := a.Value.InvalidReason(); bad || a.Title == "" {
			t.log.WithFields(logrus.Fields{"index": i, "title": a.Title}).Warnf("skipping unreadable answer: %s", reason)
			continue
		}
		t.sideEffects(r, a)
		t.process(r, a)
	}

	t.reconcile(r)

	b := r.bundle
	b.Substitutions = r.subs.list
	b.VisitorRecipients = r.visitors.list()
	b.IndividualRecipients = r.individuals.list()
	if strings.TrimSpace(b.PrimaryCompany) == "" {
		b.PrimaryCompany = model.DefaultCompanyName
	}

	t.log.Debugf("transformed %d answers: %d substitutions, %d companies, %d hidden, %d images",
		len(answers), len(b.Substitutions), len(b.Companies), len(b.Hidden), b.ImageCount())
	return b
}

// sideEffects captures title specific data regardless of whether the answer
// produces a substitution
func (t *Transformer) sideEffects(r *run, a model.Answer) {
	switch a.Title {
	case catalog.TitlePrimaryCompany:
		r.bundle.PrimaryCompany = strings.TrimSpace(a.Value.Raw())
	case catalog.TitleFirstAidRoom:
		r.bundle.FirstAidRoom = a.Value.Raw()
	case catalog.TitleVisitDate:
		if d, ok := t.parseVisitDate(a.Value.Raw()); ok {
			r.bundle.VisitDate = &d
		}
	case catalog.TitlePrincipalVisitor:
		names := a.Value.Items()
		if !a.Value.IsList() {
			names = []string{a.Value.Raw()}
		}
		for _, name := range names {
			if email, ok := t.catalog.VisitorEmail(name); ok {
				r.visitors.add(email)
			}
		}
	}
	if catalog.EmailSourceTitles[a.Title] {
		r.individuals.add(ExtractEmails(a.Value.Raw())...)
	}
}

func (t *Transformer) process(r *run, a model.Answer) {
	token, mapped := t.catalog.Token(a.Title)

	if r.consumed.Has(a.Title) || catalog.IsAddCompany(a.Title) ||
		r.bundle.Hidden.Has(a.Title) || (mapped && r.bundle.Hidden.Has(token)) {
		return
	}

	if a.Type == model.TypeFileUpload {
		t.collectImages(r, a, token)
		return
	}

	if !mapped {
		return
	}
	r.touched.Add(token)
	raw := a.Value.Raw()

	if rule, ok := t.catalog.DescriptionRule(a.Title); ok {
		descToken := catalog.DescriptionToken(token)
		r.touched.Add(descToken)
		if rule.Matches(raw) {
			r.bundle.RichDescriptions = append(r.bundle.RichDescriptions, model.RichDescription{
				Token:    descToken,
				Summary:  rule.Summary,
				LinkText: rule.LinkText,
				LinkURL:  rule.LinkURL,
			})
		} else {
			r.put(descToken, "")
		}
	}

	switch {
	case a.Type == model.TypeRating:
		t.processRating(r, a, token, raw)
	case a.Title == catalog.TitleRequiredPPE:
		r.put(token, orEmpty(bulletList(ppeItems(a.Value))))
	case a.Value.IsList():
		if catalog.InlineListTitles[a.Title] {
			r.put(token, orEmpty(inlineList(a.Value.Items())))
		} else {
			r.put(token, orEmpty(bulletList(a.Value.Items())))
		}
	default:
		r.put(token, orEmpty(t.display(r, a)))
	}
}

func (t *Transformer) processRating(r *run, a model.Answer, token, raw string) {
	adviceToken := catalog.AdviceToken(token)
	r.touched.Add(adviceToken)

	score, ok := rating.ParseScore(raw)
	if !ok {
		t.log.WithField("title", a.Title).Warnf("unparsable rating %q", raw)
		r.put(adviceToken, "")
		r.put(token, "")
		return
	}

	advice := t.rating.Advice(a.Title, score)
	glyph := t.rating.Stars(score)
	r.put(adviceToken, advice)
	r.put(token, glyph)
	r.bundle.RatingStyles = append(r.bundle.RatingStyles, model.RatingStyle{
		Score:  score,
		Glyph:  glyph,
		Title:  a.Title,
		Advice: advice,
	})
}

func (t *Transformer) collectImages(r *run, a model.Answer, token string) {
	ids := make([]string, 0, len(a.Value.Items()))
	for _, id := range a.Value.Items() {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}
	if i, ok := r.images[a.Title]; ok {
		r.bundle.Images[i].FileIDs = append(r.bundle.Images[i].FileIDs, ids...)
		return
	}
	r.images[a.Title] = len(r.bundle.Images)
	r.bundle.Images = append(r.bundle.Images, model.ImageGroup{Title: a.Title, Token: token, FileIDs: ids})
}

// display scalar text with the title specific rewrites applied
func (t *Transformer) display(r *run, a model.Answer) string {
	raw := a.Value.Raw()
	switch a.Title {
	case catalog.TitleVisitDate:
		if r.bundle.VisitDate != nil {
			return monday.Format(*r.bundle.VisitDate, LongDateLayout, t.locale)
		}
	case catalog.TitleCompanions:
		return StripEmails(raw)
	}
	return raw
}

func (t *Transformer) parseVisitDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range visitDateLayouts {
		if d, err := time.ParseInLocation(layout, raw, t.loc); err == nil {
			return d.In(t.loc), true
		}
	}
	t.log.WithField("title", catalog.TitleVisitDate).Warnf("unrecognised visit date %q", raw)
	return time.Time{}, false
}

// reconcile blanks every known token that nothing wrote and that is not hidden
func (t *Transformer) reconcile(r *run) {
	for _, tok := range t.catalog.KnownTokens() {
		if r.touched.Has(tok) || r.bundle.Hidden.Has(tok) {
			continue
		}
		r.put(tok, EmptyValue)
	}
}

func (r *run) put(token, value string) {
	if r.bundle.Hidden.Has(token) {
		return
	}
	r.subs.put(token, value)
}

func ppeItems(v model.AnswerValue) []string {
	if v.IsList() {
		return v.Items()
	}
	return ppeSeparators.Split(v.Raw(), -1)
}

func orEmpty(s string) string {
	if s == "" {
		return EmptyValue
	}
	return s
}

// substitutions keeps one entry per token: a later write replaces the value
// but keeps the position of the first write
type substitutions struct {
	list []model.Substitution
	pos  map[string]int
}

func newSubstitutions() *substitutions {
	return &substitutions{pos: make(map[string]int)}
}

func (s *substitutions) put(token, value string) {
	if i, ok := s.pos[token]; ok {
		s.list[i].Value = value
		return
	}
	s.pos[token] = len(s.list)
	s.list = append(s.list, model.Substitution{Token: token, Value: value})
}
