package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var embedded embed.FS

// DefaultSlots number of company slots in the form
const DefaultSlots = 20

const (
	adviceSuffix      = "Consejo"
	descriptionSuffix = "Descripcion"
)

// Placeholder maps a question title to its template token
type Placeholder struct {
	Title string `yaml:"title"`
	Token string `yaml:"token"`
}

// VisibilityRule hides Hidden titles/tokens when Trigger is answered with
// one of NegativeAnswers
type VisibilityRule struct {
	Trigger         string   `yaml:"trigger"`
	NegativeAnswers []string `yaml:"negative_answers"`
	Hidden          []string `yaml:"hidden"`
}

// Fires reports whether the trimmed raw answer is a negative answer
func (r VisibilityRule) Fires(raw string) bool {
	return contains(r.NegativeAnswers, strings.TrimSpace(raw))
}

// DescriptionRule inserts a rich description when Title is answered with
// one of Conditions
type DescriptionRule struct {
	Title      string   `yaml:"title"`
	Conditions []string `yaml:"conditions"`
	Summary    string   `yaml:"summary"`
	LinkText   string   `yaml:"link_text"`
	LinkURL    string   `yaml:"link_url"`
}

// Matches reports whether the trimmed raw answer triggers the rule
func (r DescriptionRule) Matches(raw string) bool {
	return contains(r.Conditions, strings.TrimSpace(raw))
}

// AdviceTable advisory text of one rating question, keyed by score
type AdviceTable struct {
	Title  string         `yaml:"title"`
	Scores map[int]string `yaml:"scores"`
}

// Visitor principal visitor and the address reports are sent to
type Visitor struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// Catalog read-only lookup tables of the inspection form
type Catalog struct {
	placeholders []Placeholder
	tokens       map[string]string
	visibility   map[string]VisibilityRule
	descriptions map[string]DescriptionRule
	advice       map[string]map[int]string
	visitors     map[string]string
	slots        int
	known        []string
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog with DefaultSlots company slots
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load("", DefaultSlots)
		if err != nil {
			panic(fmt.Sprintf("embedded catalog: %v", err))
		}
		defaultCat = c
	})
	return defaultCat
}

// Load builds a catalog. Files present in dir override the embedded ones.
func Load(dir string, slots int) (*Catalog, error) {
	if slots <= 0 {
		slots = DefaultSlots
	}
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	var override fs.FS
	if dir != "" {
		override = os.DirFS(dir)
	}
	read := func(name string, out any) error {
		if override != nil {
			data, err := fs.ReadFile(override, name)
			if err == nil {
				return decode(name, data, out)
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("read %s: %w", name, err)
			}
		}
		data, err := fs.ReadFile(sub, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		return decode(name, data, out)
	}

	var (
		ph  struct{ Placeholders []Placeholder }
		vis struct{ Visibility []VisibilityRule }
		des struct{ Descriptions []DescriptionRule }
		adv struct{ Advice []AdviceTable }
		vst struct{ Visitors []Visitor }
	)
	for name, out := range map[string]any{
		"placeholders.yaml": &ph,
		"visibility.yaml":   &vis,
		"descriptions.yaml": &des,
		"advice.yaml":       &adv,
		"visitors.yaml":     &vst,
	} {
		if err := read(name, out); err != nil {
			return nil, err
		}
	}

	return build(slots, ph.Placeholders, vis.Visibility, des.Descriptions, adv.Advice, vst.Visitors)
}

func decode(name string, data []byte, out any) error {
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func build(slots int, placeholders []Placeholder, vis []VisibilityRule, des []DescriptionRule, adv []AdviceTable, visitors []Visitor) (*Catalog, error) {
	c := &Catalog{
		tokens:       make(map[string]string),
		visibility:   make(map[string]VisibilityRule, len(vis)),
		descriptions: make(map[string]DescriptionRule, len(des)),
		advice:       make(map[string]map[int]string, len(adv)),
		visitors:     make(map[string]string, len(visitors)),
		slots:        slots,
	}

	all := append([]Placeholder(nil), placeholders...)
	all = append(all, slotPlaceholders(slots)...)
	for _, p := range all {
		if !isToken(p.Token) {
			return nil, fmt.Errorf("question %q: malformed token %q", p.Title, p.Token)
		}
		if _, dup := c.tokens[p.Title]; dup {
			return nil, fmt.Errorf("question %q mapped twice", p.Title)
		}
		c.tokens[p.Title] = p.Token
		c.placeholders = append(c.placeholders, p)
	}
	for _, r := range vis {
		c.visibility[r.Trigger] = r
	}
	for _, r := range des {
		c.descriptions[r.Title] = r
	}
	for _, t := range adv {
		c.advice[t.Title] = t.Scores
	}
	for _, v := range visitors {
		c.visitors[strings.TrimSpace(v.Name)] = strings.ToLower(strings.TrimSpace(v.Email))
	}
	c.known = c.computeKnown()
	return c, nil
}

// computeKnown lists every token the template may carry: mapped tokens first,
// then the advice and description tokens derived from them.
func (c *Catalog) computeKnown() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(tok string) {
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	for _, p := range c.placeholders {
		add(p.Token)
	}
	for _, p := range c.placeholders {
		if _, ok := c.advice[p.Title]; ok {
			add(AdviceToken(p.Token))
		}
		if _, ok := c.descriptions[p.Title]; ok {
			add(DescriptionToken(p.Token))
		}
	}
	return out
}

// Token returns the placeholder token of a question title
func (c *Catalog) Token(title string) (string, bool) {
	tok, ok := c.tokens[title]
	return tok, ok
}

// VisibilityRule returns the rule triggered by title
func (c *Catalog) VisibilityRule(title string) (VisibilityRule, bool) {
	r, ok := c.visibility[title]
	return r, ok
}

// DescriptionRule returns the rich description rule of title
func (c *Catalog) DescriptionRule(title string) (DescriptionRule, bool) {
	r, ok := c.descriptions[title]
	return r, ok
}

// Advice implements rating.AdviceSource
func (c *Catalog) Advice(title string, score int) (string, bool) {
	text, ok := c.advice[title][score]
	return text, ok && text != ""
}

// HasAdvice reports whether title has an advisory table
func (c *Catalog) HasAdvice(title string) bool {
	_, ok := c.advice[title]
	return ok
}

// VisitorEmail returns the lowercased address of a principal visitor
func (c *Catalog) VisitorEmail(name string) (string, bool) {
	email, ok := c.visitors[strings.TrimSpace(name)]
	return email, ok && email != ""
}

// KnownTokens every token reconciliation must cover, in stable order
func (c *Catalog) KnownTokens() []string {
	return c.known
}

// Placeholders title/token pairs in catalog order, company slots last
func (c *Catalog) Placeholders() []Placeholder {
	return c.placeholders
}

// Slots number of company slots
func (c *Catalog) Slots() int {
	return c.slots
}

// BaseName strips the "{{" "}}" delimiters of a token
func BaseName(token string) string {
	return strings.TrimSuffix(strings.TrimPrefix(token, "{{"), "}}")
}

// AdviceToken derived token holding the advisory text of a rating question
func AdviceToken(token string) string {
	return "{{" + BaseName(token) + adviceSuffix + "}}"
}

// DescriptionToken derived token holding the rich description of a question
func DescriptionToken(token string) string {
	return "{{" + BaseName(token) + descriptionSuffix + "}}"
}

func isToken(s string) bool {
	return len(s) > 4 && strings.HasPrefix(s, "{{") && strings.HasSuffix(s, "}}")
}

func contains(list []string, s string) bool {
	for _, it := range list {
		if it == s {
			return true
		}
	}
	return false
}
