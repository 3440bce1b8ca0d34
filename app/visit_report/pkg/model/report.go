package model

import (
	"sort"
	"time"
)

// DefaultCompanyName headline used when the visited company was not answered
const DefaultCompanyName = "Sin Nombre"

// CompanyRecord one company present on site
type CompanyRecord struct {
	Slot             int    `json:"slot"`
	Name             string `json:"name"`
	TaxID            string `json:"tax_id,omitempty"`
	ContactPerson    string `json:"contact_person,omitempty"`
	ContactRole      string `json:"contact_role,omitempty"`
	ContactEmail     string `json:"contact_email,omitempty"`
	InterventionRole string `json:"intervention_role,omitempty"`
	WorkScope        string `json:"work_scope,omitempty"`
}

// Substitution resolved token/value pair
type Substitution struct {
	Token string
	Value string
}

// RatingStyle presentation entry for one parsed rating
type RatingStyle struct {
	Score  int
	Glyph  string
	Title  string
	Advice string
}

// RichDescription legally referenced note inserted at Token
type RichDescription struct {
	Token    string
	Summary  string
	LinkText string
	LinkURL  string
}

// ImageGroup uploaded file identifiers of one question
type ImageGroup struct {
	Title   string
	Token   string
	FileIDs []string
}

// Set string set
type Set map[string]struct{}

func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (s Set) Add(items ...string) {
	for _, it := range items {
		s[it] = struct{}{}
	}
}

func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Sorted returns the members in lexical order
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for it := range s {
		out = append(out, it)
	}
	sort.Strings(out)
	return out
}

// ReportBundle everything one report generation needs downstream
type ReportBundle struct {
	Substitutions        []Substitution
	RatingStyles         []RatingStyle
	RichDescriptions     []RichDescription
	Companies            []CompanyRecord
	Hidden               Set
	VisitDate            *time.Time
	VisitorRecipients    []string
	IndividualRecipients []string
	PrimaryCompany       string
	Images               []ImageGroup
	FirstAidRoom         string
}

// Value returns the substituted value of token
func (b *ReportBundle) Value(token string) (string, bool) {
	for _, s := range b.Substitutions {
		if s.Token == token {
			return s.Value, true
		}
	}
	return "", false
}

// RichDescription returns the rich description queued for token
func (b *ReportBundle) RichDescription(token string) (RichDescription, bool) {
	for _, d := range b.RichDescriptions {
		if d.Token == token {
			return d, true
		}
	}
	return RichDescription{}, false
}

// ImageCount total number of uploaded files
func (b *ReportBundle) ImageCount() int {
	n := 0
	for _, g := range b.Images {
		n += len(g.FileIDs)
	}
	return n
}
