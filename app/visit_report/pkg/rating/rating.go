package rating

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

const (
	FilledStar = "★"
	EmptyStar  = "☆"
	// DefaultMax stars per rating question
	DefaultMax = 5
)

// StarGlyph renders score as max glyphs, the first min(score, max) filled.
// Scores past max render all filled. Negative or NaN scores render as an
// empty string.
func StarGlyph(score float64, max int) string {
	if math.IsNaN(score) || score < 0 || max <= 0 {
		return ""
	}
	// compare as float so huge or infinite scores never overflow int
	filled := max
	if score < float64(max) {
		filled = int(score)
	}
	return strings.Repeat(FilledStar, filled) + strings.Repeat(EmptyStar, max-filled)
}

// ParseScore reads the leading integer of s, ignoring leading spaces and
// anything after the digits ("4", "4.5" and "4 estrellas" all give 4).
func ParseScore(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Severity advisory level tied to a score
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityCritical
	SeverityDeficient
	SeverityImprovable
	SeverityAdequate
	SeverityCorrect
)

var severityKeywords = map[Severity]string{
	SeverityCritical:   "CRÍTICO",
	SeverityDeficient:  "DEFICIENTE",
	SeverityImprovable: "MEJORABLE",
	SeverityAdequate:   "ADECUADO",
	SeverityCorrect:    "CORRECTO",
}

var severityColors = map[Severity]string{
	SeverityCritical:   "#D32F2F",
	SeverityDeficient:  "#F57C00",
	SeverityImprovable: "#FBC02D",
	SeverityAdequate:   "#7CB342",
	SeverityCorrect:    "#206b23",
}

// SeverityOf maps 1..5 to a severity, anything else to SeverityUnknown
func SeverityOf(score int) Severity {
	if score < 1 || score > 5 {
		return SeverityUnknown
	}
	return Severity(score)
}

// Keyword report label, empty for SeverityUnknown
func (s Severity) Keyword() string { return severityKeywords[s] }

// Color hex color, empty for SeverityUnknown
func (s Severity) Color() string { return severityColors[s] }

// Keyword shortcut for SeverityOf(score).Keyword()
func Keyword(score int) string { return SeverityOf(score).Keyword() }

// Color shortcut for SeverityOf(score).Color()
func Color(score int) string { return SeverityOf(score).Color() }

// SplitAdvice separates the leading "KEYWORD:" of an advisory text from
// the rest. ok is false when the text has no keyword prefix.
func SplitAdvice(text string) (keyword, rest string, ok bool) {
	idx := strings.Index(text, ":")
	if idx <= 0 {
		return "", text, false
	}
	return text[:idx+1], strings.TrimLeft(text[idx+1:], " "), true
}

// AdviceSource per question, per score advisory table
type AdviceSource interface {
	Advice(title string, score int) (string, bool)
}

// Formatter renders rating answers
type Formatter struct {
	advice AdviceSource
	max    int
}

// NewFormatter creates a formatter over the given advisory table
func NewFormatter(advice AdviceSource) *Formatter {
	return &Formatter{advice: advice, max: DefaultMax}
}

// Stars renders score with the formatter's star count
func (f *Formatter) Stars(score int) string {
	return StarGlyph(float64(score), f.max)
}

// Advice returns the advisory text for (title, score), empty when absent
func (f *Formatter) Advice(title string, score int) string {
	if f.advice == nil {
		return ""
	}
	text, ok := f.advice.Advice(title, score)
	if !ok {
		return ""
	}
	return text
}
