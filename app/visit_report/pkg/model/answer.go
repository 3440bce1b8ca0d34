package model

import (
	"strconv"
	"strings"
)

// AnswerType question kind of a form item
type AnswerType int

const (
	TypeText AnswerType = iota
	TypeChoice
	TypeMultiChoice
	TypeRating
	TypeFileUpload
	TypeDate
	TypeTime
)

var answerTypeNames = map[AnswerType]string{
	TypeText:        "text",
	TypeChoice:      "choice",
	TypeMultiChoice: "multi_choice",
	TypeRating:      "rating",
	TypeFileUpload:  "file_upload",
	TypeDate:        "date",
	TypeTime:        "time",
}

func (t AnswerType) String() string {
	if name, ok := answerTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseAnswerType accepts both our own names and the form item type names
// (TEXT, PARAGRAPH_TEXT, CHECKBOX, SCALE ...).
func ParseAnswerType(s string) (AnswerType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TEXT", "PARAGRAPH_TEXT", "":
		return TypeText, true
	case "CHOICE", "MULTIPLE_CHOICE", "LIST":
		return TypeChoice, true
	case "MULTI_CHOICE", "CHECKBOX", "CHECKBOX_GRID":
		return TypeMultiChoice, true
	case "RATING", "SCALE":
		return TypeRating, true
	case "FILE_UPLOAD":
		return TypeFileUpload, true
	case "DATE", "DATETIME":
		return TypeDate, true
	case "TIME", "DURATION":
		return TypeTime, true
	default:
		return TypeText, false
	}
}

// ValueKind variant tag of AnswerValue
type ValueKind int

const (
	KindText ValueKind = iota
	KindList
	KindNumber
	KindFiles
	KindInvalid
)

// AnswerValue tagged union holding one decoded answer.
// The zero value is an empty text answer.
type AnswerValue struct {
	kind   ValueKind
	text   string
	items  []string
	number float64
}

// TextValue builds a scalar string answer
func TextValue(s string) AnswerValue {
	return AnswerValue{kind: KindText, text: s}
}

// ListValue builds a multi-select answer
func ListValue(items []string) AnswerValue {
	return AnswerValue{kind: KindList, items: append([]string(nil), items...)}
}

// NumberValue builds a numeric answer (rating, scale)
func NumberValue(n float64) AnswerValue {
	return AnswerValue{kind: KindNumber, number: n}
}

// FilesValue builds a file upload answer from stored file identifiers
func FilesValue(ids []string) AnswerValue {
	return AnswerValue{kind: KindFiles, items: append([]string(nil), ids...)}
}

// InvalidValue marks an item whose payload could not be read
func InvalidValue(reason string) AnswerValue {
	return AnswerValue{kind: KindInvalid, text: reason}
}

func (v AnswerValue) Kind() ValueKind { return v.kind }

// Text returns the scalar text, empty for other kinds
func (v AnswerValue) Text() string {
	if v.kind != KindText {
		return ""
	}
	return v.text
}

// Items returns the entries of a list or file answer
func (v AnswerValue) Items() []string {
	if v.kind != KindList && v.kind != KindFiles {
		return nil
	}
	return v.items
}

// Number returns the numeric payload
func (v AnswerValue) Number() (float64, bool) {
	return v.number, v.kind == KindNumber
}

// IsList reports whether the value carries several entries
func (v AnswerValue) IsList() bool {
	return v.kind == KindList || v.kind == KindFiles
}

// InvalidReason returns why the item could not be read
func (v AnswerValue) InvalidReason() (string, bool) {
	return v.text, v.kind == KindInvalid
}

// Raw stringifies the value the way the form exports it:
// lists are joined with ", ", numbers are printed without trailing zeros.
func (v AnswerValue) Raw() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindList, KindFiles:
		return strings.Join(v.items, ", ")
	case KindNumber:
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	default:
		return ""
	}
}

// IsEmpty reports whether the answer carries no content
func (v AnswerValue) IsEmpty() bool {
	switch v.kind {
	case KindText:
		return v.text == ""
	case KindList, KindFiles:
		return len(v.items) == 0
	case KindNumber:
		return false
	default:
		return true
	}
}

// Answer one question/answer pair of a submission
type Answer struct {
	Title string
	Type  AnswerType
	Value AnswerValue
}
