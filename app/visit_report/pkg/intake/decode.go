package intake

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/model"
)

var (
	// ErrEmptySubmission the document decoded but carries no answers
	ErrEmptySubmission = errors.New("submission has no answers")
	// ErrMalformed the document is not a submission
	ErrMalformed = errors.New("malformed submission")
)

// IsInputError reports whether err comes from an unreadable submission
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptySubmission) || errors.Is(err, ErrMalformed)
}

// Submission one decoded form response
type Submission struct {
	ResponseID  string
	SubmittedAt time.Time
	Answers     []model.Answer
}

type rawSubmission struct {
	ResponseID  string      `json:"response_id"`
	SubmittedAt string      `json:"submitted_at"`
	Answers     []rawAnswer `json:"answers"`
}

type rawAnswer struct {
	Title string          `json:"title"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// Decode reads a submission document. Items decode independently: an item
// whose value cannot be read becomes an invalid answer instead of failing
// the whole submission.
func Decode(r io.Reader) (*Submission, error) {
	var raw rawSubmission
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(raw.Answers) == 0 {
		return nil, ErrEmptySubmission
	}

	sub := &Submission{
		ResponseID: raw.ResponseID,
		Answers:    make([]model.Answer, 0, len(raw.Answers)),
	}
	if raw.SubmittedAt != "" {
		if ts, err := time.Parse(time.RFC3339, raw.SubmittedAt); err == nil {
			sub.SubmittedAt = ts
		}
	}

	for _, item := range raw.Answers {
		typ, _ := model.ParseAnswerType(item.Type)
		sub.Answers = append(sub.Answers, model.Answer{
			Title: strings.TrimSpace(item.Title),
			Type:  typ,
			Value: decodeValue(typ, item.Value),
		})
	}
	return sub, nil
}

// DecodeBytes convenience wrapper over Decode
func DecodeBytes(data []byte) (*Submission, error) {
	return Decode(bytes.NewReader(data))
}

func decodeValue(typ model.AnswerType, data json.RawMessage) model.AnswerValue {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		if typ == model.TypeFileUpload {
			return model.FilesValue(nil)
		}
		return model.TextValue("")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return model.InvalidValue(err.Error())
		}
		if typ == model.TypeFileUpload {
			return model.FilesValue(splitIDs(s))
		}
		return model.TextValue(s)

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return model.InvalidValue(err.Error())
		}
		out := make([]string, 0, len(items))
		for _, it := range items {
			s, ok := scalarString(it)
			if !ok {
				return model.InvalidValue("nested value in list: " + string(it))
			}
			out = append(out, s)
		}
		if typ == model.TypeFileUpload {
			return model.FilesValue(out)
		}
		return model.ListValue(out)

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return model.InvalidValue(err.Error())
		}
		return model.TextValue(strconv.FormatBool(b))

	case '{':
		return model.InvalidValue("object values are not supported")

	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return model.InvalidValue(err.Error())
		}
		return model.NumberValue(n)
	}
}

func scalarString(data json.RawMessage) (string, bool) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	case nil:
		return "", true
	default:
		return "", false
	}
}

func splitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
