package intake

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/model"
)

const sample = `{
  "response_id": "resp-42",
  "submitted_at": "2025-03-03T10:15:00Z",
  "answers": [
    {"title": "Empresa Visitada", "type": "TEXT", "value": "Construcciones Norte"},
    {"title": "Visitador Principal", "type": "CHECKBOX", "value": ["Ana", "Luis"]},
    {"title": "¿Los tajos están balizados?", "type": "SCALE", "value": 3},
    {"title": "Fotos", "type": "FILE_UPLOAD", "value": ["id-1", "id-2"]},
    {"title": "Planos", "type": "FILE_UPLOAD", "value": "id-3, id-4"},
    {"title": "Observaciones", "type": "PARAGRAPH_TEXT", "value": null},
    {"title": "Roto", "type": "TEXT", "value": {"a": 1}},
    {"title": "Mixto", "type": "CHECKBOX", "value": ["a", ["b"]]}
  ]
}`

func TestDecode(t *testing.T) {
	sub, err := Decode(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, "resp-42", sub.ResponseID)
	assert.True(t, sub.SubmittedAt.Equal(time.Date(2025, 3, 3, 10, 15, 0, 0, time.UTC)))
	require.Len(t, sub.Answers, 8)

	a := sub.Answers
	assert.Equal(t, "Construcciones Norte", a[0].Value.Text())
	assert.Equal(t, model.TypeText, a[0].Type)

	assert.Equal(t, model.TypeMultiChoice, a[1].Type)
	assert.Equal(t, []string{"Ana", "Luis"}, a[1].Value.Items())

	assert.Equal(t, model.TypeRating, a[2].Type)
	n, ok := a[2].Value.Number()
	assert.True(t, ok)
	assert.Equal(t, 3.0, n)

	assert.Equal(t, model.KindFiles, a[3].Value.Kind())
	assert.Equal(t, []string{"id-1", "id-2"}, a[3].Value.Items())
	assert.Equal(t, []string{"id-3", "id-4"}, a[4].Value.Items())

	assert.True(t, a[5].Value.IsEmpty())

	_, bad := a[6].Value.InvalidReason()
	assert.True(t, bad)
	_, bad = a[7].Value.InvalidReason()
	assert.True(t, bad)
}

func TestDecodeErrors(t *testing.T) {
	_, err := DecodeBytes([]byte(`{"answers": []}`))
	assert.ErrorIs(t, err, ErrEmptySubmission)

	assert.True(t, IsInputError(err))

	_, err = DecodeBytes([]byte(`not json`))
	assert.ErrorIs(t, err, ErrMalformed)
	assert.NotErrorIs(t, err, ErrEmptySubmission)
	assert.True(t, IsInputError(err))

	assert.False(t, IsInputError(errors.New("disk full")))
}
