package images

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
)

// ErrNotFound no stored file carries the requested id
var ErrNotFound = errors.New("image not found")

// Source resolves uploaded file ids to their content
type Source interface {
	Fetch(ctx context.Context, id string) (*Image, error)
}

// Image one uploaded photo
type Image struct {
	ID          string
	Name        string
	ContentType string
	Data        []byte
}

// DataURI inline form used inside the report document
func (img *Image) DataURI() string {
	ct := img.ContentType
	if ct == "" {
		ct = http.DetectContentType(img.Data)
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}
