package imagedir

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/images"
)

// Source reads uploads from a local directory tree. A file belongs to an id
// when its base name is the id, with or without an extension.
type Source struct {
	root string
	fsys fs.FS
}

// NewSource creates a directory backed image source
func NewSource(root string) *Source {
	return &Source{root: root, fsys: os.DirFS(root)}
}

// Ensure Source implements images.Source
var _ images.Source = (*Source)(nil)

// Fetch looks the id up anywhere below the root
func (s *Source) Fetch(ctx context.Context, id string) (*images.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, `/\*?[{`) || id == "." || id == ".." {
		return nil, fmt.Errorf("%w: invalid id %q", images.ErrNotFound, id)
	}

	var matches []string
	for _, pattern := range []string{"**/" + id, "**/" + id + ".*"} {
		found, err := doublestar.Glob(s.fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", s.root, err)
		}
		matches = append(matches, found...)
	}
	for _, m := range matches {
		info, err := fs.Stat(s.fsys, m)
		if err != nil || info.IsDir() {
			continue
		}
		data, err := fs.ReadFile(s.fsys, m)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", m, err)
		}
		ct := mime.TypeByExtension(path.Ext(m))
		if ct == "" {
			ct = http.DetectContentType(data)
		}
		return &images.Image{ID: id, Name: path.Base(m), ContentType: ct, Data: data}, nil
	}
	return nil, fmt.Errorf("%w: %s", images.ErrNotFound, id)
}
