package imagedir

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/images"
)

func TestFetch(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "2025", "03"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "2025", "03", "f1.jpg"), []byte("jpeg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "f2"), []byte("raw"), 0o644))

	src := NewSource(root)

	img, err := src.Fetch(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "f1.jpg", img.Name)
	assert.Equal(t, "image/jpeg", img.ContentType)
	assert.Equal(t, []byte("jpeg"), img.Data)

	img, err = src.Fetch(context.Background(), " f2 ")
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), img.Data)

	_, err = src.Fetch(context.Background(), "nope")
	assert.ErrorIs(t, err, images.ErrNotFound)

	_, err = src.Fetch(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, images.ErrNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Fetch(ctx, "f1")
	assert.ErrorIs(t, err, context.Canceled)
}
