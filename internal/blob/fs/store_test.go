package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huam/biocurate/internal/blob"
	"github.com/huam/biocurate/internal/blob/blobtest"
)

func TestStoreConformance(t *testing.T) {
	blobtest.Run(t, func(t *testing.T) blob.Store {
		s, err := New(t.TempDir())
		require.NoError(t, err)
		return s
	})
}

func TestSidecarWritten(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s, err := New(root)
	require.NoError(t, err)
	assert.Equal(t, root, s.Root())

	info, err := s.Put(context.Background(), "exsicata/F1", strings.NewReader("img"), blob.PutOptions{ContentType: "image/png"})
	require.NoError(t, err)
	assert.Len(t, info.ETag, 64)

	data, err := os.ReadFile(filepath.Join(root, "exsicata", "F1"))
	require.NoError(t, err)
	assert.Equal(t, "img", string(data))

	meta, err := os.ReadFile(filepath.Join(root, "exsicata", "F1.meta"))
	require.NoError(t, err)
	assert.Contains(t, string(meta), `"content_type":"image/png"`)
}
