package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huam/biocurate/internal/blob"
	"github.com/huam/biocurate/internal/blob/blobtest"
)

func TestStoreConformance(t *testing.T) {
	blobtest.Run(t, func(*testing.T) blob.Store { return New() })
}

func TestMetadataIsolated(t *testing.T) {
	t.Parallel()

	s := New()
	md := map[string]string{"code": "A"}
	_, err := s.Put(context.Background(), "k", strings.NewReader("v"), blob.PutOptions{Metadata: md})
	require.NoError(t, err)
	md["code"] = "B"

	info, rc, err := s.Get(context.Background(), "k")
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()
	_, _ = io.ReadAll(rc)
	assert.Equal(t, "A", info.Metadata["code"])
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, blob.DriverMemory, s.Driver())
}
