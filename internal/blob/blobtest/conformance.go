// Package blobtest holds the behaviour every blob backend must share
package blobtest

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huam/biocurate/internal/blob"
	"github.com/huam/biocurate/internal/errors"
)

// Run exercises a fresh store returned by newStore
func Run(t *testing.T, newStore func(t *testing.T) blob.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("put then get", func(t *testing.T) {
		store := newStore(t)
		info, err := store.Put(ctx, "exsicata/ABC123", strings.NewReader("jpeg-bytes"), blob.PutOptions{
			ContentType: "image/jpeg",
			Metadata:    map[string]string{"code": "HUAM001245"},
		})
		require.NoError(t, err)
		assert.Equal(t, "exsicata/ABC123", info.Key)
		assert.Equal(t, int64(len("jpeg-bytes")), info.Size)

		got, rc, err := store.Get(ctx, "exsicata/ABC123")
		require.NoError(t, err)
		defer func() { _ = rc.Close() }()
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "jpeg-bytes", string(body))
		assert.Equal(t, "image/jpeg", got.ContentType)
		assert.Equal(t, int64(len("jpeg-bytes")), got.Size)
	})

	t.Run("create only", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Put(ctx, "exsicata/dup", strings.NewReader("one"), blob.PutOptions{})
		require.NoError(t, err)

		_, err = store.Put(ctx, "exsicata/dup", strings.NewReader("two"), blob.PutOptions{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, blob.ErrExists))

		_, rc, err := store.Get(ctx, "exsicata/dup")
		require.NoError(t, err)
		defer func() { _ = rc.Close() }()
		body, _ := io.ReadAll(rc)
		assert.Equal(t, "one", string(body))
	})

	t.Run("missing key", func(t *testing.T) {
		store := newStore(t)
		_, _, err := store.Get(ctx, "exsicata/missing")
		require.Error(t, err)
		assert.True(t, errors.Is(err, blob.ErrNotFound))
	})

	t.Run("invalid keys", func(t *testing.T) {
		store := newStore(t)
		for _, key := range []string{"", "  ", "/abs", "../escape", "a/../../b"} {
			_, err := store.Put(ctx, key, strings.NewReader("x"), blob.PutOptions{})
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation), "key %q", key)
		}
	})
}
