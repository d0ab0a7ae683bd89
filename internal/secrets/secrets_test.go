package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huam/biocurate/internal/errors"
)

func TestExpand(t *testing.T) {
	t.Setenv("BIOCURATE_TEST_KEY", "pn-123")
	t.Setenv("BIOCURATE_TEST_EMPTY", "")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "literal", input: "literal-key", want: "literal-key"},
		{name: "variable", input: "${BIOCURATE_TEST_KEY}", want: "pn-123"},
		{name: "embedded", input: "key=${BIOCURATE_TEST_KEY};", want: "key=pn-123;"},
		{name: "default unused", input: "${BIOCURATE_TEST_KEY:-other}", want: "pn-123"},
		{name: "default used", input: "${BIOCURATE_TEST_UNSET:-fallback}", want: "fallback"},
		{name: "empty default", input: "${BIOCURATE_TEST_UNSET:-}", want: ""},
		{name: "missing", input: "${BIOCURATE_TEST_UNSET}", wantErr: true},
		{name: "empty counts as missing", input: "${BIOCURATE_TEST_EMPTY}", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	path := filepath.Join(dir, "plantnet")
	require.NoError(t, os.WriteFile(path, []byte(" key with spaces \n"), 0o600))
	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, " key with spaces ", got)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte("\n"), 0o600))
	_, err = ReadFile(empty)
	require.Error(t, err)

	_, err = ReadFile(filepath.Join(dir, "absent"))
	require.Error(t, err)

	_, err = ReadFile(dir)
	require.Error(t, err)

	_, err = ReadFile("")
	require.Error(t, err)
}

func TestResolve(t *testing.T) {
	t.Setenv("BIOCURATE_TEST_DSN", "https://key@sentry.example/1")

	path := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(path, []byte("from-file\n"), 0o600))

	got, err := Resolve("")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Resolve(FilePrefix + path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)

	got, err = Resolve("${BIOCURATE_TEST_DSN}")
	require.NoError(t, err)
	assert.Equal(t, "https://key@sentry.example/1", got)

	got, err = Resolve("plain")
	require.NoError(t, err)
	assert.Equal(t, "plain", got)
}
