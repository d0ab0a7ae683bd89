package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/report"
)

func TestResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantErr  bool
		wantText string
	}{
		{
			name:     "success prints value",
			wantText: "INFO: done\n",
		},
		{
			name:     "not found is inline",
			err:      errors.Newf("no specimen matches code 9").Category(errors.CategoryNotFound).Build(),
			wantText: "ERROR: no specimen matches code 9\n",
		},
		{
			name:     "remote failure is inline",
			err:      errors.Newf("worksheet fetch failed").Category(errors.CategoryRemoteFetch).Build(),
			wantText: "ERROR: worksheet fetch failed\n",
		},
		{
			name:    "configuration error is returned",
			err:     errors.Newf("spreadsheet credentials missing").Category(errors.CategoryConfiguration).Build(),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var out bytes.Buffer
			s := NewSession(&out, &bytes.Buffer{}, nil)

			err := s.Result(report.Message{Level: "info", Text: "done"}, tt.err)
			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, out.String())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, out.String())
		})
	}
}

func TestPartialAppendsWarning(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	s := NewSession(&out, &bytes.Buffer{}, nil)

	require.NoError(t, s.Partial(report.Message{Level: "info", Text: "2 rows"}, context.Canceled))
	assert.Equal(t, "INFO: 2 rows\nWARN: incomplete result: context canceled\n", out.String())
}

func TestOpenRejectsUnknownFormat(t *testing.T) {
	t.Parallel()
	s := NewSession(&bytes.Buffer{}, &bytes.Buffer{}, nil)
	s.Flags.Output = "xml"

	err := s.Open(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
	assert.Nil(t, s.App)
}
