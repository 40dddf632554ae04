package player

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipped(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestUnpackGzip(t *testing.T) {
	original := []byte(`{"fr":30,"ip":0,"op":60,"w":100,"h":100}`)

	tests := []struct {
		name  string
		input func(t *testing.T) []byte
		want  func(t *testing.T, input, output []byte)
	}{
		{
			name:  "valid_gzip_roundtrips_exactly",
			input: func(t *testing.T) []byte { return gzipped(t, original) },
			want: func(t *testing.T, input, output []byte) {
				assert.Equal(t, original, output)
			},
		},
		{
			name:  "non_gzip_passes_through",
			input: func(t *testing.T) []byte { return original },
			want: func(t *testing.T, input, output []byte) {
				assert.Equal(t, input, output)
			},
		},
		{
			name: "corrupt_stream_passes_through",
			input: func(t *testing.T) []byte {
				data := gzipped(t, bytes.Repeat([]byte("abcd"), 1024))
				for i := len(data) / 2; i < len(data); i++ {
					data[i] ^= 0xff
				}
				return data
			},
			want: func(t *testing.T, input, output []byte) {
				assert.Equal(t, input, output)
			},
		},
		{
			name: "oversized_inflate_passes_through",
			input: func(t *testing.T) []byte {
				return gzipped(t, make([]byte, MaxFileSize+100))
			},
			want: func(t *testing.T, input, output []byte) {
				assert.Equal(t, input, output)
			},
		},
		{
			name:  "empty_input_passes_through",
			input: func(t *testing.T) []byte { return nil },
			want: func(t *testing.T, input, output []byte) {
				assert.Empty(t, output)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input(t)
			tt.want(t, input, UnpackGzip(input))
		})
	}
}

func TestReadContent(t *testing.T) {
	t.Run("prefers_supplied_bytes", func(t *testing.T) {
		data := []byte("inline")
		got := ReadContent(data, "/nonexistent/path")
		assert.Equal(t, data, got)

		// Must be a copy, not an alias.
		got[0] = 'X'
		assert.Equal(t, byte('i'), data[0])
	})

	t.Run("reads_bounded_file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "doc.json")
		require.NoError(t, os.WriteFile(path, []byte("from-file"), 0o644))
		assert.Equal(t, []byte("from-file"), ReadContent(nil, path))
	})

	t.Run("oversized_file_collapses_to_nil", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "huge.json")
		require.NoError(t, os.WriteFile(path, make([]byte, MaxFileSize+1), 0o644))
		assert.Nil(t, ReadContent(nil, path))
	})

	t.Run("missing_file_collapses_to_nil", func(t *testing.T) {
		assert.Nil(t, ReadContent(nil, filepath.Join(t.TempDir(), "missing.json")))
	})
}
