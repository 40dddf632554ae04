package player

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"

	"github.com/vecplay/vecplay/internal/util"
)

// MaxFileSize is the hard ceiling for animation documents, before and
// after decompression. Oversized content is rejected, never streamed.
const MaxFileSize = 2 << 20

// ReadContent returns the document bytes: a copy of data when non-empty,
// otherwise the file at path if it fits the size ceiling. Every failure
// collapses to nil, which propagates as ErrParseFailed downstream.
func ReadContent(data []byte, path string) []byte {
	if len(data) > 0 {
		return append([]byte(nil), data...)
	}
	return readFile(path)
}

func readFile(path string) []byte {
	fi, err := os.Stat(path)
	if err != nil || fi.Size() > MaxFileSize {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return data
}

// UnpackGzip attempts a single-shot inflate into a scratch buffer of
// MaxFileSize+1 bytes. Non-gzip input, a broken stream or output that
// exhausts the scratch buffer all fall back to returning the original
// bytes unchanged; the uniform size and parse checks downstream keep the
// result honest.
func UnpackGzip(data []byte) []byte {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return data
	}
	defer r.Close()

	buf := make([]byte, MaxFileSize+1)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		util.GetLogger().Debug("gzip unpack fell back to raw content", "error", err)
		return data
	}
	if n > MaxFileSize {
		// Filled the whole scratch buffer in one pass, so the inflated
		// size is unknown and over the ceiling either way.
		return data
	}
	return buf[:n]
}
