// Package decode decompresses HTTP bodies by the Content-Encoding header.
package decode

import (
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// Decode wraps the body by a decompressing reader, the body is returned unchanged for an unknown encoding.
func Decode(body io.ReadCloser, contentEncoding string) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip":
		v, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("cannot decode gzip: %w", err)
		}
		return v, nil
	case "br":
		return io.NopCloser(brotli.NewReader(body)), nil
	default:
		return body, nil
	}
}
