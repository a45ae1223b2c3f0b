package client

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/forgerock/iga-go-client/pkg/request"
)

func requestBody(r request.HTTPRequest) (io.ReadCloser, error) {
	contentType := r.RequestHeader().Get("Content-Type")
	switch v := r.RequestBody().(type) {
	case nil:
		return nil, nil
	case string:
		return io.NopCloser(strings.NewReader(v)), nil
	case []byte:
		return io.NopCloser(bytes.NewReader(v)), nil
	case io.ReadSeekCloser:
		if _, err := v.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		return v, nil
	case io.ReadSeeker:
		if _, err := v.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		return io.NopCloser(v), nil
	default:
		if !isJSONContentType(contentType) {
			return nil, fmt.Errorf(`unsupported body type "%T" for content type "%s"`, v, contentType)
		}
		c, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf(`cannot encode JSON body: %w`, err)
		}
		return io.NopCloser(bytes.NewReader(c)), nil
	}
}
