package client

import (
	"mime"
	"regexp"
)

const (
	ContentTypeApplicationJSON       = "application/json"
	ContentTypeApplicationJSONRegexp = `^application/([a-zA-Z0-9\.\-]+\+)?json$`
)

var jsonContentTypeRegexp = regexp.MustCompile(ContentTypeApplicationJSONRegexp)

// isJSONContentType matches "application/json" and "application/*+json", parameters are ignored.
func isJSONContentType(contentType string) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	return jsonContentTypeRegexp.MatchString(contentType)
}
