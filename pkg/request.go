package pkg

import (
	"mime"
	"net/http"
)

// IsJSONRequest reports whether the request body is declared as JSON.
// Media type parameters such as charset are accepted.
func IsJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == ContentType.JSON
}
