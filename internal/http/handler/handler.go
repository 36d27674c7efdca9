package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"bloggers-platform/internal/http/response"
)

// decodeJSON parses the request body into dst. A false return means the
// request has already been answered with a 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer io.Copy(io.Discard, r.Body)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			response.Status(w, http.StatusRequestEntityTooLarge)
			return false
		}
		response.ValidationError(w, response.ErrorMessage{Message: "invalid request body", Field: "body"})
		return false
	}
	return true
}

// clientIP yields the caller address with the port stripped. RealIP middleware
// has already rewritten RemoteAddr when a proxy header is present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func deviceName(r *http.Request) string {
	ua := strings.TrimSpace(r.UserAgent())
	if ua == "" {
		return "unknown"
	}
	return ua
}
