package middleware

import (
	"net/http"
	"strings"

	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
)

var formContentTypes = map[string]bool{
	"application/x-www-form-urlencoded": true,
	"multipart/form-data":               true,
}

// FormContentType requires state-changing requests to carry an HTML form
// body. Paths under one of skipPrefixes are left alone.
func FormContentType(log *logger.Logger, onError ErrorWriter, skipPrefixes ...string) func(http.Handler) http.Handler {
	onError = orJSON(onError)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requiresContentType(r.Method) && !skipped(r.URL.Path, skipPrefixes) {
				contentType := extractContentType(r.Header.Get("Content-Type"))

				if !formContentTypes[contentType] {
					log.Warn("Invalid Content-Type header",
						"request_id", requestID(r),
						"content_type", contentType,
						"path", r.URL.Path,
						"method", r.Method,
					)
					onError(w, r, apperrors.New(apperrors.CodeBadRequest,
						"Unsupported content type", http.StatusUnsupportedMediaType))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requiresContentType(method string) bool {
	return method == http.MethodPost || method == http.MethodPut ||
		method == http.MethodPatch || method == http.MethodDelete
}

func skipped(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func extractContentType(header string) string {
	if header == "" {
		return ""
	}

	parts := strings.Split(header, ";")
	return strings.ToLower(strings.TrimSpace(parts[0]))
}
