package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// Cache-Control values used by the API.
const (
	CachePrivate = "private"
	CacheNoStore = "no-store"
)

// ErrorBody is the JSON document of every error response.
type ErrorBody struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

// WriteError writes an ErrorBody with the given status code.
func WriteError(w http.ResponseWriter, status int, title, msg, suggestion string) {
	WriteJSON(w, status, ErrorBody{
		Error:      title,
		StatusCode: status,
		Message:    msg,
		Suggestion: suggestion,
	})
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode json response: %v", err)
	}
}

// WriteRaw writes an already encoded body. An empty cacheControl leaves
// the header unset.
func WriteRaw(w http.ResponseWriter, status int, contentType, cacheControl string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	if cacheControl != "" {
		w.Header().Set("Cache-Control", cacheControl)
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

// MethodNotAllowed writes a 405 response.
func MethodNotAllowed(w http.ResponseWriter) {
	WriteError(w, http.StatusMethodNotAllowed, "METHOD ERROR",
		"The HTTP Method you are trying to use is not supported by any endpoint in this server.",
		"All of the endpoints support only HTTP GET requests. We suggest you try that instead.")
}

// NotFound writes a 404 response for a path that has no handler.
func NotFound(w http.ResponseWriter) {
	WriteError(w, http.StatusNotFound, "Not Found",
		"Path you are trying to visit does not exist.",
		"Please try another page, such as '/'.")
}

// InternalServerError writes a 500 response.
func InternalServerError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "PROCESSING ERROR",
		"There has been an error inside of the server.",
		"Contact system administrator for server, or try again later.")
}
