package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return body
}

func TestWriteError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusUnprocessableEntity, "VALUE ERROR", "bad age", "fix it")

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %s, want application/json", ct)
	}
	want := ErrorBody{Error: "VALUE ERROR", StatusCode: 422, Message: "bad age", Suggestion: "fix it"}
	if got := decodeError(t, rec); got != want {
		t.Errorf("body = %+v, want %+v", got, want)
	}
}

func TestWriteErrorKeys(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusNotImplemented, "NOT SUPPORTED", "m", "s")

	var raw map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, k := range []string{"error", "status_code", "message", "suggestion"} {
		if _, ok := raw[k]; !ok {
			t.Errorf("missing key %q in %v", k, raw)
		}
	}
	if raw["status_code"] != float64(501) {
		t.Errorf("status_code = %v, want 501", raw["status_code"])
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"message": "hello"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["message"] != "hello" {
		t.Errorf("message = %s, want 'hello'", resp["message"])
	}
}

func TestWriteRaw(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cache string
	}{
		{"private", CachePrivate},
		{"no cache header", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteRaw(rec, http.StatusOK, "application/json", tt.cache, []byte(`{"result":[[390.0]]}`))

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d", rec.Code)
			}
			if got := rec.Header().Get("Cache-Control"); got != tt.cache {
				t.Errorf("cache-control = %q, want %q", got, tt.cache)
			}
			if got := rec.Body.String(); got != `{"result":[[390.0]]}` {
				t.Errorf("body = %s", got)
			}
		})
	}
}

func TestCannedErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		title  string
	}{
		{"method", MethodNotAllowed, http.StatusMethodNotAllowed, "METHOD ERROR"},
		{"not found", NotFound, http.StatusNotFound, "Not Found"},
		{"internal", InternalServerError, http.StatusInternalServerError, "PROCESSING ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.write(rec)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			body := decodeError(t, rec)
			if body.Error != tt.title || body.StatusCode != tt.status {
				t.Errorf("body = %+v", body)
			}
			if body.Message == "" || body.Suggestion == "" {
				t.Errorf("empty message or suggestion: %+v", body)
			}
		})
	}
}
