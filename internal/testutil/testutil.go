// Package testutil provides shared test utilities and fixtures.
//
// The analytic engine computes every quantity over the closed-form
// reference tables of refdata.Analytic, so handler and CLI tests run
// without the CVRL data files.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/banshee-data/ciefunctions/internal/colorimetry"
	"github.com/banshee-data/ciefunctions/internal/httputil"
	"github.com/banshee-data/ciefunctions/internal/refdata"
)

var (
	analyticOnce   sync.Once
	analyticEngine *colorimetry.Engine
)

// AnalyticEngine returns a process-wide engine over the analytic tables.
func AnalyticEngine(t testing.TB) *colorimetry.Engine {
	t.Helper()
	analyticOnce.Do(func() {
		cache := refdata.NewObserverCache(refdata.Analytic())
		analyticEngine = colorimetry.NewEngine(cache, colorimetry.DefaultSolverConfig())
	})
	return analyticEngine
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// DecodeErrorBody parses an API error response.
func DecodeErrorBody(t testing.TB, rec *httptest.ResponseRecorder) httputil.ErrorBody {
	t.Helper()
	var body httputil.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body
}

// AssertErrorBody checks the status and the title and message of an API
// error response. An empty msg is not compared.
func AssertErrorBody(t testing.TB, rec *httptest.ResponseRecorder, status int, title, msg string) {
	t.Helper()
	AssertStatusCode(t, rec.Code, status)
	body := DecodeErrorBody(t, rec)
	if body.StatusCode != status {
		t.Errorf("status_code = %d, want %d", body.StatusCode, status)
	}
	if body.Error != title {
		t.Errorf("error = %q, want %q", body.Error, title)
	}
	if msg != "" && body.Message != msg {
		t.Errorf("message = %q, want %q", body.Message, msg)
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}
