package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mosefak/medchat/internal/middleware"
)

type allowAll struct{ allow bool }

func (a allowAll) Allow(userID string) bool { return a.allow }
func (a allowAll) Reset(userID string)      {}

func newTestAPI(allow bool) *API {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	// The engine is only reached on fully valid requests, which these
	// tests do not exercise.
	return NewAPI(nil, allowAll{allow: allow}, middleware.NewMetrics(), logger, 5*time.Second)
}

func postAsk(t *testing.T, api *API, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	rec := httptest.NewRecorder()
	api.Router().ServeHTTP(rec, req)
	return rec
}

func TestAskRejectsMalformedBody(t *testing.T) {
	rec := postAsk(t, newTestAPI(true), "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAskRequiresIdentifyingFields(t *testing.T) {
	bodies := map[string]string{
		"missing question and thread": `{"user_id":"1","role":"Patient"}`,
		"missing user_id":             `{"question":"hi","thread_id":"t1","role":"Patient"}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			rec := postAsk(t, newTestAPI(true), body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestAskRejectsUnknownRole(t *testing.T) {
	rec := postAsk(t, newTestAPI(true), `{"question":"hi","thread_id":"t1","user_id":"1","role":"superuser"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unrecognized role") {
		t.Errorf("expected role error in body, got %q", rec.Body.String())
	}
}

func TestAskRateLimited(t *testing.T) {
	rec := postAsk(t, newTestAPI(false), `{"question":"hi","thread_id":"t1","user_id":"1","role":"Patient"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	newTestAPI(true).Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
