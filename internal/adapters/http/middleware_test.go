package httpadapter

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/game-expert/internal/core/domain"
)

func TestRequestIDMiddlewareKeepsValidInboundID(t *testing.T) {
	var seen string
	handler := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = domain.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "  trace-42 ")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if seen != "trace-42" || res.Header().Get(requestIDHeader) != "trace-42" {
		t.Fatalf("expected inbound id to be kept, got context=%q header=%q", seen, res.Header().Get(requestIDHeader))
	}
}

func TestInboundRequestIDReplacesUnusableValues(t *testing.T) {
	for _, raw := range []string{"", "has space", "line\nbreak", strings.Repeat("a", maxRequestIDBytes+1)} {
		got := inboundRequestID(raw)
		if got == raw || len(got) != 36 {
			t.Fatalf("expected generated uuid for %q, got %q", raw, got)
		}
	}
}

func TestAccessLogLevel(t *testing.T) {
	cases := map[int]string{
		http.StatusOK:                  "INFO",
		http.StatusBadRequest:          "WARN",
		http.StatusInternalServerError: "ERROR",
	}
	for status, want := range cases {
		if got := accessLogLevel(status).String(); got != want {
			t.Fatalf("accessLogLevel(%d) = %s, want %s", status, got, want)
		}
	}
}
