package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChain_FirstGuardIsOutermost(t *testing.T) {
	var trace []string
	mark := func(name string) Guard {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trace = append(trace, "handler")
	})

	h := Chain(mark("a"), nil, mark("b"))(final)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "http://example/", nil))

	if got := strings.Join(trace, ","); got != "a,b,handler" {
		t.Fatalf("expected a,b,handler, got %s", got)
	}
}

func TestChain_GuardCanShortCircuit(t *testing.T) {
	stop := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
	}
	called := false
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	w := httptest.NewRecorder()
	Chain(stop)(final).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example/", nil))

	if called || w.Code != http.StatusTeapot {
		t.Fatalf("expected short-circuit with 418, got called=%v code=%d", called, w.Code)
	}
}
