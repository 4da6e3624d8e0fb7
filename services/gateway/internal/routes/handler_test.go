package routes

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/accordsai/eventledger/pkg/gateway"

	"github.com/go-chi/chi/v5"
)

type recordedCall struct {
	kind gateway.CallKind
	req  gateway.TransactionRequest
}

type fakeCaller struct {
	mu     sync.Mutex
	calls  []recordedCall
	result []byte
	err    error
}

func (f *fakeCaller) Call(ctx context.Context, kind gateway.CallKind, req gateway.TransactionRequest) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{kind: kind, req: req})
	return f.result, f.err
}

func newRouter(c Caller) http.Handler {
	r := chi.NewRouter()
	NewHandler(c, slog.New(slog.NewTextHandler(io.Discard, nil))).Mount(r)
	return r
}

func TestRouteTableDispatch(t *testing.T) {
	// Bodies carry an extra field and omit at least one documented field.
	cases := []struct {
		method string
		path   string
		body   string
		name   string
		kind   gateway.CallKind
		args   []string
	}{
		{"POST", "/events", `{"location":"Hall A","id":"E1","date":"2025-01-01","name":"Demo","extra":"x"}`, "CreateEvent", gateway.Submit, []string{"E1", "Demo", "2025-01-01", "Hall A"}},
		{"POST", "/events", `{"id":"E1"}`, "CreateEvent", gateway.Submit, []string{"E1", "", "", ""}},
		{"GET", "/events/E1", "", "ReadEvent", gateway.Evaluate, []string{"E1"}},
		{"GET", "/allevents", "", "GetAvailableEvents", gateway.Evaluate, []string{}},
		{"PUT", "/events/E1", `{"id":"IGNORED","name":"Demo 2","location":"Hall B","date":"2025-02-01"}`, "UpdateEvent", gateway.Submit, []string{"E1", "Demo 2", "2025-02-01", "Hall B"}},
		{"DELETE", "/events/E1", "", "DeleteEvent", gateway.Submit, []string{"E1"}},
		{"POST", "/tickets", `{"status":"valid","holder":"alice","count":2,"eventName":"Demo","eventId":"E1","seat":"A1"}`, "CreateTicket", gateway.Submit, []string{"E1", "Demo", "2", "alice", "valid"}},
		{"POST", "/tickets", `{"eventId":"E1","count":"3"}`, "CreateTicket", gateway.Submit, []string{"E1", "", "3", "", ""}},
		{"GET", "/tickets/E1-alice-1", "", "ReadTicket", gateway.Evaluate, []string{"E1-alice-1"}},
		{"PUT", "/tickets/E1-alice-1", `{"status":"used","holder":"bob"}`, "UpdateTicketStatus", gateway.Submit, []string{"E1-alice-1", "used"}},
		{"PUT", "/tickets/E1-alice-1", `{}`, "UpdateTicketStatus", gateway.Submit, []string{"E1-alice-1", ""}},
		{"DELETE", "/tickets/E1-alice-1", "", "DeleteTicket", gateway.Submit, []string{"E1-alice-1"}},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			c := &fakeCaller{result: []byte(`[]`)}
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			newRouter(c).ServeHTTP(rr, req)
			if rr.Code >= 400 {
				t.Fatalf("unexpected status %d body=%s", rr.Code, rr.Body.String())
			}
			if len(c.calls) != 1 {
				t.Fatalf("expected exactly one dispatch, got %d", len(c.calls))
			}
			got := c.calls[0]
			if got.kind != tc.kind || got.req.Name != tc.name {
				t.Fatalf("expected %s %s, got %s %s", tc.kind, tc.name, got.kind, got.req.Name)
			}
			if len(got.req.Args) != len(tc.args) {
				t.Fatalf("expected args %q, got %q", tc.args, got.req.Args)
			}
			for i := range tc.args {
				if got.req.Args[i] != tc.args[i] {
					t.Fatalf("expected args %q, got %q", tc.args, got.req.Args)
				}
			}
		})
	}
}

func TestSuccessStatuses(t *testing.T) {
	cases := []struct {
		method, path string
		status       int
	}{
		{"POST", "/events", 204},
		{"GET", "/events/E1", 200},
		{"GET", "/allevents", 200},
		{"PUT", "/events/E1", 204},
		{"DELETE", "/events/E1", 200},
		{"POST", "/tickets", 204},
		{"GET", "/tickets/T1", 200},
		{"PUT", "/tickets/T1", 204},
		{"DELETE", "/tickets/T1", 200},
	}
	for _, tc := range cases {
		c := &fakeCaller{result: []byte(`[{"id":"E1"}]`)}
		rr := httptest.NewRecorder()
		newRouter(c).ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`)))
		if rr.Code != tc.status {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.status, rr.Code)
		}
	}
}

func TestFailureStatuses(t *testing.T) {
	cases := []struct {
		method, path string
		status       int
	}{
		{"POST", "/events", 500},
		{"GET", "/events/E1", 404},
		{"GET", "/allevents", 500},
		{"PUT", "/events/E1", 500},
		{"DELETE", "/events/E1", 500},
		{"POST", "/tickets", 500},
		{"GET", "/tickets/T1", 404},
		{"PUT", "/tickets/T1", 500},
		{"DELETE", "/tickets/T1", 500},
	}
	for _, tc := range cases {
		c := &fakeCaller{err: &gateway.TransactionError{Name: "X", Err: errors.New("rejected")}}
		rr := httptest.NewRecorder()
		newRouter(c).ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`)))
		if rr.Code != tc.status {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.status, rr.Code)
		}
		if !strings.Contains(rr.Body.String(), "rejected") {
			t.Fatalf("%s %s: expected cause in body, got %s", tc.method, tc.path, rr.Body.String())
		}
	}
}

func TestMalformedBodyIsRejectedBeforeDispatch(t *testing.T) {
	c := &fakeCaller{result: []byte("ok")}
	rr := httptest.NewRecorder()
	newRouter(c).ServeHTTP(rr, httptest.NewRequest("POST", "/events", strings.NewReader(`{"id":`)))
	if rr.Code != 400 {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if len(c.calls) != 0 {
		t.Fatal("expected no dispatch for malformed body")
	}
}

func TestEscapedPathIDsAreDecoded(t *testing.T) {
	cases := []struct {
		method string
		target string
		name   string
		want   string
	}{
		{"GET", "/events/org%2FE1", "ReadEvent", "org/E1"},
		{"DELETE", "/events/org%2FE1", "DeleteEvent", "org/E1"},
		{"GET", "/tickets/50%25off", "ReadTicket", "50%off"},
		{"GET", "/tickets/50%25off%2Fvip", "ReadTicket", "50%off/vip"},
		{"GET", "/events/Hall%20A", "ReadEvent", "Hall A"},
	}
	for _, tc := range cases {
		c := &fakeCaller{result: []byte(`{"id":"x"}`)}
		rr := httptest.NewRecorder()
		newRouter(c).ServeHTTP(rr, httptest.NewRequest(tc.method, tc.target, nil))
		if len(c.calls) != 1 {
			t.Fatalf("%s %s: expected one dispatch, got %d (status %d)", tc.method, tc.target, len(c.calls), rr.Code)
		}
		got := c.calls[0].req
		if got.Name != tc.name || len(got.Args) != 1 || got.Args[0] != tc.want {
			t.Fatalf("%s %s: expected %s(%q), got %s(%q)", tc.method, tc.target, tc.name, tc.want, got.Name, got.Args)
		}
	}

	c := &fakeCaller{result: []byte(`{"status":"used"}`)}
	rr := httptest.NewRecorder()
	newRouter(c).ServeHTTP(rr, httptest.NewRequest("PUT", "/tickets/org%2FE1-alice-1", strings.NewReader(`{"status":"used"}`)))
	if rr.Code != 204 || len(c.calls) != 1 || c.calls[0].req.Args[0] != "org/E1-alice-1" || c.calls[0].req.Args[1] != "used" {
		t.Fatalf("unexpected update dispatch %d %+v", rr.Code, c.calls)
	}
}

func TestInvalidPathEscapeIsRejectedBeforeDispatch(t *testing.T) {
	c := &fakeCaller{result: []byte("ok")}
	req := httptest.NewRequest("GET", "/events/x", nil)
	req.URL.RawPath = "/events/%zz"
	rr := httptest.NewRecorder()
	newRouter(c).ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "BAD_PATH") {
		t.Fatalf("expected BAD_PATH code, got %s", rr.Body.String())
	}
	if len(c.calls) != 0 {
		t.Fatal("expected no dispatch for undecodable path")
	}
}

func TestTrailingBodyDataIsRejectedBeforeDispatch(t *testing.T) {
	c := &fakeCaller{result: []byte("ok")}
	rr := httptest.NewRecorder()
	newRouter(c).ServeHTTP(rr, httptest.NewRequest("POST", "/events", strings.NewReader(`{"id":"E1"} garbage`)))
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "BAD_JSON") {
		t.Fatalf("expected 400 BAD_JSON, got %d %s", rr.Code, rr.Body.String())
	}
	if len(c.calls) != 0 {
		t.Fatal("expected no dispatch for trailing body data")
	}
}

func TestTableCoversEveryEndpointOnce(t *testing.T) {
	seen := map[string]bool{}
	for _, rt := range Table {
		key := rt.Method + " " + rt.Pattern
		if seen[key] {
			t.Fatalf("duplicate route %s", key)
		}
		seen[key] = true
	}
	if len(seen) != 9 {
		t.Fatalf("expected 9 routes, got %d", len(seen))
	}
}
