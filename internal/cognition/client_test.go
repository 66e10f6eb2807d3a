package cognition

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func intentServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPProviderParsesWrappedIntent(t *testing.T) {
	srv := intentServer(t, `Here is my decision: {"action": "explore", "target_x": 3, "target_y": 4} hope that helps`)
	p := NewHTTPProvider(srv.URL, "", time.Second, 10)

	intent, err := p.Propose(context.Background(), Request{AgentID: 1})
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if intent.Action != "explore" {
		t.Errorf("action = %q, want explore", intent.Action)
	}
	if intent.TargetX == nil || *intent.TargetX != 3 || intent.TargetY == nil || *intent.TargetY != 4 {
		t.Errorf("target = (%v,%v), want (3,4)", intent.TargetX, intent.TargetY)
	}
}

func TestHTTPProviderRejectsUnknownAction(t *testing.T) {
	srv := intentServer(t, `{"action": "dance"}`)
	p := NewHTTPProvider(srv.URL, "", time.Second, 10)
	if _, err := p.Propose(context.Background(), Request{}); err == nil {
		t.Error("out-of-vocabulary action must fail schema validation")
	}
}

func TestHTTPProviderRejectsExtraFields(t *testing.T) {
	srv := intentServer(t, `{"action": "idle", "teleport_to": "the moon"}`)
	p := NewHTTPProvider(srv.URL, "", time.Second, 10)
	if _, err := p.Propose(context.Background(), Request{}); err == nil {
		t.Error("additional properties must fail schema validation")
	}
}

func TestHTTPProviderRejectsProseOnly(t *testing.T) {
	srv := intentServer(t, `I would rather not say.`)
	p := NewHTTPProvider(srv.URL, "", time.Second, 10)
	if _, err := p.Propose(context.Background(), Request{}); err == nil {
		t.Error("response without a JSON object must error")
	}
}

func TestHTTPProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	p := NewHTTPProvider(srv.URL, "", time.Second, 10)
	if _, err := p.Propose(context.Background(), Request{}); err == nil {
		t.Error("non-200 status must surface as an error")
	}
}

func TestHTTPProviderRateLimit(t *testing.T) {
	srv := intentServer(t, `{"action": "idle"}`)
	p := NewHTTPProvider(srv.URL, "", time.Second, 1)

	if _, err := p.Propose(context.Background(), Request{}); err != nil {
		t.Fatalf("first call should pass the limiter: %v", err)
	}
	if _, err := p.Propose(context.Background(), Request{}); err == nil {
		t.Error("second call within the minute must be rate limited")
	}
}

func TestNewHTTPProviderDisabled(t *testing.T) {
	if p := NewHTTPProvider("", "key", time.Second, 10); p != nil {
		t.Error("empty endpoint must yield a nil provider")
	}
	var p *HTTPProvider
	if p.Enabled() {
		t.Error("nil provider reports enabled")
	}
}
