package inspect

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/reconciler/pkg/fiber"
	"github.com/vango-dev/reconciler/pkg/fibertest"
	"github.com/vango-dev/reconciler/pkg/metrics"
	"github.com/vango-dev/reconciler/pkg/vdom"
)

type fixture struct {
	h   *fibertest.Harness
	s   *Server
	set fiber.Setter[int]
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	reg := prometheus.NewRegistry()
	f := &fixture{}
	f.h = fibertest.New(t, fiber.WithMetrics(metrics.New(metrics.WithRegistry(reg))))

	comp := fiber.Define("Counter", func(hk *fiber.Hooks, _ vdom.Props) *vdom.Node {
		n, set := fiber.UseState(hk, 0)
		f.set = set
		return vdom.Span(vdom.Textf("%d", n))
	})
	f.h.Render(comp.New(nil))

	f.s = New(f.h.Root, f.h.Host, append([]Option{WithGatherer(reg)}, opts...)...)
	t.Cleanup(f.s.Close)
	return f
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s status = %d, want 200", path, rec.Code)
	}
	return rec
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	rec := get(t, f.s, "/healthz")
	if got := rec.Body.String(); got != "ok" {
		t.Errorf("body = %q, want %q", got, "ok")
	}
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t)

	var resp SnapshotResponse
	if err := json.NewDecoder(get(t, f.s, "/snapshot").Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Snapshot != "<span>0</span>" {
		t.Errorf("Snapshot = %q, want %q", resp.Snapshot, "<span>0</span>")
	}
	if want := digestString(f.h.Host.Digest()); resp.Digest != want {
		t.Errorf("Digest = %q, want %q", resp.Digest, want)
	}
	if resp.Commits != 1 {
		t.Errorf("Commits = %d, want 1", resp.Commits)
	}

	text := get(t, f.s, "/snapshot?format=text").Body.String()
	if text != "<span>0</span>" {
		t.Errorf("text snapshot = %q", text)
	}
}

func TestTreeAndStats(t *testing.T) {
	f := newFixture(t)

	var tree fiber.TreeNode
	if err := json.NewDecoder(get(t, f.s, "/tree").Body).Decode(&tree); err != nil {
		t.Fatalf("decode tree: %v", err)
	}
	n := tree.Find("Counter")
	if n == nil {
		t.Fatal("tree has no Counter unit")
	}
	if len(n.Hooks) != 1 || n.Hooks[0] != "state" {
		t.Errorf("Counter hooks = %v, want [state]", n.Hooks)
	}

	var stats StatsResponse
	if err := json.NewDecoder(get(t, f.s, "/stats").Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Commits != 1 {
		t.Errorf("Commits = %d, want 1", stats.Commits)
	}
	if stats.Working {
		t.Error("Working = true, want false")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	body := get(t, f.s, "/metrics").Body.String()
	if !strings.Contains(body, "fiber_reconciler_commits_total 1") {
		t.Errorf("metrics output missing commit counter:\n%s", body)
	}
}

func TestCommitStream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.s)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	deadline := time.Now().Add(2 * time.Second)
	for f.s.stream.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	f.set.Set(5)
	f.h.Drain()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Commit.Seq != 2 {
		t.Errorf("Commit.Seq = %d, want 2", ev.Commit.Seq)
	}
	if len(ev.Ops) != 1 || ev.Ops[0].Op != vdom.PatchSetText || ev.Ops[0].Value != "5" {
		t.Errorf("Ops = %v, want one SetText to 5", ev.Ops)
	}
	if want := digestString(f.h.Host.Digest()); ev.Digest != want {
		t.Errorf("Digest = %q, want %q", ev.Digest, want)
	}
}

func TestCloseDisconnectsClients(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.s)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for f.s.stream.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	f.s.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("ReadMessage error = %v, want normal close", err)
	}
}

func TestCheckOrigin(t *testing.T) {
	f := newFixture(t, WithAllowedOrigins("https://allowed.example"))

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://example.com", true},
		{"https://allowed.example", true},
		{"https://evil.example", false},
		{"::bad", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		if got := f.s.stream.checkOrigin(req); got != tt.want {
			t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	f.s.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
