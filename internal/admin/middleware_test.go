package admin

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func requestLogs(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("decode log line %q: %v", sc.Text(), err)
		}
		if entry["message"] == "admin_request" {
			out = append(out, entry)
		}
	}
	return out
}

func TestRequestLogCarriesServiceAndAuthOutcome(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	s := New(Config{ID: "gemctl-test", Addr: ":0", Token: "s3cret"}, stubRegistry{}, zerolog.New(&buf))

	serve(t, s, "/health")
	serve(t, s, "/connections")
	req := httptest.NewRequest(http.MethodGet, "/connections", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	s.HTTPRouter().ServeHTTP(httptest.NewRecorder(), req)
	serve(t, s, "/nowhere")

	logs := requestLogs(t, &buf)
	if len(logs) != 4 {
		t.Fatalf("expected 4 request logs, got %d", len(logs))
	}
	want := []struct {
		route, auth, level string
		status             float64
	}{
		{route: "/health", auth: authOpen, level: "debug", status: 200},
		{route: "/connections", auth: authDenied, level: "warn", status: 401},
		{route: "/connections", auth: authOK, level: "debug", status: 200},
		{route: "unmatched", auth: authOpen, level: "warn", status: 404},
	}
	for i, w := range want {
		got := logs[i]
		if got["service"] != "gemctl-test" || got["component"] != "admin" {
			t.Fatalf("log %d missing tags: %v", i, got)
		}
		if got["route"] != w.route || got["auth"] != w.auth || got["level"] != w.level || got["status"] != w.status {
			t.Fatalf("log %d = %v, want %+v", i, got, w)
		}
	}
}
