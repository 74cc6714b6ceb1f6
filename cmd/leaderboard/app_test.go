package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"leaderboard-service/leaderboard/live"

	"github.com/gorilla/websocket"
)

func testConfig(t *testing.T, backend string) config {
	t.Helper()
	dir := t.TempDir()
	return config{
		listenAddr:      "127.0.0.1:0",
		storeBackend:    backend,
		dataFile:        filepath.Join(dir, "leaderboard.json"),
		sqlitePath:      filepath.Join(dir, "leaderboard.db"),
		staticDir:       dir,
		corsAllowOrigin: "*",
		rateEnabled:     true,
		rateAlgorithm:   rateAlgorithmWindow,
		rateMax:         10,
		rateWindow:      time.Minute,
		trustXFF:        true,
		retryAfter:      time.Minute,
		concurrencyMax:  10,
	}
}

func newTestApp(t *testing.T, cfg config) *app {
	t.Helper()
	a, err := newApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(func() { _ = a.close() })
	return a
}

func postScore(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/api/score", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestApp_SubmitAndReadBack(t *testing.T) {
	for _, backend := range []string{storeBackendFile, storeBackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			a := newTestApp(t, testConfig(t, backend))
			srv := httptest.NewServer(a.server.Handler)
			defer srv.Close()

			if resp := postScore(t, srv.URL, `{"name":"Ann","score":100,"coin":"BTC","time":12.5}`); resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}

			resp, err := http.Get(srv.URL + "/api/leaderboard")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			defer resp.Body.Close()
			var body struct {
				Scores []struct {
					Name string `json:"name"`
				} `json:"scores"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(body.Scores) != 1 || body.Scores[0].Name != "Ann" {
				t.Fatalf("unexpected leaderboard: %+v", body.Scores)
			}
		})
	}
}

func TestApp_RateLimitsEleventhSubmit(t *testing.T) {
	a := newTestApp(t, testConfig(t, storeBackendFile))
	srv := httptest.NewServer(a.server.Handler)
	defer srv.Close()

	for i := 0; i < 10; i++ {
		if resp := postScore(t, srv.URL, `{"name":"Ann","score":1,"coin":"C","time":1}`); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, resp.StatusCode)
		}
	}
	if resp := postScore(t, srv.URL, `{"name":"Ann","score":1,"coin":"C","time":1}`); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
}

func TestApp_LiveFeedReceivesSubmits(t *testing.T) {
	a := newTestApp(t, testConfig(t, storeBackendFile))
	srv := httptest.NewServer(a.server.Handler)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/live", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg live.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if len(msg.Scores) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", msg.Scores)
	}

	postScore(t, srv.URL, `{"name":"Ann","score":100,"coin":"BTC","time":12.5}`)

	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if len(msg.Scores) != 1 || msg.Scores[0].Name != "Ann" {
		t.Fatalf("unexpected update: %+v", msg.Scores)
	}
}

func TestTopCommand_PrintsTable(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "leaderboard.json")
	t.Setenv("STORE_BACKEND", storeBackendFile)
	t.Setenv("DATA_FILE", dataFile)

	cfg, err := readConfig()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.staticDir = dir
	a := newTestApp(t, cfg)
	srv := httptest.NewServer(a.server.Handler)
	postScore(t, srv.URL, `{"name":"Ann","score":100,"coin":"BTC","time":12.5}`)
	postScore(t, srv.URL, `{"name":"Bob","score":200,"coin":"ETH","time":3}`)
	srv.Close()

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"top", "-n", "1"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "Bob") || strings.Contains(got, "Ann") {
		t.Fatalf("expected only Bob in top 1, got:\n%s", got)
	}
	if !strings.Contains(got, "total players: 2") {
		t.Fatalf("expected total players line, got:\n%s", got)
	}
}
