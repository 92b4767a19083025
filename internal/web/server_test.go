package web

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskdash/internal/dashboard"
	"taskdash/internal/store"
)

type stateResponse struct {
	Tasks []struct {
		ID       int64  `json:"id"`
		TaskID   string `json:"task_id"`
		Status   string `json:"status"`
		Subtasks []struct {
			SubTaskID string `json:"sub_task_id"`
			Status    string `json:"status"`
		} `json:"subtasks"`
	} `json:"tasks"`
	Expanded  []string `json:"expanded"`
	Error     string   `json:"error"`
	ActionKey string   `json:"action_key"`
	Loaded    bool     `json:"loaded"`
	Modal     *struct {
		Mode  string `json:"mode"`
		Draft *struct {
			TaskID  string `json:"task_id"`
			Summary string `json:"summary"`
		} `json:"draft"`
		Viewing *struct {
			TaskID    string `json:"task_id"`
			SubTaskID string `json:"sub_task_id"`
		} `json:"viewing"`
		AgentSummaryHTML string `json:"agent_summary_html"`
	} `json:"modal"`
}

func testServer(t *testing.T, heartbeat time.Duration) (*Server, *dashboard.Controller) {
	t.Helper()
	return testServerWithSleep(t, heartbeat, func(ctx context.Context, d time.Duration) error { return ctx.Err() })
}

func testServerWithSleep(t *testing.T, heartbeat time.Duration, sleep func(context.Context, time.Duration) error) (*Server, *dashboard.Controller) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	demo := store.NewDemoStore(st, store.DemoOptions{Sleep: sleep})
	ctrl := dashboard.New(dashboard.Options{Store: demo, Expanded: store.NewExpandedState(st)})
	t.Cleanup(ctrl.Close)
	if err := ctrl.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	srv, err := New(Options{Addr: "127.0.0.1:0", Controller: ctrl, Heartbeat: heartbeat})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv, ctrl
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) stateResponse {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp stateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder, status int) errorResponse {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, w.Code, w.Body.String())
	}
	var resp errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return resp
}

func TestNewRequiresController(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error for missing controller")
	}
}

func TestListenAddrRemoteGuard(t *testing.T) {
	t.Run("allows loopback", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		addr, err := ListenAddr("127.0.0.1:7420")
		if err != nil || addr != "127.0.0.1:7420" {
			t.Fatalf("expected loopback allowed, got %q %v", addr, err)
		}
	})

	t.Run("blocks non-loopback by default", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		if _, err := ListenAddr("0.0.0.0:7420"); err == nil {
			t.Fatal("expected error for non-loopback listen host")
		}
	})

	t.Run("allows non-loopback when explicitly enabled", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "true")
		if _, err := ListenAddr("0.0.0.0:7420"); err != nil {
			t.Fatalf("expected allow-remote to permit host, got %v", err)
		}
	})

	t.Run("rejects malformed", func(t *testing.T) {
		if _, err := ListenAddr("7420"); err == nil {
			t.Fatal("expected error for address without port separator")
		}
	})
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t, 0)
	w := doRequest(t, srv.Handler(), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response %d %s", w.Code, w.Body.String())
	}
}

func TestStateReturnsTree(t *testing.T) {
	srv, _ := testServer(t, 0)
	resp := decodeState(t, doRequest(t, srv.Handler(), http.MethodGet, "/api/state", ""))

	if !resp.Loaded || len(resp.Tasks) != 1 {
		t.Fatalf("expected one loaded root, got %+v", resp)
	}
	root := resp.Tasks[0]
	if root.TaskID != "KAN-10" || len(root.Subtasks) != 2 {
		t.Fatalf("unexpected root %+v", root)
	}
	if root.Subtasks[0].SubTaskID != "KAN-12" || root.Subtasks[1].SubTaskID != "KAN-11" {
		t.Fatalf("unexpected subtask order %+v", root.Subtasks)
	}
}

func TestExpandToggleAndSet(t *testing.T) {
	srv, _ := testServer(t, 0)
	h := srv.Handler()

	resp := decodeState(t, doRequest(t, h, http.MethodPost, "/api/expanded/KAN-10", ""))
	if len(resp.Expanded) != 1 || resp.Expanded[0] != "3" {
		t.Fatalf("expected node id 3 expanded, got %v", resp.Expanded)
	}

	resp = decodeState(t, doRequest(t, h, http.MethodPost, "/api/expanded/KAN-10", `{"expanded":true}`))
	if len(resp.Expanded) != 1 {
		t.Fatalf("expected set to stay expanded, got %v", resp.Expanded)
	}

	resp = decodeState(t, doRequest(t, h, http.MethodPost, "/api/expanded/KAN-10", `{"expanded":false}`))
	if len(resp.Expanded) != 0 {
		t.Fatalf("expected collapsed, got %v", resp.Expanded)
	}

	decodeError(t, doRequest(t, h, http.MethodPost, "/api/expanded/KAN-10", `{"expanded":`), http.StatusBadRequest)
}

func TestViewModalRendersSummary(t *testing.T) {
	srv, _ := testServer(t, 0)
	h := srv.Handler()

	resp := decodeState(t, doRequest(t, h, http.MethodPost, "/api/modal", `{"mode":"view","key":"KAN-11"}`))
	if resp.Modal == nil || resp.Modal.Mode != "view" || resp.Modal.Viewing.SubTaskID != "KAN-11" {
		t.Fatalf("unexpected modal %+v", resp.Modal)
	}
	if !strings.HasPrefix(resp.Modal.AgentSummaryHTML, "<p>Successfully completed Subtask KAN-11") {
		t.Fatalf("expected rendered summary, got %q", resp.Modal.AgentSummaryHTML)
	}

	resp = decodeState(t, doRequest(t, h, http.MethodPost, "/api/modal/parent", ""))
	if resp.Modal.Viewing.TaskID != "KAN-10" || resp.Modal.Viewing.SubTaskID != "" {
		t.Fatalf("expected parent view, got %+v", resp.Modal.Viewing)
	}

	decodeError(t, doRequest(t, h, http.MethodPost, "/api/modal/parent", ""), http.StatusConflict)

	resp = decodeState(t, doRequest(t, h, http.MethodDelete, "/api/modal", ""))
	if resp.Modal != nil {
		t.Fatalf("expected modal closed, got %+v", resp.Modal)
	}
}

func TestRenderMarkdownEscapesRawHTML(t *testing.T) {
	out, err := renderMarkdown("## Done\n<script>alert(1)</script>")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<h2>Done</h2>") || strings.Contains(out, "<script>") {
		t.Fatalf("unexpected html %q", out)
	}
}

func TestOpenModalErrors(t *testing.T) {
	srv, _ := testServer(t, 0)
	h := srv.Handler()

	resp := decodeError(t, doRequest(t, h, http.MethodPost, "/api/modal", `{"mode":"wizard"}`), http.StatusBadRequest)
	if resp.Code != "invalid_argument" {
		t.Fatalf("unexpected code %q", resp.Code)
	}
	decodeError(t, doRequest(t, h, http.MethodPost, "/api/modal", `{"mode":"edit","key":"NOPE-1"}`), http.StatusNotFound)
	decodeError(t, doRequest(t, h, http.MethodPost, "/api/modal/save", ""), http.StatusConflict)
	decodeError(t, doRequest(t, h, http.MethodPatch, "/api/modal/draft", `{"summary":"x"}`), http.StatusConflict)
}

func TestCreateTaskFlow(t *testing.T) {
	srv, _ := testServer(t, 0)
	h := srv.Handler()

	resp := decodeState(t, doRequest(t, h, http.MethodPost, "/api/modal", `{"mode":"new-task"}`))
	if resp.Modal.Draft == nil || resp.Modal.Draft.TaskID != "TASK-002" {
		t.Fatalf("unexpected draft %+v", resp.Modal.Draft)
	}

	decodeError(t, doRequest(t, h, http.MethodPatch, "/api/modal/draft", `{"status":"SHIPPED"}`), http.StatusBadRequest)

	resp = decodeState(t, doRequest(t, h, http.MethodPatch, "/api/modal/draft", `{"summary":"Ship it"}`))
	if resp.Modal.Draft.Summary != "Ship it" {
		t.Fatalf("expected draft updated, got %+v", resp.Modal.Draft)
	}

	resp = decodeState(t, doRequest(t, h, http.MethodPost, "/api/modal/save", ""))
	if resp.Modal != nil {
		t.Fatal("expected modal closed after save")
	}
	if len(resp.Tasks) != 2 || resp.Tasks[0].TaskID != "TASK-002" || resp.Tasks[0].ID != 4 {
		t.Fatalf("expected new task first, got %+v", resp.Tasks)
	}
}

func TestActionEndpoint(t *testing.T) {
	srv, _ := testServer(t, 0)
	h := srv.Handler()

	resp := decodeState(t, doRequest(t, h, http.MethodPost, "/api/actions", `{"key":"KAN-11","action":"plan"}`))
	if resp.ActionKey != "" {
		t.Fatalf("expected action key cleared, got %q", resp.ActionKey)
	}
	var status string
	for _, sub := range resp.Tasks[0].Subtasks {
		if sub.SubTaskID == "KAN-11" {
			status = sub.Status
		}
	}
	if status != "READY" {
		t.Fatalf("expected KAN-11 READY after plan, got %q", status)
	}

	decodeError(t, doRequest(t, h, http.MethodPost, "/api/actions", `{"key":"KAN-11","action":"deploy"}`), http.StatusBadRequest)
	decodeError(t, doRequest(t, h, http.MethodPost, "/api/actions", `{"key":"NOPE-1","action":"plan"}`), http.StatusNotFound)
}

func TestActionCompletesAfterClientDisconnect(t *testing.T) {
	srv, ctrl := testServerWithSleep(t, 0, func(ctx context.Context, d time.Duration) error {
		select {
		case <-time.After(d / 4):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	h := srv.Handler()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/actions", strings.NewReader(`{"key":"KAN-11","action":"plan"}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after disconnect, got %d: %s", w.Code, w.Body.String())
	}
	state := ctrl.Snapshot()
	if state.Error != "" {
		t.Fatalf("expected no banner, got %q", state.Error)
	}
	rec, ok := findSubtask(state, "KAN-11")
	if !ok || rec != "READY" {
		t.Fatalf("expected KAN-11 READY, got %q", rec)
	}
}

func findSubtask(state dashboard.State, subTaskID string) (string, bool) {
	for _, node := range state.Tasks {
		for _, sub := range node.Subtasks {
			if sub.SubTaskID == subTaskID {
				return string(sub.Status), true
			}
		}
	}
	return "", false
}

func TestActionWithoutRepoSetsBanner(t *testing.T) {
	srv, _ := testServer(t, 0)
	h := srv.Handler()

	decodeState(t, doRequest(t, h, http.MethodPost, "/api/modal", `{"mode":"new-task"}`))
	decodeState(t, doRequest(t, h, http.MethodPost, "/api/modal/save", ""))

	errResp := decodeError(t, doRequest(t, h, http.MethodPost, "/api/actions", `{"key":"TASK-002","action":"develop"}`), http.StatusBadRequest)
	if errResp.Error != "Repository URL is required to run tasks." {
		t.Fatalf("unexpected error %q", errResp.Error)
	}
	resp := decodeState(t, doRequest(t, h, http.MethodGet, "/api/state", ""))
	if resp.Error != errResp.Error {
		t.Fatalf("expected banner set, got %q", resp.Error)
	}

	resp = decodeState(t, doRequest(t, h, http.MethodDelete, "/api/error", ""))
	if resp.Error != "" {
		t.Fatalf("expected banner dismissed, got %q", resp.Error)
	}
}

func TestReload(t *testing.T) {
	srv, _ := testServer(t, 0)
	resp := decodeState(t, doRequest(t, srv.Handler(), http.MethodPost, "/api/reload", ""))
	if !resp.Loaded || len(resp.Tasks) != 1 {
		t.Fatalf("unexpected state after reload %+v", resp)
	}
}

func TestEventsStreamStateAndHeartbeat(t *testing.T) {
	srv, ctrl := testServer(t, 20*time.Millisecond)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get events: %v", err)
	}
	defer res.Body.Close()
	if ct := res.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(res.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	next := func(event string) string {
		t.Helper()
		deadline := time.After(3 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed before %q", event)
				}
				if line != "event: "+event {
					continue
				}
				select {
				case data := <-lines:
					return strings.TrimPrefix(data, "data: ")
				case <-deadline:
					t.Fatalf("no data for %q", event)
				}
			case <-deadline:
				t.Fatalf("timed out waiting for %q", event)
			}
		}
	}

	if data := next("state"); !strings.Contains(data, `"KAN-10"`) {
		t.Fatalf("expected initial snapshot, got %s", data)
	}

	ctrl.OpenJiraImport()
	deadline := time.Now().Add(3 * time.Second)
	for {
		if data := next("state"); strings.Contains(data, `"jira-import"`) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expected state event for the opened dialog")
		}
	}

	if data := next("heartbeat"); !strings.Contains(data, "timestamp") {
		t.Fatalf("unexpected heartbeat %s", data)
	}
}
