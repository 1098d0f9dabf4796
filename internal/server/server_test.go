package server

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/kaelorun/agentcore/internal/bashexec"
	"github.com/kaelorun/agentcore/internal/events"
	"github.com/kaelorun/agentcore/internal/toolkit/fileops"
	"github.com/kaelorun/agentcore/internal/workspace"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	store, err := events.NewStore(filepath.Join(dir, "bash_events"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	executor := bashexec.NewExecutor(store)
	ops := fileops.New(workspace.New(dir))

	return New(Config{
		Store:    store,
		Executor: executor,
		Files:    ops,
	})
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestHandleAlive(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/alive", nil)
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("got %+v", body)
	}
}

func TestHandleExecuteBashCommand(t *testing.T) {
	s := newTestServer(t)
	payload, _ := json.Marshal(startBashRequest{Command: "echo hi"})
	req := httptest.NewRequest("POST", "/bash/execute_bash_command", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var ev events.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.ExitCode == nil || *ev.ExitCode != 0 {
		t.Fatalf("got event %+v", ev)
	}
	if ev.Stdout == nil || *ev.Stdout != "hi\n" {
		t.Fatalf("got stdout %+v", ev.Stdout)
	}
}

func TestHandleStartBashCommandThenSearch(t *testing.T) {
	s := newTestServer(t)
	payload, _ := json.Marshal(startBashRequest{Command: "true"})
	req := httptest.NewRequest("POST", "/bash/start_bash_command", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)

	var cmdEvent events.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &cmdEvent); err != nil {
		t.Fatalf("decode: %v", err)
	}

	searchReq := httptest.NewRequest("GET", "/bash/bash_events/search?command_id="+cmdEvent.ID.String(), nil)
	searchRec := httptest.NewRecorder()
	s.Mux().ServeHTTP(searchRec, searchReq)

	var page struct {
		Items []events.Event `json:"items"`
	}
	if err := json.Unmarshal(searchRec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if len(page.Items) == 0 {
		t.Fatalf("expected at least the command event, got none")
	}
}

func TestHandleFileWriteThenRead(t *testing.T) {
	s := newTestServer(t)
	writePayload, _ := json.Marshal(fileWriteRequest{Path: "notes.txt", Content: "hello\n"})
	writeReq := httptest.NewRequest("POST", "/file/write", bytes.NewReader(writePayload))
	writeRec := httptest.NewRecorder()
	s.Mux().ServeHTTP(writeRec, writeReq)

	var writeResp fileResponse
	if err := json.Unmarshal(writeRec.Body.Bytes(), &writeResp); err != nil {
		t.Fatalf("decode write: %v", err)
	}
	if !writeResp.Success {
		t.Fatalf("write failed: %+v", writeResp)
	}

	readPayload, _ := json.Marshal(fileReadRequest{Path: "notes.txt"})
	readReq := httptest.NewRequest("POST", "/file/read", bytes.NewReader(readPayload))
	readRec := httptest.NewRecorder()
	s.Mux().ServeHTTP(readRec, readReq)

	var readResp fileResponse
	if err := json.Unmarshal(readRec.Body.Bytes(), &readResp); err != nil {
		t.Fatalf("decode read: %v", err)
	}
	if !readResp.Success || readResp.Content == nil {
		t.Fatalf("read failed: %+v", readResp)
	}
}

func TestHandleFileReadMissingFileReturnsSuccessFalse(t *testing.T) {
	s := newTestServer(t)
	payload, _ := json.Marshal(fileReadRequest{Path: "missing.txt"})
	req := httptest.NewRequest("POST", "/file/read", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)

	var resp fileResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success || resp.Error == nil {
		t.Fatalf("expected failure response, got %+v", resp)
	}
}

func TestHandleBashEventByIDReportsRunningStatus(t *testing.T) {
	s := newTestServer(t)
	payload, _ := json.Marshal(startBashRequest{Command: "sleep 0.2"})
	startReq := httptest.NewRequest("POST", "/bash/start_bash_command", bytes.NewReader(payload))
	startRec := httptest.NewRecorder()
	s.Mux().ServeHTTP(startRec, startReq)

	var cmdEvent events.Event
	if err := json.Unmarshal(startRec.Body.Bytes(), &cmdEvent); err != nil {
		t.Fatalf("decode start: %v", err)
	}

	getReq := httptest.NewRequest("GET", "/bash/bash_events/"+cmdEvent.ID.String(), nil)
	getRec := httptest.NewRecorder()
	s.Mux().ServeHTTP(getRec, getReq)

	var status struct {
		Running bool `json:"running"`
	}
	if err := json.Unmarshal(getRec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running {
		t.Fatalf("expected command to still be running immediately after start")
	}

	for i := 0; i < 50 && status.Running; i++ {
		time.Sleep(20 * time.Millisecond)
		rec := httptest.NewRecorder()
		s.Mux().ServeHTTP(rec, httptest.NewRequest("GET", "/bash/bash_events/"+cmdEvent.ID.String(), nil))
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			t.Fatalf("decode status: %v", err)
		}
	}
	if status.Running {
		t.Fatalf("expected command to finish running within timeout")
	}
}

func TestHandleBashEventByIDNotFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("GET", "/bash/bash_events/00000000-0000-0000-0000-000000000000", nil)
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)

	if rec.Code != 404 {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestConversationEndpointsUnconfiguredReturns503(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest("POST", "/api/conversations", nil)
	rec := httptest.NewRecorder()
	s.Mux().ServeHTTP(rec, req)

	if rec.Code != 503 {
		t.Fatalf("status = %d", rec.Code)
	}
}
