package runtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRemoteRuntimeExecuteBash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bash/execute_bash_command" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		stdout := "hi\n"
		stderr := "oops\n"
		exitCode := int32(0)
		_ = json.NewEncoder(w).Encode(bashOutputResponse{ExitCode: &exitCode, Stdout: &stdout, Stderr: &stderr})
	}))
	defer srv.Close()

	rt := NewRemoteRuntime(srv.URL, nil)
	out, err := rt.Execute(context.Background(), "execute_bash", json.RawMessage(`{"command":"echo hi"}`))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "hi") || !strings.Contains(out, "Error output:\noops") {
		t.Fatalf("got %q", out)
	}
}

func TestRemoteRuntimeReadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := "file contents"
		_ = json.NewEncoder(w).Encode(fileResponse{Path: "a.txt", Content: &content, Success: true})
	}))
	defer srv.Close()

	rt := NewRemoteRuntime(srv.URL, nil)
	out, err := rt.Execute(context.Background(), "read_file", json.RawMessage(`{"path":"a.txt"}`))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "file contents" {
		t.Fatalf("got %q", out)
	}
}

func TestRemoteRuntimeReadFileServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errMsg := "not found"
		_ = json.NewEncoder(w).Encode(fileResponse{Success: false, Error: &errMsg})
	}))
	defer srv.Close()

	rt := NewRemoteRuntime(srv.URL, nil)
	if _, err := rt.Execute(context.Background(), "read_file", json.RawMessage(`{"path":"missing.txt"}`)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRemoteRuntimeUnsupportedTool(t *testing.T) {
	rt := NewRemoteRuntime("http://unused", nil)
	_, err := rt.Execute(context.Background(), "grep", json.RawMessage(`{}`))
	if err == nil || !strings.Contains(err.Error(), "not yet supported via RemoteRuntime API") {
		t.Fatalf("got %v", err)
	}
}
