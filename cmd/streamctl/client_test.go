package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientSendsUserHeader(t *testing.T) {
	var gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = r.Header.Get("X-User-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","daemon":"connected"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "alice")
	var st statusPayload
	if err := client.get("/api/v1/system/status", &st); err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotUser != "alice" {
		t.Errorf("user header = %q, want alice", gotUser)
	}
	if st.Daemon != "connected" {
		t.Errorf("daemon = %q", st.Daemon)
	}
}

func TestClientSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "alice")
	err := client.post("/api/v1/system/pause", nil, nil)
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
}
