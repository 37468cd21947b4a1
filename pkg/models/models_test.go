package models

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func modelServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path == "/missing.onnx" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("onnx-bytes"))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestEnsure_DownloadsMissing(t *testing.T) {
	srv, hits := modelServer(t)
	dir := t.TempDir()

	present := filepath.Join(dir, "present.onnx")
	if err := os.WriteFile(present, []byte("local"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := &Fetcher{Client: srv.Client()}
	fetched, err := f.Ensure(context.Background(),
		Model{Name: "present", URL: srv.URL + "/present.onnx", Path: present},
		Model{Name: "face", URL: srv.URL + "/face.onnx", Path: filepath.Join(dir, "nested", "face.onnx")},
	)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}

	if len(fetched) != 1 || fetched[0].Name != "face" {
		t.Errorf("fetched %+v, want only face", fetched)
	}
	if *hits != 1 {
		t.Errorf("server hit %d times, want 1", *hits)
	}

	data, err := os.ReadFile(filepath.Join(dir, "nested", "face.onnx"))
	if err != nil || string(data) != "onnx-bytes" {
		t.Errorf("downloaded file: %q, %v", data, err)
	}
	if data, _ := os.ReadFile(present); string(data) != "local" {
		t.Error("existing model was overwritten")
	}
}

func TestEnsure_Errors(t *testing.T) {
	srv, _ := modelServer(t)
	dir := t.TempDir()
	f := &Fetcher{Client: srv.Client()}

	_, err := f.Ensure(context.Background(), Model{Name: "pose", Path: filepath.Join(dir, "pose.onnx")})
	if !errors.Is(err, ErrNoURL) {
		t.Errorf("expected ErrNoURL, got %v", err)
	}

	dest := filepath.Join(dir, "missing.onnx")
	if _, err := f.Ensure(context.Background(), Model{Name: "missing", URL: srv.URL + "/missing.onnx", Path: dest}); err == nil {
		t.Error("expected an error for a 404")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("failed download should leave no file behind")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestDownload_Cancelled(t *testing.T) {
	srv, _ := modelServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &Fetcher{Client: srv.Client()}
	if err := f.Download(ctx, srv.URL+"/face.onnx", filepath.Join(t.TempDir(), "face.onnx")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
