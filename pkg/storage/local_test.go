package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStorageUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir, "http://localhost:8080/uploads/")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	resp, err := store.Upload(context.Background(), &UploadRequest{
		Key:         "profile-pictures/a.png",
		Data:        []byte("png"),
		ContentType: "image/png",
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if resp.URL != "http://localhost:8080/uploads/profile-pictures/a.png" {
		t.Errorf("unexpected url %q", resp.URL)
	}
	if resp.Size != 3 {
		t.Errorf("expected size 3, got %d", resp.Size)
	}

	data, err := os.ReadFile(filepath.Join(dir, "profile-pictures", "a.png"))
	if err != nil {
		t.Fatalf("read uploaded file: %v", err)
	}
	if string(data) != "png" {
		t.Errorf("unexpected content %q", data)
	}

	if err := store.Delete(context.Background(), "profile-pictures/a.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir(), "http://localhost")
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	_, err = store.Upload(context.Background(), &UploadRequest{Key: "../outside.txt", Data: []byte("x")})
	if err == nil {
		t.Fatal("expected error for key outside base path")
	}
}
