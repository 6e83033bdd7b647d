package storage

import (
	"context"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStoreSaveAndDelete(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	ctx := context.Background()
	key, err := store.Save(ctx, DirDocuments, "test.pdf", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if key != "documents/test.pdf" {
		t.Fatalf("expected key documents/test.pdf, got %s", key)
	}

	data, err := os.ReadFile(filepath.Join(store.base, "documents", "test.pdf"))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "content" {
		t.Fatalf("unexpected file content: %s", data)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// 重复删除不报错
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestValidateDocument(t *testing.T) {
	ok := &multipart.FileHeader{Filename: "carte.pdf", Size: 1024}
	if err := ValidateDocument(ok); err != nil {
		t.Fatalf("ValidateDocument: %v", err)
	}

	tooBig := &multipart.FileHeader{Filename: "carte.pdf", Size: MaxUploadSize + 1}
	if err := ValidateDocument(tooBig); err == nil {
		t.Fatalf("expected oversized file rejected")
	}

	badType := &multipart.FileHeader{Filename: "carte.exe", Size: 1024}
	if err := ValidateDocument(badType); err == nil {
		t.Fatalf("expected exe rejected")
	}
}

func TestValidatePhoto(t *testing.T) {
	if err := ValidatePhoto(&multipart.FileHeader{Filename: "before.jpg", Size: 1024}); err != nil {
		t.Fatalf("ValidatePhoto: %v", err)
	}
	// 照片不接受 PDF
	if err := ValidatePhoto(&multipart.FileHeader{Filename: "before.pdf", Size: 1024}); err == nil {
		t.Fatalf("expected pdf photo rejected")
	}
}

func TestFilename(t *testing.T) {
	name := Filename("Photo Avant.JPG")
	if !strings.HasSuffix(name, ".jpg") {
		t.Fatalf("expected lowercased extension, got %s", name)
	}
	if name == Filename("Photo Avant.JPG") {
		t.Fatalf("expected unique filenames")
	}
}
