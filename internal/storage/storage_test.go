package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/tmasplus/fleet-admin/internal/logger"
)

type testLogger struct{}

func (testLogger) Info(msg string, fields ...logger.Field)    {}
func (testLogger) Error(msg string, fields ...logger.Field)   {}
func (testLogger) Warning(msg string, fields ...logger.Field) {}

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	return NewLocalStore(t.TempDir(), "", DefaultMaxBytes, testLogger{})
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	s := newTestStore(t)

	res := s.Upload(UploadOptions{
		Bucket: "driver-documents",
		Folder: "user-1",
		File: File{
			Name:        "cedula.jpg",
			ContentType: "image/jpeg",
			Size:        DefaultMaxBytes + 1,
			Reader:      bytes.NewReader([]byte("x")),
		},
	})
	if res.Success {
		t.Fatal("oversized upload must be rejected")
	}
	if !strings.Contains(res.Error, "too large") {
		t.Fatalf("unexpected error: %s", res.Error)
	}

	// Nothing may have touched the disk.
	entries, _ := os.ReadDir(s.BaseDir)
	if len(entries) != 0 {
		t.Fatal("rejected upload wrote to disk")
	}
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	s := newTestStore(t)

	res := s.Upload(UploadOptions{
		Bucket: "driver-documents",
		Folder: "user-1",
		File: File{
			Name:        "malware.exe",
			ContentType: "application/octet-stream",
			Size:        10,
			Reader:      bytes.NewReader([]byte("0123456789")),
		},
	})
	if res.Success {
		t.Fatal("disallowed MIME type must be rejected")
	}

	entries, _ := os.ReadDir(s.BaseDir)
	if len(entries) != 0 {
		t.Fatal("rejected upload wrote to disk")
	}
}

func TestUploadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	content := []byte("pdf bytes here")

	res := s.Upload(UploadOptions{
		Bucket: "vehicle-documents",
		Folder: "car-42",
		File: File{
			Name:        "soat.pdf",
			ContentType: "application/pdf",
			Size:        int64(len(content)),
			Reader:      bytes.NewReader(content),
		},
	})
	if !res.Success {
		t.Fatalf("upload failed: %s", res.Error)
	}
	if !strings.HasPrefix(res.Path, "car-42/") {
		t.Fatalf("path missing folder prefix: %s", res.Path)
	}
	if res.URL != "/uploads/vehicle-documents/"+res.Path {
		t.Fatalf("url/path mismatch: %s vs %s", res.URL, res.Path)
	}

	meta, err := s.Metadata("vehicle-documents", res.Path)
	if err != nil {
		t.Fatal(err)
	}
	if meta == nil {
		t.Fatal("metadata missing for uploaded file")
	}
	if meta.Size != int64(len(content)) {
		t.Fatalf("size mismatch: %d", meta.Size)
	}
	if meta.URL != res.URL {
		t.Fatalf("metadata url mismatch: %s", meta.URL)
	}

	data, err := os.ReadFile(filepath.Join(s.BaseDir, "vehicle-documents", filepath.FromSlash(res.Path)))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, content) {
		t.Fatal("stored content differs from upload")
	}
}

func TestUploadKeepsCallerFilename(t *testing.T) {
	s := newTestStore(t)

	res := s.Upload(UploadOptions{
		Bucket:   "driver-documents",
		Folder:   "u1",
		Filename: "cedula_frente_123.png",
		File: File{
			Name:        "orig.png",
			ContentType: "image/png",
			Size:        3,
			Reader:      bytes.NewReader([]byte("png")),
		},
	})
	if !res.Success {
		t.Fatalf("upload failed: %s", res.Error)
	}
	if res.Path != "u1/cedula_frente_123.png" {
		t.Fatalf("unexpected path: %s", res.Path)
	}
}

func TestGenerateFilenameShape(t *testing.T) {
	name := GenerateFilename("Foto Cedula.JPG")
	if !regexp.MustCompile(`^\d+_[0-9a-f]{12}\.jpg$`).MatchString(name) {
		t.Fatalf("unexpected filename: %s", name)
	}
	if name == GenerateFilename("Foto Cedula.JPG") {
		t.Fatal("two generated names collided")
	}
}

func TestPublicURLWithBase(t *testing.T) {
	s := NewLocalStore(t.TempDir(), "https://cdn.example.com/", DefaultMaxBytes, testLogger{})
	url := s.PublicURL("vehicle-images", "car-1/a.png")
	if url != "https://cdn.example.com/uploads/vehicle-images/car-1/a.png" {
		t.Fatalf("unexpected url: %s", url)
	}
}

func TestListEmptyFolder(t *testing.T) {
	s := newTestStore(t)
	files, err := s.List("driver-documents", "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Fatalf("expected empty list, got %d", len(files))
	}
}
