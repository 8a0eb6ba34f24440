package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tmasplus/fleet-admin/internal/logger"
)

const DefaultMaxBytes = 5 * 1024 * 1024

var (
	AllowedImageTypes    = []string{"image/jpeg", "image/jpg", "image/png"}
	AllowedDocumentTypes = []string{"image/jpeg", "image/jpg", "image/png", "application/pdf"}
)

// File is an upload payload, decoupled from the HTTP layer so services and
// tests can hand one in directly.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type UploadOptions struct {
	Bucket       string
	Folder       string
	File         File
	Filename     string
	MaxBytes     int64
	AllowedTypes []string
}

// UploadResult never travels as an error: callers branch on Success, matching
// the one service boundary in the system that does not throw.
type UploadResult struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
}

type FileMetadata struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	URL        string    `json:"url"`
	Path       string    `json:"path"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type FileStore interface {
	Upload(opts UploadOptions) UploadResult
	Delete(bucket, path string) error
	PublicURL(bucket, path string) string
	List(bucket, folder string) ([]FileMetadata, error)
	Metadata(bucket, path string) (*FileMetadata, error)
}

// LocalStore keeps buckets as directories under BaseDir and serves them from
// /uploads, the same layout the app mounts with app.Static.
type LocalStore struct {
	BaseDir  string
	BaseURL  string
	MaxBytes int64
	Log      logger.ILogger
}

func NewLocalStore(baseDir, baseURL string, maxBytes int64, log logger.ILogger) *LocalStore {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &LocalStore{BaseDir: baseDir, BaseURL: baseURL, MaxBytes: maxBytes, Log: log}
}

// GenerateFilename builds a collision-resistant name from the upload time, a
// random suffix and the original extension.
func GenerateFilename(original string) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), suffix, ext)
}

func typeAllowed(contentType string, allowed []string) bool {
	for _, t := range allowed {
		if strings.EqualFold(t, contentType) {
			return true
		}
	}
	return false
}

func (s *LocalStore) Upload(opts UploadOptions) UploadResult {
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = s.MaxBytes
	}
	allowed := opts.AllowedTypes
	if len(allowed) == 0 {
		allowed = AllowedDocumentTypes
	}

	// Validation happens before anything touches the disk.
	if opts.File.Size > maxBytes {
		return UploadResult{
			Success: false,
			Error:   fmt.Sprintf("file too large: max size is %dMB", maxBytes/(1024*1024)),
		}
	}
	if !typeAllowed(opts.File.ContentType, allowed) {
		return UploadResult{
			Success: false,
			Error:   fmt.Sprintf("file type not allowed: %s", opts.File.ContentType),
		}
	}

	filename := opts.Filename
	if filename == "" {
		filename = GenerateFilename(opts.File.Name)
	}
	relPath := path(opts.Folder, filename)

	dir := filepath.Join(s.BaseDir, opts.Bucket, opts.Folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.Log.Error("failed to create bucket dir", logger.String("bucket", opts.Bucket), logger.Error(err))
		return UploadResult{Success: false, Error: "failed to create upload directory"}
	}

	dst := filepath.Join(s.BaseDir, opts.Bucket, relPath)
	out, err := os.Create(dst)
	if err != nil {
		s.Log.Error("failed to create file", logger.String("path", dst), logger.Error(err))
		return UploadResult{Success: false, Error: "failed to store file"}
	}
	defer out.Close()

	if _, err := io.Copy(out, opts.File.Reader); err != nil {
		s.Log.Error("failed to write file", logger.String("path", dst), logger.Error(err))
		os.Remove(dst)
		return UploadResult{Success: false, Error: "failed to store file"}
	}

	return UploadResult{
		Success: true,
		URL:     s.PublicURL(opts.Bucket, relPath),
		Path:    relPath,
	}
}

func (s *LocalStore) Delete(bucket, relPath string) error {
	return os.Remove(filepath.Join(s.BaseDir, bucket, filepath.FromSlash(relPath)))
}

func (s *LocalStore) PublicURL(bucket, relPath string) string {
	p := "/uploads/" + bucket + "/" + relPath
	base := strings.TrimRight(s.BaseURL, "/")
	if base == "" {
		return p
	}
	return base + p
}

func (s *LocalStore) List(bucket, folder string) ([]FileMetadata, error) {
	dir := filepath.Join(s.BaseDir, bucket, folder)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []FileMetadata{}, nil
		}
		return nil, err
	}

	files := make([]FileMetadata, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		relPath := path(folder, e.Name())
		files = append(files, FileMetadata{
			Name:       e.Name(),
			Size:       info.Size(),
			URL:        s.PublicURL(bucket, relPath),
			Path:       relPath,
			UploadedAt: info.ModTime(),
		})
	}
	return files, nil
}

func (s *LocalStore) Metadata(bucket, relPath string) (*FileMetadata, error) {
	info, err := os.Stat(filepath.Join(s.BaseDir, bucket, filepath.FromSlash(relPath)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return &FileMetadata{
		Name:       info.Name(),
		Size:       info.Size(),
		URL:        s.PublicURL(bucket, relPath),
		Path:       relPath,
		UploadedAt: info.ModTime(),
	}, nil
}

func path(folder, filename string) string {
	if folder == "" {
		return filename
	}
	return folder + "/" + filename
}
