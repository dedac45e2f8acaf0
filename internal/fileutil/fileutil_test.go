package fileutil_test

// Notes:
// - The WriteString and Close error branches in WriteTempFile are not tested
//   because triggering disk write failures is platform-specific.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-md2word/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestValidateExtension - Extension validation
// ---------------------------------------------------------------------------

func TestValidateExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extension string
		wantErr   error
	}{
		{"html", "html", nil},
		{"empty", "", fileutil.ErrExtensionEmpty},
		{"slash", "../html", fileutil.ErrExtensionPathTraversal},
		{"backslash", "a\\b", fileutil.ErrExtensionPathTraversal},
		{"null byte", "ht\x00ml", fileutil.ErrExtensionPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := fileutil.ValidateExtension(tt.extension)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateExtension(%q) = %v, want %v", tt.extension, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWriteTempFile - Temp file lifecycle
// ---------------------------------------------------------------------------

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	path, cleanup, err := fileutil.WriteTempFile("<p>x</p>", "html")
	if err != nil {
		t.Fatalf("WriteTempFile() error = %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "md2word-") || filepath.Ext(path) != ".html" {
		t.Errorf("path = %q, want md2word-*.html", path)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "<p>x</p>" {
		t.Errorf("content = %q, %v", got, err)
	}

	cleanup()
	if fileutil.FileExists(path) {
		t.Error("cleanup() left the file behind")
	}
}

func TestWriteTempFile_InvalidExtension(t *testing.T) {
	t.Parallel()

	_, cleanup, err := fileutil.WriteTempFile("x", "")
	if !errors.Is(err, fileutil.ErrExtensionEmpty) {
		t.Errorf("error = %v, want ErrExtensionEmpty", err)
	}
	if cleanup != nil {
		t.Error("cleanup should be nil on error")
	}
}

// ---------------------------------------------------------------------------
// TestWriteFileAtomic - Replace in place
// ---------------------------------------------------------------------------

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "out.docx")
	if err := os.WriteFile(path, []byte("old"), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := fileutil.WriteFileAtomic(path, []byte("new"), 0644); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Errorf("content = %q, want %q", got, "new")
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries, want 1 (no temp leftovers)", len(entries))
	}
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "out.docx")
	if err := fileutil.WriteFileAtomic(path, []byte("x"), 0644); err == nil {
		t.Error("WriteFileAtomic() into a missing directory should fail")
	}
}

// ---------------------------------------------------------------------------
// TestPathPredicates - Name vs path, Markdown detection, extension swap
// ---------------------------------------------------------------------------

func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "a.md")
	if err := os.WriteFile(file, []byte("#"), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if !fileutil.FileExists(file) {
		t.Error("FileExists(file) = false")
	}
	if fileutil.FileExists(dir) {
		t.Error("FileExists(dir) = true")
	}
	if fileutil.FileExists(filepath.Join(dir, "none")) {
		t.Error("FileExists(missing) = true")
	}
}

func TestIsFilePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"academic", false},
		{"my-config", false},
		{"./team.yaml", true},
		{"/etc/md2word.yaml", true},
		{`C:\cfg\team.yaml`, true},
	}
	for _, tt := range tests {
		if got := fileutil.IsFilePath(tt.input); got != tt.want {
			t.Errorf("IsFilePath(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsMarkdown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"notes.md", true},
		{"NOTES.MD", true},
		{"a/b.markdown", true},
		{"x.mkd", true},
		{"x.txt", false},
		{"md", false},
	}
	for _, tt := range tests {
		if got := fileutil.IsMarkdown(tt.input); got != tt.want {
			t.Errorf("IsMarkdown(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestReplaceExt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path, ext, want string
	}{
		{"a/notes.md", ".docx", "a/notes.docx"},
		{"notes", ".html", "notes.html"},
		{"v1.2/notes.markdown", ".docx", "v1.2/notes.docx"},
	}
	for _, tt := range tests {
		if got := fileutil.ReplaceExt(tt.path, tt.ext); got != tt.want {
			t.Errorf("ReplaceExt(%q, %q) = %q, want %q", tt.path, tt.ext, got, tt.want)
		}
	}
}
