package document

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDetectType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		file   string
		data   []byte
		expect string
	}{
		{name: "pdf by extension", file: "cv.PDF", expect: MimePDF},
		{name: "docx by extension", file: "cv.docx", expect: MimeDOCX},
		{name: "txt by extension", file: "cv.txt", expect: MimeText},
		{name: "pdf by content", file: "cv", data: []byte("%PDF-1.4\n"), expect: MimePDF},
		{name: "text by content", file: "cv", data: []byte("python and sql"), expect: MimeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DetectType(tt.file, tt.data); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestExtractTextPlain(t *testing.T) {
	text, err := ExtractText("resume.txt", []byte("Experienced in python and sql."))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Experienced in python and sql." {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractTextUnsupported(t *testing.T) {
	_, err := ExtractText("photo.png", []byte("\x89PNG\r\n\x1a\n"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestExtractTextBrokenPDF(t *testing.T) {
	if _, err := ExtractText("cv.pdf", []byte("not a pdf")); err == nil {
		t.Fatalf("expected error for malformed pdf")
	}
}

func TestExtractFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.md")
	if err := os.WriteFile(path, []byte("go developer"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	text, err := ExtractFile(path)
	if err != nil || text != "go developer" {
		t.Fatalf("unexpected result: %q %v", text, err)
	}

	if _, err := ExtractFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestXMLText(t *testing.T) {
	body := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:r><w:t>Senior</w:t></w:r><w:r><w:tab/><w:t xml:space="preserve"> Engineer</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Python &amp; SQL</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	text, err := xmlText(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Senior\t Engineer\nPython & SQL" {
		t.Fatalf("unexpected text: %q", text)
	}
}
