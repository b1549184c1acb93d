package schema

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testPayload = "aGVsbG8=" // "hello"

func TestNewTextFormats(t *testing.T) {
	for _, format := range []Format{FormatText, FormatHTML, FormatMarkdown} {
		text, err := NewText("Hello, World!", format, map[string]interface{}{"metadata_1": "value_1"})
		if err != nil {
			t.Fatalf("NewText(%s) error = %v", format, err)
		}
		if text.Content() != "Hello, World!" {
			t.Errorf("Content() = %q, want %q", text.Content(), "Hello, World!")
		}
		md := text.Metadata()
		if md[MetadataKeyType] != "text" || md[MetadataKeyFormat] != string(format) {
			t.Errorf("Metadata() type/format = %v/%v", md[MetadataKeyType], md[MetadataKeyFormat])
		}
		if md["metadata_1"] != "value_1" {
			t.Errorf("Metadata() missing custom key, got %v", md)
		}
	}
}

func TestNewTextRejectsInvalid(t *testing.T) {
	if _, err := NewText("Hello", FormatImage, nil); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("NewText(image format) error = %v, want ErrInvalidFormat", err)
	}
	if _, err := NewText("", FormatText, nil); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("NewText(empty) error = %v, want ErrEmptyContent", err)
	}
	if _, err := NewText("   ", FormatText, nil); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("NewText(whitespace) error = %v, want ErrEmptyContent", err)
	}
}

func TestNewImage(t *testing.T) {
	img, err := NewImage(testPayload, "image/png", map[string]interface{}{"metadata_1": "value_1"})
	if err != nil {
		t.Fatalf("NewImage() error = %v", err)
	}
	if img.Content() != testPayload {
		t.Errorf("Content() = %q, want base64 payload", img.Content())
	}
	md := img.Metadata()
	if md[MetadataKeyType] != "image" || md[MetadataKeyFormat] != "image" {
		t.Errorf("Metadata() type/format = %v/%v", md[MetadataKeyType], md[MetadataKeyFormat])
	}
	if md[MetadataKeyMimeType] != "image/png" {
		t.Errorf("Metadata() mime_type = %v, want image/png", md[MetadataKeyMimeType])
	}
}

func TestNewImageRejectsInvalid(t *testing.T) {
	if _, err := NewImage(testPayload, "image/gif", nil); !errors.Is(err, ErrUnsupportedMimeType) {
		t.Errorf("NewImage(gif) error = %v, want ErrUnsupportedMimeType", err)
	}
	if _, err := NewImage("", "image/jpeg", nil); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("NewImage(empty) error = %v, want ErrEmptyContent", err)
	}
}

func TestTableVariants(t *testing.T) {
	textTable, err := NewTableFromText("a | b", FormatMarkdown, nil)
	if err != nil {
		t.Fatalf("NewTableFromText() error = %v", err)
	}
	if textTable.Kind() != KindTable || textTable.IsImage() {
		t.Errorf("text table kind/IsImage = %v/%v", textTable.Kind(), textTable.IsImage())
	}
	if textTable.Content() != "a | b" {
		t.Errorf("Content() = %q", textTable.Content())
	}

	imageTable, err := NewTableFromImage(testPayload, "image/jpeg", nil)
	if err != nil {
		t.Fatalf("NewTableFromImage() error = %v", err)
	}
	if !imageTable.IsImage() {
		t.Error("image table IsImage() = false")
	}
	if imageTable.Content() != testPayload {
		t.Errorf("Content() = %q, want base64 payload", imageTable.Content())
	}
	if imageTable.Metadata()[MetadataKeyMimeType] != "image/jpeg" {
		t.Errorf("Metadata() mime_type = %v", imageTable.Metadata()[MetadataKeyMimeType])
	}

	if _, err := NewTableFromText("a | b", FormatImage, nil); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("NewTableFromText(image format) error = %v, want ErrInvalidFormat", err)
	}
}

func TestSummaryLifecycle(t *testing.T) {
	text, err := NewText("Hello", FormatText, nil)
	if err != nil {
		t.Fatalf("NewText() error = %v", err)
	}

	if _, err := text.Summary(); !errors.Is(err, ErrSummaryNotSet) {
		t.Errorf("Summary() before set error = %v, want ErrSummaryNotSet", err)
	}

	if err := text.SetSummary(""); !errors.Is(err, ErrEmptySummary) {
		t.Errorf("SetSummary(\"\") error = %v, want ErrEmptySummary", err)
	}
	if err := text.SetSummary("   "); !errors.Is(err, ErrEmptySummary) {
		t.Errorf("SetSummary(whitespace) error = %v, want ErrEmptySummary", err)
	}

	if err := text.SetSummary("a summary"); err != nil {
		t.Fatalf("SetSummary() error = %v", err)
	}
	summary, err := text.Summary()
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if summary != "a summary" {
		t.Errorf("Summary() = %q, want %q", summary, "a summary")
	}
}

func TestTextExport(t *testing.T) {
	dir := t.TempDir()
	text, _ := NewText("# Title", FormatMarkdown, nil)
	if err := text.SetSummary("a summary"); err != nil {
		t.Fatalf("SetSummary() error = %v", err)
	}

	if err := text.Export(dir, "00"); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "00.md"))
	if err != nil {
		t.Fatalf("reading exported content: %v", err)
	}
	if string(content) != "# Title" {
		t.Errorf("exported content = %q", content)
	}

	summary, err := os.ReadFile(filepath.Join(dir, "00.summary"))
	if err != nil {
		t.Fatalf("reading exported summary: %v", err)
	}
	if string(summary) != "a summary" {
		t.Errorf("exported summary = %q", summary)
	}
}

func TestImageExportAndLocalPath(t *testing.T) {
	dir := t.TempDir()
	img, _ := NewImage(testPayload, "image/png", nil)

	if err := img.Export(dir, "01"); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "01.png"))
	if err != nil {
		t.Fatalf("reading exported image: %v", err)
	}
	want, _ := base64.StdEncoding.DecodeString(testPayload)
	if string(data) != string(want) {
		t.Errorf("exported bytes = %q, want %q", data, want)
	}

	// No summary was attached, so no sibling file should exist.
	if _, err := os.Stat(filepath.Join(dir, "01.summary")); !os.IsNotExist(err) {
		t.Errorf("unexpected summary file, stat err = %v", err)
	}

	path, err := img.LocalPath()
	if err != nil {
		t.Fatalf("LocalPath() error = %v", err)
	}
	defer os.Remove(path)
	if filepath.Ext(path) != ".png" {
		t.Errorf("LocalPath() ext = %q, want .png", filepath.Ext(path))
	}
}

func TestFromDocumentsRoundTrip(t *testing.T) {
	docs := []*Document{
		{
			ID:   "1",
			Text: "raw text",
			Metadata: map[string]interface{}{
				MetadataKeyType:   "text",
				MetadataKeyFormat: "text",
				MetadataKeySource: "content",
			},
		},
		{
			ID:   "2",
			Text: "an image summary",
			Metadata: map[string]interface{}{
				MetadataKeyType:   "image",
				MetadataKeyFormat: "image",
				MetadataKeySource: "summary",
			},
		},
		{
			ID:   "3",
			Text: testPayload,
			Metadata: map[string]interface{}{
				MetadataKeyType:     "table",
				MetadataKeyFormat:   "image",
				MetadataKeyMimeType: "image/jpeg",
				MetadataKeySource:   "content",
			},
		},
	}
	placeholder := &ImagePlaceholder{Base64: testPayload, MimeType: "image/png"}

	elements, err := FromDocuments(docs, placeholder)
	if err != nil {
		t.Fatalf("FromDocuments() error = %v", err)
	}
	if len(elements) != 3 {
		t.Fatalf("len(elements) = %d, want 3", len(elements))
	}

	if elements[0].Content() != "raw text" {
		t.Errorf("text element content = %q", elements[0].Content())
	}

	img, ok := elements[1].(*Image)
	if !ok {
		t.Fatalf("elements[1] is %T, want *Image", elements[1])
	}
	if img.Content() != placeholder.Base64 {
		t.Errorf("summary-sourced image content = %q, want placeholder", img.Content())
	}
	summary, err := img.Summary()
	if err != nil || summary != "an image summary" {
		t.Errorf("summary = %q, err = %v", summary, err)
	}

	table, ok := elements[2].(*Table)
	if !ok {
		t.Fatalf("elements[2] is %T, want *Table", elements[2])
	}
	if !table.IsImage() || table.MimeType() != "image/jpeg" {
		t.Errorf("table IsImage/MimeType = %v/%q", table.IsImage(), table.MimeType())
	}
}

func TestFromDocumentsRejectsUnknownKind(t *testing.T) {
	docs := []*Document{{ID: "1", Text: "x", Metadata: map[string]interface{}{MetadataKeyType: "video"}}}
	if _, err := FromDocuments(docs, nil); err == nil {
		t.Error("FromDocuments(unknown kind) expected error")
	}
}
