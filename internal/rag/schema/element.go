package schema

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the type tag of an extracted element.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindTable Kind = "table"
)

// Format is the representation format of an element's content.
type Format string

const (
	FormatText     Format = "text"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatImage    Format = "image"
)

// Element is the uniform capability contract over extracted content units.
// Elements are created by the extraction step, mutated once by the
// summarization step (SetSummary), and read by the retriever and exporter.
type Element interface {
	// Kind returns the element's type tag.
	Kind() Kind
	// Format returns the representation format of the content.
	Format() Format
	// Content returns the text or base64 payload of the element.
	Content() string
	// Metadata returns the element metadata, always including the reserved
	// type and format keys.
	Metadata() map[string]interface{}
	// SetSummary attaches a summary. Empty or whitespace-only summaries are
	// rejected.
	SetSummary(summary string) error
	// Summary returns the attached summary, or ErrSummaryNotSet if none was
	// ever attached.
	Summary() (string, error)
	// Export writes the content (and the summary, if present) into folder
	// using filename plus a format-matching extension.
	Export(folder, filename string) error
}

// base holds the fields shared by all element kinds.
type base struct {
	kind       Kind
	format     Format
	metadata   map[string]interface{}
	summary    string
	hasSummary bool
}

func (b *base) Kind() Kind     { return b.kind }
func (b *base) Format() Format { return b.format }

func (b *base) Metadata() map[string]interface{} {
	md := make(map[string]interface{}, len(b.metadata)+2)
	md[MetadataKeyType] = string(b.kind)
	md[MetadataKeyFormat] = string(b.format)
	for k, v := range b.metadata {
		md[k] = v
	}
	return md
}

func (b *base) SetSummary(summary string) error {
	if strings.TrimSpace(summary) == "" {
		return ErrEmptySummary
	}
	b.summary = summary
	b.hasSummary = true
	return nil
}

func (b *base) Summary() (string, error) {
	if !b.hasSummary {
		return "", ErrSummaryNotSet
	}
	return b.summary, nil
}

// exportSummary writes the summary, if present, to a sibling .summary file.
func (b *base) exportSummary(folder, filename string) error {
	if !b.hasSummary {
		return nil
	}
	return writeFile(filepath.Join(folder, filename+".summary"), []byte(b.summary))
}

// writeFile creates the parent folder if needed and writes data, closing the
// handle before returning.
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create export folder: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

// extensionForFormat maps a text-like format to its file extension.
func extensionForFormat(format Format) (string, error) {
	switch format {
	case FormatText:
		return "txt", nil
	case FormatHTML:
		return "html", nil
	case FormatMarkdown:
		return "md", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidFormat, format)
	}
}

// extensionForMimeType maps a supported image MIME type to its file extension.
func extensionForMimeType(mimeType string) (string, error) {
	switch mimeType {
	case "image/jpeg":
		return "jpg", nil
	case "image/png":
		return "png", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMimeType, mimeType)
	}
}

// Text is a plain, HTML or markdown text element.
type Text struct {
	base
	text string
}

// NewText creates a Text element. The format must be one of text, html or
// markdown, and the content must not be empty.
func NewText(text string, format Format, metadata map[string]interface{}) (*Text, error) {
	switch format {
	case FormatText, FormatHTML, FormatMarkdown:
	default:
		return nil, fmt.Errorf("%w: text element with format %q", ErrInvalidFormat, format)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyContent
	}
	return &Text{
		base: base{kind: KindText, format: format, metadata: CopyMetadata(metadata)},
		text: text,
	}, nil
}

// Content returns the text content.
func (t *Text) Content() string { return t.text }

// Export writes the text to filename.{txt,html,md} and the summary, if
// present, to filename.summary.
func (t *Text) Export(folder, filename string) error {
	ext, err := extensionForFormat(t.format)
	if err != nil {
		return err
	}
	if err := writeFile(filepath.Join(folder, filename+"."+ext), []byte(t.text)); err != nil {
		return err
	}
	return t.exportSummary(folder, filename)
}

// Image is a base64-encoded image element.
type Image struct {
	base
	mimeType string
	payload  string // base64
}

// NewImage creates an Image element from a base64 payload and its MIME type.
func NewImage(payload, mimeType string, metadata map[string]interface{}) (*Image, error) {
	if _, err := extensionForMimeType(mimeType); err != nil {
		return nil, err
	}
	if strings.TrimSpace(payload) == "" {
		return nil, ErrEmptyContent
	}
	return &Image{
		base:     base{kind: KindImage, format: FormatImage, metadata: CopyMetadata(metadata)},
		mimeType: mimeType,
		payload:  payload,
	}, nil
}

// Content returns the base64 payload of the image.
func (i *Image) Content() string { return i.payload }

// MimeType returns the MIME type of the image.
func (i *Image) MimeType() string { return i.mimeType }

// Metadata returns the image metadata, including the MIME type.
func (i *Image) Metadata() map[string]interface{} {
	md := i.base.Metadata()
	md[MetadataKeyMimeType] = i.mimeType
	return md
}

// Export decodes the payload and writes it to filename.{jpg,png}, plus the
// summary, if present, to filename.summary.
func (i *Image) Export(folder, filename string) error {
	ext, err := extensionForMimeType(i.mimeType)
	if err != nil {
		return err
	}
	data, err := base64.StdEncoding.DecodeString(i.payload)
	if err != nil {
		return fmt.Errorf("failed to decode image payload: %w", err)
	}
	if err := writeFile(filepath.Join(folder, filename+"."+ext), data); err != nil {
		return err
	}
	return i.exportSummary(folder, filename)
}

// LocalPath materializes the image into a temporary file and returns its
// path, bridging to backends that need a file path rather than bytes.
// The caller owns the file and is responsible for removing it.
func (i *Image) LocalPath() (string, error) {
	ext, err := extensionForMimeType(i.mimeType)
	if err != nil {
		return "", err
	}
	data, err := base64.StdEncoding.DecodeString(i.payload)
	if err != nil {
		return "", fmt.Errorf("failed to decode image payload: %w", err)
	}
	f, err := os.CreateTemp("", "element-*."+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	return f.Name(), nil
}

// Table is a table element wrapping either a text-like or image-like content
// variant, selected by its format.
type Table struct {
	base
	text     string
	mimeType string
	payload  string // base64, only for format image
}

// NewTableFromText creates a Table element with text, html or markdown content.
func NewTableFromText(text string, format Format, metadata map[string]interface{}) (*Table, error) {
	switch format {
	case FormatText, FormatHTML, FormatMarkdown:
	default:
		return nil, fmt.Errorf("%w: table element with text content and format %q", ErrInvalidFormat, format)
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyContent
	}
	return &Table{
		base: base{kind: KindTable, format: format, metadata: CopyMetadata(metadata)},
		text: text,
	}, nil
}

// NewTableFromImage creates a Table element rendered as an image.
func NewTableFromImage(payload, mimeType string, metadata map[string]interface{}) (*Table, error) {
	if _, err := extensionForMimeType(mimeType); err != nil {
		return nil, err
	}
	if strings.TrimSpace(payload) == "" {
		return nil, ErrEmptyContent
	}
	return &Table{
		base:     base{kind: KindTable, format: FormatImage, metadata: CopyMetadata(metadata)},
		mimeType: mimeType,
		payload:  payload,
	}, nil
}

// IsImage reports whether the table content is an image.
func (t *Table) IsImage() bool { return t.format == FormatImage }

// Content returns the text or base64 payload, depending on the format.
func (t *Table) Content() string {
	if t.IsImage() {
		return t.payload
	}
	return t.text
}

// MimeType returns the MIME type of an image table, or the empty string for
// text-like tables.
func (t *Table) MimeType() string { return t.mimeType }

// Metadata returns the table metadata, including the MIME type for image
// tables.
func (t *Table) Metadata() map[string]interface{} {
	md := t.base.Metadata()
	if t.IsImage() {
		md[MetadataKeyMimeType] = t.mimeType
	}
	return md
}

// Export writes the table content with a format-matching extension, plus the
// summary, if present.
func (t *Table) Export(folder, filename string) error {
	if t.IsImage() {
		ext, err := extensionForMimeType(t.mimeType)
		if err != nil {
			return err
		}
		data, err := base64.StdEncoding.DecodeString(t.payload)
		if err != nil {
			return fmt.Errorf("failed to decode table image payload: %w", err)
		}
		if err := writeFile(filepath.Join(folder, filename+"."+ext), data); err != nil {
			return err
		}
		return t.exportSummary(folder, filename)
	}

	ext, err := extensionForFormat(t.format)
	if err != nil {
		return err
	}
	if err := writeFile(filepath.Join(folder, filename+"."+ext), []byte(t.text)); err != nil {
		return err
	}
	return t.exportSummary(folder, filename)
}
