package schema

import (
	"fmt"
)

// noContentText is the content stored on elements rebuilt from a document
// whose retrievable payload was a summary rather than the raw content.
const noContentText = "No content available"

// ImagePlaceholder is the image substituted for elements whose raw image
// content was never stored. It is provided by configuration instead of being
// loaded from disk at package initialization.
type ImagePlaceholder struct {
	Base64   string
	MimeType string
}

// FromDocuments rebuilds typed elements from retrieved documents, dispatching
// on the reserved type/format metadata keys. Documents tagged source=summary
// get their payload attached as the element summary; image-like elements then
// fall back to the placeholder.
func FromDocuments(docs []*Document, placeholder *ImagePlaceholder) ([]Element, error) {
	elements := make([]Element, 0, len(docs))
	for _, doc := range docs {
		kind, _ := doc.Metadata[MetadataKeyType].(string)

		var (
			element Element
			err     error
		)
		switch Kind(kind) {
		case KindText:
			element, err = textLike(doc, newTextElement)
		case KindImage:
			element, err = imageLike(doc, placeholder, newImageElement)
		case KindTable:
			switch docFormat(doc) {
			case FormatText, FormatHTML, FormatMarkdown:
				element, err = textLike(doc, newTableTextElement)
			case FormatImage:
				element, err = imageLike(doc, placeholder, newTableImageElement)
			default:
				err = fmt.Errorf("unsupported table format: %q", docFormat(doc))
			}
		default:
			err = fmt.Errorf("unsupported document type: %q", kind)
		}
		if err != nil {
			return nil, err
		}
		elements = append(elements, element)
	}
	return elements, nil
}

func newTextElement(text string, format Format, md map[string]interface{}) (Element, error) {
	return NewText(text, format, md)
}

func newTableTextElement(text string, format Format, md map[string]interface{}) (Element, error) {
	return NewTableFromText(text, format, md)
}

func newImageElement(payload, mimeType string, md map[string]interface{}) (Element, error) {
	return NewImage(payload, mimeType, md)
}

func newTableImageElement(payload, mimeType string, md map[string]interface{}) (Element, error) {
	return NewTableFromImage(payload, mimeType, md)
}

// elementMetadata strips the reserved keys that element constructors manage
// themselves.
func elementMetadata(doc *Document) map[string]interface{} {
	md := CopyMetadata(doc.Metadata)
	delete(md, MetadataKeyType)
	delete(md, MetadataKeyFormat)
	delete(md, MetadataKeyMimeType)
	return md
}

func docFormat(doc *Document) Format {
	format, _ := doc.Metadata[MetadataKeyFormat].(string)
	return Format(format)
}

func docSource(doc *Document) string {
	source, ok := doc.Metadata[MetadataKeySource].(string)
	if !ok {
		return "content"
	}
	return source
}

func textLike(doc *Document, construct func(string, Format, map[string]interface{}) (Element, error)) (Element, error) {
	md := elementMetadata(doc)

	switch docSource(doc) {
	case "content":
		return construct(doc.Text, docFormat(doc), md)
	case "summary":
		element, err := construct(noContentText, docFormat(doc), md)
		if err != nil {
			return nil, err
		}
		if err := element.SetSummary(doc.Text); err != nil {
			return nil, err
		}
		return element, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, docSource(doc))
	}
}

func imageLike(doc *Document, placeholder *ImagePlaceholder, construct func(string, string, map[string]interface{}) (Element, error)) (Element, error) {
	md := elementMetadata(doc)

	switch docSource(doc) {
	case "content":
		mimeType, _ := doc.Metadata[MetadataKeyMimeType].(string)
		return construct(doc.Text, mimeType, md)
	case "summary":
		if placeholder == nil {
			return nil, fmt.Errorf("no image placeholder configured for summary-sourced image document %s", doc.ID)
		}
		element, err := construct(placeholder.Base64, placeholder.MimeType, md)
		if err != nil {
			return nil, err
		}
		if err := element.SetSummary(doc.Text); err != nil {
			return nil, err
		}
		return element, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, docSource(doc))
	}
}
