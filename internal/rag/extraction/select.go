package extraction

import (
	"fmt"
	"strings"

	"multimodal-rag/internal/rag/schema"
)

// TableFormat selects the representation tables are extracted into.
type TableFormat string

const (
	TableFormatText  TableFormat = "text"
	TableFormatHTML  TableFormat = "html"
	TableFormatImage TableFormat = "image"
)

// SelectImages keeps the image nodes whose normalized size is at least
// (minWidth, minHeight) and converts them into Image elements. Nodes missing
// an image payload or MIME type are skipped.
func SelectImages(nodes []*Node, metadataKeys []string, minWidth, minHeight float64) []*schema.Image {
	var images []*schema.Image
	for _, node := range nodes {
		if node.Type != NodeTypeImage {
			continue
		}

		width, height := node.Size()
		if width < minWidth || height < minHeight {
			continue
		}

		if node.ImageBase64 == "" || node.ImageMimeType == "" {
			continue
		}

		image, err := schema.NewImage(node.ImageBase64, node.ImageMimeType, selectMetadata(node, metadataKeys))
		if err != nil {
			continue
		}
		images = append(images, image)
	}
	return images
}

// SelectTexts converts composite text blocks into plain Text elements.
func SelectTexts(nodes []*Node, metadataKeys []string) []*schema.Text {
	var texts []*schema.Text
	for _, node := range nodes {
		if node.Type != NodeTypeComposite {
			continue
		}

		text, err := schema.NewText(node.Text, schema.FormatText, selectMetadata(node, metadataKeys))
		if err != nil {
			continue
		}
		texts = append(texts, text)
	}
	return texts
}

// SelectTables keeps table nodes passing the size filter and converts them
// into Table elements in the requested format. Nodes missing the data the
// format needs (HTML rendering, image payload) are skipped.
func SelectTables(nodes []*Node, format TableFormat, metadataKeys []string, minWidth, minHeight float64) ([]*schema.Table, error) {
	var tables []*schema.Table
	for _, node := range nodes {
		if node.Type != NodeTypeTable {
			continue
		}

		width, height := node.Size()
		if width < minWidth || height < minHeight {
			continue
		}

		var (
			table *schema.Table
			err   error
		)
		switch format {
		case TableFormatText:
			table, err = schema.NewTableFromText(node.Text, schema.FormatText, selectMetadata(node, metadataKeys))
		case TableFormatHTML:
			if strings.TrimSpace(node.HTML) == "" {
				continue
			}
			table, err = schema.NewTableFromText(node.HTML, schema.FormatHTML, selectMetadata(node, metadataKeys))
		case TableFormatImage:
			if node.ImageBase64 == "" || node.ImageMimeType == "" {
				continue
			}
			table, err = schema.NewTableFromImage(node.ImageBase64, node.ImageMimeType, selectMetadata(node, metadataKeys))
		default:
			return nil, fmt.Errorf("invalid table format: %q", format)
		}
		if err != nil {
			continue
		}
		tables = append(tables, table)
	}
	return tables, nil
}
