// Package partition decomposes source files into raw layout nodes.
package partition

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
	"github.com/unidoc/unipdf/v3/render"

	"multimodal-rag/internal/rag/extraction"
	"multimodal-rag/internal/rag/interfaces"
	"multimodal-rag/internal/rag/schema"
	"multimodal-rag/pkg/logger"
)

// Options control how extracted tables are materialized into nodes.
type Options struct {
	// InferTableStructure attaches an HTML rendering to table nodes.
	InferTableStructure bool
	// ExtractTableAsImage attaches a render of the owning page as the table
	// image payload. The text extractor reports no per-table geometry, so
	// the page render stands in for a cropped table image.
	ExtractTableAsImage bool
}

// PDFPartitioner reads a PDF and emits one node per page text block, detected
// table and embedded image, in page order.
type PDFPartitioner struct {
	opts Options
	log  *logger.Logger
}

// NewPDFPartitioner creates a PDFPartitioner.
func NewPDFPartitioner(opts Options) *PDFPartitioner {
	return &PDFPartitioner{
		opts: opts,
		log:  logger.New("rag_service", "partition"),
	}
}

// Partition reads the file at path and returns its layout nodes. Non-PDF
// inputs are rejected by MIME sniffing before any parsing.
func (p *PDFPartitioner) Partition(ctx context.Context, path string) ([]*extraction.Node, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to sniff %s: %w", path, err)
	}
	if !mtype.Is("application/pdf") {
		return nil, fmt.Errorf("%w: %s", schema.ErrUnsupportedMimeType, mtype.String())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pdfReader, err := model.NewPdfReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF %s: %w", path, err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, err
	}

	fileName := filepath.Base(path)
	var nodes []*extraction.Node
	for i := 1; i <= numPages; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		pageNodes, err := p.partitionPage(pdfReader, i, fileName)
		if err != nil {
			return nil, fmt.Errorf("page %d of %s: %w", i, fileName, err)
		}
		nodes = append(nodes, pageNodes...)
	}

	p.log.Info(fmt.Sprintf("Partitioned %s into %d nodes across %d pages", fileName, len(nodes), numPages))
	return nodes, nil
}

func (p *PDFPartitioner) partitionPage(reader *model.PdfReader, pageNum int, fileName string) ([]*extraction.Node, error) {
	page, err := reader.GetPage(pageNum)
	if err != nil {
		return nil, err
	}

	box, err := page.GetMediaBox()
	if err != nil {
		return nil, err
	}
	layoutWidth := box.Urx - box.Llx
	layoutHeight := box.Ury - box.Lly

	ex, err := extractor.New(page)
	if err != nil {
		return nil, err
	}

	pageText, _, _, err := ex.ExtractPageText()
	if err != nil {
		return nil, err
	}

	md := map[string]interface{}{
		schema.MetadataKeyFileName:  fileName,
		schema.MetadataKeyPageLabel: fmt.Sprintf("%d", pageNum),
	}

	var nodes []*extraction.Node
	if text := strings.TrimSpace(pageText.Text()); text != "" {
		nodes = append(nodes, &extraction.Node{
			Type:         extraction.NodeTypeNarrativeText,
			Text:         text,
			LayoutWidth:  layoutWidth,
			LayoutHeight: layoutHeight,
			Metadata:     md,
		})
	}

	tables := pageText.Tables()

	var pageImage string
	if p.opts.ExtractTableAsImage && len(tables) > 0 {
		pageImage, err = renderPage(page)
		if err != nil {
			p.log.Warn(fmt.Sprintf("Failed to render page %d of %s for table capture: %v", pageNum, fileName, err))
		}
	}

	for _, table := range tables {
		text, html := renderTable(tableRows(table))
		if text == "" {
			continue
		}
		nodes = append(nodes, newTableNode(text, html, pageImage, p.opts, layoutWidth, layoutHeight, md))
	}

	pageImages, err := ex.ExtractPageImages(nil)
	if err != nil {
		// Pages with unextractable images still contribute their text.
		p.log.Warn(fmt.Sprintf("Failed to extract images from page %d of %s: %v", pageNum, fileName, err))
		return nodes, nil
	}

	for _, pImg := range pageImages.Images {
		goImg, err := pImg.Image.ToGoImage()
		if err != nil {
			continue
		}
		encoded, err := encodePNG(goImg)
		if err != nil {
			continue
		}

		nodes = append(nodes, &extraction.Node{
			Type:          extraction.NodeTypeImage,
			ImageBase64:   encoded,
			ImageMimeType: "image/png",
			Coordinates: []extraction.Point{
				{X: pImg.X, Y: pImg.Y},
				{X: pImg.X + pImg.Width, Y: pImg.Y},
				{X: pImg.X + pImg.Width, Y: pImg.Y + pImg.Height},
				{X: pImg.X, Y: pImg.Y + pImg.Height},
			},
			LayoutWidth:  layoutWidth,
			LayoutHeight: layoutHeight,
			Metadata:     md,
		})
	}

	return nodes, nil
}

// newTableNode assembles a table node honoring the configured table handling.
// Table coordinates span the whole page envelope because the extractor does
// not report per-table bounds.
func newTableNode(text, html, pageImage string, opts Options, layoutWidth, layoutHeight float64, md map[string]interface{}) *extraction.Node {
	node := &extraction.Node{
		Type: extraction.NodeTypeTable,
		Text: text,
		Coordinates: []extraction.Point{
			{X: 0, Y: 0},
			{X: layoutWidth, Y: 0},
			{X: layoutWidth, Y: layoutHeight},
			{X: 0, Y: layoutHeight},
		},
		LayoutWidth:  layoutWidth,
		LayoutHeight: layoutHeight,
		Metadata:     md,
	}
	if opts.InferTableStructure {
		node.HTML = html
	}
	if opts.ExtractTableAsImage && pageImage != "" {
		node.ImageBase64 = pageImage
		node.ImageMimeType = "image/png"
	}
	return node
}

func tableRows(table extractor.TextTable) [][]string {
	rows := make([][]string, 0, len(table.Cells))
	for _, row := range table.Cells {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.TrimSpace(cell.Text)
		}
		rows = append(rows, cells)
	}
	return rows
}

// renderTable flattens table rows into pipe-delimited text and an HTML
// rendering.
func renderTable(rows [][]string) (text, html string) {
	var textSB, htmlSB strings.Builder
	htmlSB.WriteString("<table>")
	for _, row := range rows {
		htmlSB.WriteString("<tr>")
		for _, cell := range row {
			htmlSB.WriteString("<td>")
			htmlSB.WriteString(cell)
			htmlSB.WriteString("</td>")
		}
		htmlSB.WriteString("</tr>")
		textSB.WriteString(strings.Join(row, " | "))
		textSB.WriteString("\n")
	}
	htmlSB.WriteString("</table>")

	text = strings.TrimSpace(textSB.String())
	if text == "" {
		return "", ""
	}
	return text, htmlSB.String()
}

// renderPage rasterizes a page and returns it base64-encoded as PNG.
func renderPage(page *model.PdfPage) (string, error) {
	device := render.NewImageDevice()
	img, err := device.Render(page)
	if err != nil {
		return "", err
	}
	return encodePNG(img)
}

func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

var _ interfaces.Partitioner = (*PDFPartitioner)(nil)
