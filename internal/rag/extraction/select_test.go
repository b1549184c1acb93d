package extraction

import (
	"testing"
)

// pageNode builds a node covering w x h pixels on a 1000x1000 canvas.
func pageNode(nodeType NodeType, w, h float64) *Node {
	return &Node{
		Type: nodeType,
		Coordinates: []Point{
			{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h},
		},
		LayoutWidth:   1000,
		LayoutHeight:  1000,
		ImageBase64:   "aGVsbG8=",
		ImageMimeType: "image/png",
		Text:          "| a | b |",
		HTML:          "<table><tr><td>a</td></tr></table>",
		Metadata: map[string]interface{}{
			"file_name":  "doc.pdf",
			"page_label": "3",
			"ignored":    "x",
		},
	}
}

func TestSelectImagesSizeFilterBoundary(t *testing.T) {
	atMin := pageNode(NodeTypeImage, 100, 100)
	oneBelow := pageNode(NodeTypeImage, 99, 100)

	images := SelectImages([]*Node{atMin, oneBelow}, nil, 0.1, 0.1)
	if len(images) != 1 {
		t.Fatalf("len(images) = %d, want 1 (boundary inclusive, below dropped)", len(images))
	}
}

func TestSelectImagesSkipsMissingPayload(t *testing.T) {
	noPayload := pageNode(NodeTypeImage, 500, 500)
	noPayload.ImageBase64 = ""
	noMime := pageNode(NodeTypeImage, 500, 500)
	noMime.ImageMimeType = ""

	if images := SelectImages([]*Node{noPayload, noMime}, nil, 0, 0); len(images) != 0 {
		t.Errorf("len(images) = %d, want 0", len(images))
	}
}

func TestSelectImagesMetadataWhitelist(t *testing.T) {
	node := pageNode(NodeTypeImage, 500, 500)
	images := SelectImages([]*Node{node}, []string{"file_name", "page_label"}, 0, 0)
	if len(images) != 1 {
		t.Fatalf("len(images) = %d, want 1", len(images))
	}

	md := images[0].Metadata()
	if md["file_name"] != "doc.pdf" || md["page_label"] != "3" {
		t.Errorf("whitelisted keys missing: %v", md)
	}
	if _, ok := md["ignored"]; ok {
		t.Errorf("non-whitelisted key leaked: %v", md)
	}
}

func TestSelectTextsKeepsCompositeOnly(t *testing.T) {
	composite := &Node{Type: NodeTypeComposite, Text: "some paragraph"}
	title := &Node{Type: NodeTypeTitle, Text: "Title"}
	empty := &Node{Type: NodeTypeComposite, Text: "   "}

	texts := SelectTexts([]*Node{composite, title, empty}, nil)
	if len(texts) != 1 {
		t.Fatalf("len(texts) = %d, want 1", len(texts))
	}
	if texts[0].Content() != "some paragraph" {
		t.Errorf("Content() = %q", texts[0].Content())
	}
}

func TestSelectTablesFormats(t *testing.T) {
	node := pageNode(NodeTypeTable, 500, 500)

	text, err := SelectTables([]*Node{node}, TableFormatText, nil, 0, 0)
	if err != nil || len(text) != 1 || text[0].Content() != "| a | b |" {
		t.Errorf("text tables = %v, err = %v", text, err)
	}

	html, err := SelectTables([]*Node{node}, TableFormatHTML, nil, 0, 0)
	if err != nil || len(html) != 1 || html[0].Content() != node.HTML {
		t.Errorf("html tables = %v, err = %v", html, err)
	}

	image, err := SelectTables([]*Node{node}, TableFormatImage, nil, 0, 0)
	if err != nil || len(image) != 1 || !image[0].IsImage() {
		t.Errorf("image tables = %v, err = %v", image, err)
	}

	if _, err := SelectTables([]*Node{node}, TableFormat("csv"), nil, 0, 0); err == nil {
		t.Error("SelectTables(csv) expected error")
	}
}

func TestSelectTablesSkipsMissingData(t *testing.T) {
	noHTML := pageNode(NodeTypeTable, 500, 500)
	noHTML.HTML = ""
	if tables, err := SelectTables([]*Node{noHTML}, TableFormatHTML, nil, 0, 0); err != nil || len(tables) != 0 {
		t.Errorf("html tables without rendering = %v, err = %v", tables, err)
	}

	noImage := pageNode(NodeTypeTable, 500, 500)
	noImage.ImageBase64 = ""
	if tables, err := SelectTables([]*Node{noImage}, TableFormatImage, nil, 0, 0); err != nil || len(tables) != 0 {
		t.Errorf("image tables without payload = %v, err = %v", tables, err)
	}
}

func TestNodeSizeNormalized(t *testing.T) {
	// Pre-normalized coordinates (no layout size).
	node := &Node{
		Coordinates: []Point{{X: 0.2, Y: 0.1}, {X: 0.7, Y: 0.1}, {X: 0.7, Y: 0.4}, {X: 0.2, Y: 0.4}},
	}
	w, h := node.Size()
	if w < 0.499 || w > 0.501 || h < 0.299 || h > 0.301 {
		t.Errorf("Size() = (%v, %v), want (0.5, 0.3)", w, h)
	}

	if w, h := (&Node{}).Size(); w != 0 || h != 0 {
		t.Errorf("Size() without coordinates = (%v, %v), want zeros", w, h)
	}
}

func TestNewTokenChunkerRejectsInvalidBounds(t *testing.T) {
	if _, err := NewTokenChunker(0, 0); err == nil {
		t.Error("NewTokenChunker(0, 0) expected error")
	}
	if _, err := NewTokenChunker(100, 100); err == nil {
		t.Error("NewTokenChunker(overlap == size) expected error")
	}
}
