package extraction

// NodeType is the type tag a partitioner assigns to a raw layout node.
type NodeType string

const (
	// NodeTypeImage is a picture or figure extracted from the page.
	NodeTypeImage NodeType = "Image"
	// NodeTypeTable is a detected table region.
	NodeTypeTable NodeType = "Table"
	// NodeTypeComposite is a merged text block produced by chunking or by
	// the partitioner itself.
	NodeTypeComposite NodeType = "CompositeElement"
	// NodeTypeNarrativeText is a paragraph of running text.
	NodeTypeNarrativeText NodeType = "NarrativeText"
	// NodeTypeTitle is a heading.
	NodeTypeTitle NodeType = "Title"
)

// Point is a corner coordinate in device space.
type Point struct {
	X float64
	Y float64
}

// Node is a raw layout node produced by the partitioner. Selection converts
// nodes into typed elements; chunking may merge or split text-bearing nodes
// before selection.
type Node struct {
	Type NodeType

	// Text is the extracted text of the node.
	Text string

	// HTML is an upstream-provided HTML rendering of a table node. Empty
	// unless table structure inference was enabled during partitioning.
	HTML string

	// ImageBase64 and ImageMimeType carry the embedded image payload of
	// image and table nodes, when extracted.
	ImageBase64   string
	ImageMimeType string

	// Coordinates are the corner points of the node in device space.
	// LayoutWidth and LayoutHeight describe the device-space canvas used to
	// project them onto a unit coordinate system.
	Coordinates  []Point
	LayoutWidth  float64
	LayoutHeight float64

	// Metadata is free-form upstream metadata (file name, page label, ...).
	Metadata map[string]interface{}
}

// Size computes the width and height of the node's bounding envelope in a
// normalized 0-1 coordinate space. Nodes without coordinates report zero size.
func (n *Node) Size() (width, height float64) {
	if len(n.Coordinates) == 0 {
		return 0, 0
	}

	minX, maxX := n.Coordinates[0].X, n.Coordinates[0].X
	minY, maxY := n.Coordinates[0].Y, n.Coordinates[0].Y
	for _, c := range n.Coordinates[1:] {
		if c.X < minX {
			minX = c.X
		}
		if c.X > maxX {
			maxX = c.X
		}
		if c.Y < minY {
			minY = c.Y
		}
		if c.Y > maxY {
			maxY = c.Y
		}
	}

	width = maxX - minX
	height = maxY - minY

	// Project onto the unit canvas. Coordinates without a layout size are
	// assumed to be normalized already.
	if n.LayoutWidth > 0 {
		width /= n.LayoutWidth
	}
	if n.LayoutHeight > 0 {
		height /= n.LayoutHeight
	}
	return width, height
}

// isTextBearing reports whether the node contributes to the document's text
// flow and can be merged by the chunker.
func (n *Node) isTextBearing() bool {
	switch n.Type {
	case NodeTypeComposite, NodeTypeNarrativeText, NodeTypeTitle:
		return true
	default:
		return false
	}
}

// selectMetadata copies the whitelisted keys from the node's upstream
// metadata. Keys absent from the node are left out.
func selectMetadata(node *Node, keys []string) map[string]interface{} {
	md := make(map[string]interface{}, len(keys))
	for _, key := range keys {
		if v, ok := node.Metadata[key]; ok {
			md[key] = v
		}
	}
	return md
}
