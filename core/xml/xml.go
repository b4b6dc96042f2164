// Package xml provides a small DOM over xmlquery for walking scripture
// documents node by node, plus XPath lookup.
//
// Security Notes:
//   - XXE (External Entity) attacks are mitigated by the parser: xmlquery
//     uses Go's encoding/xml, which never fetches external entities.
//   - Documents are read fully into memory before parsing; callers bound the
//     input size.
package xml

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// NodeKind classifies a node for tree walks.
type NodeKind int

const (
	// OtherNode covers comments, declarations and processing instructions.
	OtherNode NodeKind = iota
	// ElementNode is an XML element.
	ElementNode
	// TextNode is character data, including CDATA sections.
	TextNode
)

// Document represents a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Node represents one node of a Document.
type Node struct {
	node *xmlquery.Node
}

// Parse parses XML data and returns a Document.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// Root returns the root element of the document.
func (d *Document) Root() *Node {
	if d == nil || d.root == nil {
		return nil
	}
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return &Node{node: child}
		}
	}
	return nil
}

// XPath executes an XPath query and returns matching nodes.
func (d *Document) XPath(expr string) ([]*Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}

	nodes, err := xmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}

	result := make([]*Node, len(nodes))
	for i, n := range nodes {
		result[i] = &Node{node: n}
	}
	return result, nil
}

// XPathFirst executes an XPath query and returns the first matching node,
// or nil when nothing matches.
func (d *Document) XPathFirst(expr string) (*Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid xpath: %w", err)
	}

	node, err := xmlquery.Query(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	if node == nil {
		return nil, nil
	}
	return &Node{node: node}, nil
}

// Kind returns the node kind.
func (n *Node) Kind() NodeKind {
	if n == nil || n.node == nil {
		return OtherNode
	}
	switch n.node.Type {
	case xmlquery.ElementNode:
		return ElementNode
	case xmlquery.TextNode, xmlquery.CharDataNode:
		return TextNode
	default:
		return OtherNode
	}
}

// IsElement reports whether the node is an element named name (local name,
// compared case-sensitively). An empty name matches any element.
func (n *Node) IsElement(name string) bool {
	if n.Kind() != ElementNode {
		return false
	}
	return name == "" || n.node.Data == name
}

// Name returns the local element name.
func (n *Node) Name() string {
	if n == nil || n.node == nil || n.node.Type != xmlquery.ElementNode {
		return ""
	}
	return n.node.Data
}

// Data returns the character data of a text node, verbatim.
func (n *Node) Data() string {
	if n.Kind() != TextNode {
		return ""
	}
	return n.node.Data
}

// InnerText returns all text content of the node and its descendants.
func (n *Node) InnerText() string {
	if n == nil || n.node == nil {
		return ""
	}
	return n.node.InnerText()
}

// Nodes returns every child node in document order, text included.
func (n *Node) Nodes() []*Node {
	if n == nil || n.node == nil {
		return nil
	}
	var nodes []*Node
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		nodes = append(nodes, &Node{node: child})
	}
	return nodes
}

// Children returns the child element nodes.
func (n *Node) Children() []*Node {
	if n == nil || n.node == nil {
		return nil
	}
	var children []*Node
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			children = append(children, &Node{node: child})
		}
	}
	return children
}

// Parent returns the parent element, or nil at the root.
func (n *Node) Parent() *Node {
	if n == nil || n.node == nil || n.node.Parent == nil || n.node.Parent.Type != xmlquery.ElementNode {
		return nil
	}
	return &Node{node: n.node.Parent}
}

// Same reports whether n and other wrap the same underlying node.
func (n *Node) Same(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.node == other.node
}

// Attr returns the value of an attribute by local name, or "".
func (n *Node) Attr(name string) string {
	v, _ := n.LookupAttr(name)
	return v
}

// LookupAttr returns the value of an attribute by local name and whether it
// is present.
func (n *Node) LookupAttr(name string) (string, bool) {
	if n == nil || n.node == nil {
		return "", false
	}
	for _, attr := range n.node.Attr {
		if attr.Name.Local == name {
			return attr.Value, true
		}
	}
	return "", false
}

// Attributes returns all attributes of the node by local name.
func (n *Node) Attributes() map[string]string {
	if n == nil || n.node == nil {
		return nil
	}
	attrs := make(map[string]string, len(n.node.Attr))
	for _, attr := range n.node.Attr {
		attrs[attr.Name.Local] = attr.Value
	}
	return attrs
}

// Walk visits the element descendants of n in document order. When fn
// returns false the subtree of that element is not visited.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || n.node == nil {
		return
	}
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		c := &Node{node: child}
		if fn(c) {
			c.Walk(fn)
		}
	}
}

// String returns a short description of the node for diagnostics.
func (n *Node) String() string {
	switch n.Kind() {
	case ElementNode:
		var sb strings.Builder
		sb.WriteString("<")
		sb.WriteString(n.node.Data)
		for _, attr := range n.node.Attr {
			fmt.Fprintf(&sb, " %s=%q", attr.Name.Local, attr.Value)
		}
		sb.WriteString(">")
		return sb.String()
	case TextNode:
		return fmt.Sprintf("%q", n.node.Data)
	default:
		return "<?>"
	}
}
