package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/emberplus-go/goember/tree"
)

// printTree renders the locally known tree as an indented outline, one
// line per node: its kind, its number, and its identifier when it has one.
func printTree(w io.Writer, root tree.Element) {
	for _, child := range root.Children() {
		printNode(w, child, 0)
	}
}

func printNode(w io.Writer, el tree.Element, depth int) {
	indent := strings.Repeat("  ", depth)
	if id := el.Identifier(); id != "" {
		fmt.Fprintf(w, "%s%s[%d] %s\n", indent, el.Kind(), el.Number(), id)
	} else {
		fmt.Fprintf(w, "%s%s[%d]\n", indent, el.Kind(), el.Number())
	}
	for _, child := range el.Children() {
		printNode(w, child, depth+1)
	}
}
