package client

import (
	"github.com/emberplus-go/goember/ember"
	"github.com/emberplus-go/goember/tree"
)

// touchesPath reports whether one of fragment's direct children is a
// Qualified element addressing exactly path.
func touchesPath(fragment tree.Element, path tree.Path) bool {
	for _, child := range fragment.Children() {
		q, ok := child.(tree.Qualified)
		if ok && q.QualifiedPath().Equal(path) {
			return true
		}
	}
	return false
}

// childrenOf reports whether one of fragment's direct children is a
// Qualified element whose path's parent is exactly path — i.e. the
// fragment carries at least one direct child of the node at path.
func childrenOf(fragment tree.Element, path tree.Path) bool {
	for _, child := range fragment.Children() {
		q, ok := child.(tree.Qualified)
		if !ok {
			continue
		}
		parent, ok := q.QualifiedPath().Parent()
		if ok && parent.Equal(path) {
			return true
		}
	}
	return false
}

// matchGetDirectory reports whether fragment satisfies a getDirectory
// request for the element at path with the given kind: a matrix's
// directory response echoes the matrix itself at its own path, while
// every other kind's response carries the target's direct children.
//
// Only Qualified children are recognized here, since requests.go always
// sends getDirectory as a qualified command and a provider is expected to
// echo qualified responses in kind. A purely positional response (nested
// Node->Node->children, no Qualified wrapper) would not match and the
// request would time out.
func matchGetDirectory(path tree.Path, kind tree.Kind) func(tree.Element) bool {
	return func(fragment tree.Element) bool {
		if len(path) == 0 {
			return len(fragment.Children()) > 0
		}
		if kind == tree.KindMatrix {
			return touchesPath(fragment, path)
		}
		return childrenOf(fragment, path) || touchesPath(fragment, path)
	}
}

// matchSetValue reports whether fragment carries the target parameter's
// value field, i.e. the peer's echo of a setValue request.
func matchSetValue(path tree.Path) func(tree.Element) bool {
	return func(fragment tree.Element) bool {
		for _, child := range fragment.Children() {
			q, ok := child.(*ember.QualifiedParameter)
			if !ok {
				continue
			}
			if q.QualifiedPath().Equal(path) && q.Value.Kind != ember.ValueKindNone {
				return true
			}
		}
		return false
	}
}

// matchMatrixOp reports whether fragment carries the target matrix's
// updated connections, i.e. the peer's echo of a connect/disconnect
// request.
func matchMatrixOp(path tree.Path) func(tree.Element) bool {
	return func(fragment tree.Element) bool {
		for _, child := range fragment.Children() {
			q, ok := child.(*ember.QualifiedMatrix)
			if !ok {
				continue
			}
			if q.QualifiedPath().Equal(path) && len(q.Connections) > 0 {
				return true
			}
		}
		return false
	}
}
