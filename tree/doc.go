// Package tree implements the in-memory mirror of a remote Ember+
// device's configuration tree: path-based addressing, duplicate-number
// detection, and in-place update-merge semantics.
//
// The package is deliberately generic over the payload a node carries.
// Package ember's Node, Parameter, Matrix, and Function types (and their
// Qualified variants) embed Envelope and implement Element, so this
// package never needs to know about Ember+'s wire tags — it only
// understands numbers, paths, and the ApplyScalars contract each
// concrete type provides for its own fields.
package tree
