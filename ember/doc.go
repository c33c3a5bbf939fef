// Package ember implements the Ember+ application-tagged structures
// (Parameter, Node, Matrix, Function, their Qualified forms, Command,
// ElementCollection, MatrixConnection, InvocationRequest/Result, and
// StreamDescription) on top of package ber's generic ASN.1 machinery.
//
// Every type here implements tree.Element, so package tree's merge and
// lookup logic can operate on a decoded Ember+ fragment without knowing
// which concrete payload it carries — the dispatch happens once, in
// Decode, as a type-switch on the application tag number, the same shape
// as a JSON "type"-field switch but keyed on a BER tag instead.
package ember
