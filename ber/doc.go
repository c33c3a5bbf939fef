// Package ber implements the subset of ASN.1 Basic Encoding Rules that
// the Ember+ wire protocol requires: tagged primitives (integer, real,
// UTF-8 string, octet string, boolean, null, relative-OID, 64-bit long
// integer) and constructed sequences, in both definite and indefinite
// length form.
//
// The package has two halves. Writer builds a value bottom-up into a
// growable buffer; Sequence bodies may be written either streamed
// (indefinite length, no back-patching) or buffered (definite length,
// computed after the fact). Reader walks a decoded byte slice with a
// cursor, exposing peekTag/enterSequence/exitSequence so callers can
// decode Ember+'s tagged structures without knowing their length ahead
// of time.
//
// Ember+ layers its own tag scheme on top of BER: application-class
// tags identify structures (Parameter, Node, Command, ...) and
// context-class tags label fields within a structure. This package
// only implements the generic ASN.1 machinery; package ember builds the
// Ember+-specific structures on top of it.
package ber
