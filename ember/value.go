package ember

import (
	"fmt"

	"github.com/emberplus-go/goember/ber"
	"github.com/emberplus-go/goember/emberrors"
)

// ValueKind discriminates which variant of a Parameter's scalar value is
// populated; ValueKindNone means "no value carried", not a zero value.
type ValueKind int

const (
	ValueKindNone ValueKind = iota
	ValueKindInteger
	ValueKindReal
	ValueKindString
	ValueKindBoolean
	ValueKindOctets
)

// Value is the tagged union a Parameter's value, minimum, maximum, step,
// and default fields all share.
type Value struct {
	Kind    ValueKind
	Integer int64
	Real    float64
	String  string
	Boolean bool
	Octets  []byte
}

func IntegerValue(v int64) Value  { return Value{Kind: ValueKindInteger, Integer: v} }
func RealValue(v float64) Value   { return Value{Kind: ValueKindReal, Real: v} }
func StringValue(v string) Value  { return Value{Kind: ValueKindString, String: v} }
func BooleanValue(v bool) Value   { return Value{Kind: ValueKindBoolean, Boolean: v} }
func OctetsValue(v []byte) Value  { return Value{Kind: ValueKindOctets, Octets: v} }

// encode writes the value wrapped in the given context tag. Nothing is
// written for ValueKindNone; callers building an optional field should
// skip the call entirely in that case.
func (v Value) encode(w *ber.Writer, tag ber.Tag) {
	w.StartSequence(tag)
	switch v.Kind {
	case ValueKindInteger:
		w.WriteInteger(v.Integer)
	case ValueKindReal:
		w.WriteReal(v.Real)
	case ValueKindString:
		w.WriteString(v.String)
	case ValueKindBoolean:
		w.WriteBoolean(v.Boolean)
	case ValueKindOctets:
		w.WriteOctetString(v.Octets)
	case ValueKindNone:
		w.WriteNull()
	}
	w.EndSequence()
}

// decodeValue reads whatever primitive tag is next and infers the kind
// from it; Ember+ values are self-describing this way so the reader
// doesn't need to be told the expected kind up front.
func decodeValue(r *ber.Reader) (Value, error) {
	tag, err := r.PeekTag()
	if err != nil {
		return Value{}, err
	}

	switch tag.Number {
	case ber.TagInteger:
		n, err := r.ReadInteger()
		return IntegerValue(n), err
	case ber.TagReal:
		f, err := r.ReadReal()
		return RealValue(f), err
	case ber.TagUTF8String:
		s, err := r.ReadString()
		return StringValue(s), err
	case ber.TagBoolean:
		b, err := r.ReadBoolean()
		return BooleanValue(b), err
	case ber.TagOctetString:
		o, err := r.ReadOctetString()
		return OctetsValue(o), err
	case ber.TagNull:
		return Value{}, r.ReadNull()
	default:
		return Value{}, emberrors.WrapInvalid(
			fmt.Errorf("unsupported value tag %+v", tag), "ember", "decodeValue", "decode")
	}
}

// Access enumerates a parameter's read/write permission.
type Access int

const (
	AccessNone Access = iota
	AccessRead
	AccessWrite
	AccessReadWrite
)
