package ber

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWriteReadInteger(t *testing.T) {
	cases := []int64{0, 1, -1, 127, 128, -128, -129, 255, 256, 65535, 1 << 40, -(1 << 40)}
	for _, v := range cases {
		w := NewWriter()
		w.WriteInteger(v)

		r := NewReader(w.Bytes())
		got, err := r.ReadInteger()
		if err != nil {
			t.Fatalf("ReadInteger(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip: want %d, got %d", v, got)
		}
		if !r.AtEnd() {
			t.Errorf("expected reader to be exhausted after %d", v)
		}
	}
}

func TestWriteReadReal(t *testing.T) {
	cases := []float64{0, 1, -1, 42.5, -42.5, 3.14159, 1e10, -1e-10}
	for _, v := range cases {
		w := NewWriter()
		w.WriteReal(v)

		r := NewReader(w.Bytes())
		got, err := r.ReadReal()
		if err != nil {
			t.Fatalf("ReadReal(%v): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip: want %v, got %v", v, got)
		}
	}
}

func TestWriteReadString(t *testing.T) {
	cases := []string{"", "hello", "Ember+ Lawo rüti²", "日本語"}
	for _, v := range cases {
		w := NewWriter()
		w.WriteString(v)

		r := NewReader(w.Bytes())
		got, err := r.ReadString()
		if err != nil {
			t.Fatalf("ReadString(%q): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip: want %q, got %q", v, got)
		}
	}
}

func TestWriteReadOctetString(t *testing.T) {
	want := []byte{0x00, 0x01, 0xFE, 0xFF, 0x80}
	w := NewWriter()
	w.WriteOctetString(want)

	r := NewReader(w.Bytes())
	got, err := r.ReadOctetString()
	if err != nil {
		t.Fatalf("ReadOctetString: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteReadBoolean(t *testing.T) {
	for _, v := range []bool{true, false} {
		w := NewWriter()
		w.WriteBoolean(v)

		r := NewReader(w.Bytes())
		got, err := r.ReadBoolean()
		if err != nil {
			t.Fatalf("ReadBoolean(%v): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip: want %v, got %v", v, got)
		}
	}
}

func TestWriteReadNull(t *testing.T) {
	w := NewWriter()
	w.WriteNull()

	r := NewReader(w.Bytes())
	if err := r.ReadNull(); err != nil {
		t.Fatalf("ReadNull: %v", err)
	}
}

func TestWriteReadEnumerated(t *testing.T) {
	w := NewWriter()
	w.WriteEnumerated(4)

	r := NewReader(w.Bytes())
	got, err := r.ReadEnumerated()
	if err != nil {
		t.Fatalf("ReadEnumerated: %v", err)
	}
	if got != 4 {
		t.Errorf("want 4, got %d", got)
	}
}

func TestWriteReadRelativeOID(t *testing.T) {
	want := []uint32{1, 2, 3, 200, 40000}
	w := NewWriter()
	w.WriteRelativeOID(want)

	r := NewReader(w.Bytes())
	got, err := r.ReadRelativeOID()
	if err != nil {
		t.Fatalf("ReadRelativeOID: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSequenceDefiniteRoundTrip(t *testing.T) {
	w := NewWriter()
	w.StartSequence(Application(1))
	w.StartSequence(ContextConstructed(0))
	w.WriteInteger(7)
	w.EndSequence()
	w.EndSequence()

	r := NewReader(w.Bytes())
	if err := r.EnterSequence(Application(1)); err != nil {
		t.Fatalf("EnterSequence outer: %v", err)
	}
	if err := r.EnterSequence(ContextConstructed(0)); err != nil {
		t.Fatalf("EnterSequence inner: %v", err)
	}
	got, err := r.ReadInteger()
	if err != nil {
		t.Fatalf("ReadInteger: %v", err)
	}
	if got != 7 {
		t.Errorf("want 7, got %d", got)
	}
	if err := r.ExitSequence(); err != nil {
		t.Fatalf("ExitSequence inner: %v", err)
	}
	if err := r.ExitSequence(); err != nil {
		t.Fatalf("ExitSequence outer: %v", err)
	}
	if !r.AtEnd() {
		t.Error("expected reader to be exhausted")
	}
}

func TestSequenceIndefiniteRoundTrip(t *testing.T) {
	w := NewWriter()
	w.StartSequenceIndefinite(Application(3))
	w.WriteString("root")
	w.WriteInteger(1)
	w.EndSequence()

	r := NewReader(w.Bytes())
	if err := r.EnterSequence(Application(3)); err != nil {
		t.Fatalf("EnterSequence: %v", err)
	}
	name, err := r.ReadString()
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if name != "root" {
		t.Errorf("want %q, got %q", "root", name)
	}
	num, err := r.ReadInteger()
	if err != nil {
		t.Fatalf("ReadInteger: %v", err)
	}
	if num != 1 {
		t.Errorf("want 1, got %d", num)
	}
	if err := r.ExitSequence(); err != nil {
		t.Fatalf("ExitSequence: %v", err)
	}
	if !r.AtEnd() {
		t.Error("expected reader to be exhausted")
	}
}

// TestStreamDescriptionShape encodes the wire shape of an Ember+
// StreamDescription (format = Int32BE as a context-0 enumerated value,
// offset = 42 as a context-1 integer) and checks it decodes back
// losslessly, the way a parameter's stream binding is read off the wire.
func TestStreamDescriptionShape(t *testing.T) {
	const formatInt32BE = 4

	w := NewWriter()
	w.StartSequence(Application(18)) // StreamDescription
	w.StartSequence(ContextConstructed(0))
	w.WriteEnumerated(formatInt32BE)
	w.EndSequence()
	w.StartSequence(ContextConstructed(1))
	w.WriteInteger(42)
	w.EndSequence()
	w.EndSequence()

	r := NewReader(w.Bytes())
	if err := r.EnterSequence(Application(18)); err != nil {
		t.Fatalf("EnterSequence: %v", err)
	}

	if err := r.EnterSequence(ContextConstructed(0)); err != nil {
		t.Fatalf("EnterSequence format: %v", err)
	}
	format, err := r.ReadEnumerated()
	if err != nil {
		t.Fatalf("ReadEnumerated format: %v", err)
	}
	if format != formatInt32BE {
		t.Errorf("format: want %d, got %d", formatInt32BE, format)
	}
	if err := r.ExitSequence(); err != nil {
		t.Fatalf("ExitSequence format: %v", err)
	}

	if err := r.EnterSequence(ContextConstructed(1)); err != nil {
		t.Fatalf("EnterSequence offset: %v", err)
	}
	offset, err := r.ReadInteger()
	if err != nil {
		t.Fatalf("ReadInteger offset: %v", err)
	}
	if offset != 42 {
		t.Errorf("offset: want 42, got %d", offset)
	}
	if err := r.ExitSequence(); err != nil {
		t.Fatalf("ExitSequence offset: %v", err)
	}

	if err := r.ExitSequence(); err != nil {
		t.Fatalf("ExitSequence outer: %v", err)
	}
	if !r.AtEnd() {
		t.Error("expected reader to be exhausted")
	}
}

func TestReadUnexpectedTag(t *testing.T) {
	w := NewWriter()
	w.WriteInteger(1)

	r := NewReader(w.Bytes())
	if _, err := r.ReadString(); err == nil {
		t.Fatal("expected an error reading a string where an integer was encoded")
	}
}

func TestReadTruncatedInput(t *testing.T) {
	w := NewWriter()
	w.WriteString("hello")
	truncated := w.Bytes()[:len(w.Bytes())-2]

	r := NewReader(truncated)
	if _, err := r.ReadString(); err == nil {
		t.Fatal("expected a truncation error")
	}
}

func TestSkipValueOverUnknownField(t *testing.T) {
	w := NewWriter()
	w.StartSequence(Application(1))
	w.WriteString("ignored")
	w.WriteInteger(99)
	w.EndSequence()

	r := NewReader(w.Bytes())
	if err := r.EnterSequence(Application(1)); err != nil {
		t.Fatalf("EnterSequence: %v", err)
	}
	if err := r.SkipValue(); err != nil {
		t.Fatalf("SkipValue: %v", err)
	}
	got, err := r.ReadInteger()
	if err != nil {
		t.Fatalf("ReadInteger: %v", err)
	}
	if got != 99 {
		t.Errorf("want 99, got %d", got)
	}
	if err := r.ExitSequence(); err != nil {
		t.Fatalf("ExitSequence: %v", err)
	}
}
