package ember

import (
	"bytes"
	"testing"

	"github.com/emberplus-go/goember/ber"
	"github.com/emberplus-go/goember/tree"
	"github.com/google/go-cmp/cmp"
)

func roundTrip(t *testing.T, encode func(*ber.Writer), decode func(*ber.Reader) error) {
	t.Helper()
	w := ber.NewWriter()
	encode(w)
	r := ber.NewReader(w.Bytes())
	if err := decode(r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !r.AtEnd() {
		t.Error("reader should be exhausted after decode")
	}
}

func TestStreamDescriptionContract(t *testing.T) {
	want := &StreamDescription{Format: FormatInt32BE, Offset: 42}
	var got StreamDescription
	roundTrip(t, want.Encode, got.Decode)
	if diff := cmp.Diff(*want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// TestStreamDescriptionPinsInt32BEWireValue pins the literal on-wire
// enumerated value Int32BE must carry: 4, per Ember+'s stream-format
// enumeration. A round trip alone would pass under any self-consistent
// reordering of StreamFormat's ordinals, so this builds the expected
// encoding directly from BER primitives instead of through the
// StreamFormat constant.
func TestStreamDescriptionPinsInt32BEWireValue(t *testing.T) {
	got := ber.NewWriter()
	(&StreamDescription{Format: FormatInt32BE, Offset: 42}).Encode(got)

	want := ber.NewWriter()
	want.StartSequence(appTag(tagStreamDescription))
	want.StartSequence(ctx(0))
	want.WriteEnumerated(4)
	want.EndSequence()
	want.StartSequence(ctx(1))
	want.WriteInteger(42)
	want.EndSequence()
	want.EndSequence()

	if !bytes.Equal(got.Bytes(), want.Bytes()) {
		t.Errorf("Int32BE wire encoding = % x, want % x (enumerated value 4)", got.Bytes(), want.Bytes())
	}
}

func TestParameterRoundTrip(t *testing.T) {
	desc := "gain"
	format := "%d dB"
	want := &Parameter{
		IdentifierField: "gain",
		Description:     &desc,
		Value:           IntegerValue(5),
		Minimum:         ptrValue(IntegerValue(-10)),
		Maximum:         ptrValue(IntegerValue(10)),
		Format:          &format,
	}
	want.SetNumber(2)
	access := AccessReadWrite
	want.AccessField = &access

	var got Parameter
	roundTrip(t, want.Encode, got.Decode)

	opts := cmp.Options{cmp.AllowUnexported(tree.Envelope{})}
	if diff := cmp.Diff(want, &got, opts); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func ptrValue(v Value) *Value { return &v }

func TestNodeWithChildrenRoundTrip(t *testing.T) {
	root := &Node{IdentifierField: "device"}
	root.SetNumber(1)
	child := &Parameter{IdentifierField: "level", Value: RealValue(3.5)}
	child.SetNumber(1)
	if err := root.AddChild(child); err != nil {
		t.Fatalf("AddChild: %v", err)
	}

	var got Node
	roundTrip(t, root.Encode, got.Decode)

	if got.IdentifierField != "device" {
		t.Errorf("identifier: want device, got %s", got.IdentifierField)
	}
	if len(got.Children()) != 1 {
		t.Fatalf("want 1 child, got %d", len(got.Children()))
	}
	gotChild, ok := got.Children()[0].(*Parameter)
	if !ok {
		t.Fatalf("child type: want *Parameter, got %T", got.Children()[0])
	}
	if gotChild.Value.Kind != ValueKindReal || gotChild.Value.Real != 3.5 {
		t.Errorf("child value: %+v", gotChild.Value)
	}
}

func TestMatrixConnectionsRoundTrip(t *testing.T) {
	m := &Matrix{
		IdentifierField: "router",
		Type:            MatrixOneToN,
		TargetCount:     4,
		SourceCount:     4,
		Connections: map[int]Connection{
			3: {Target: 3, Sources: []int{1, 2}, Operation: ConnectionConnect, Disposition: DispositionModified},
		},
	}
	m.SetNumber(1)

	var got Matrix
	roundTrip(t, m.Encode, got.Decode)

	conn, ok := got.Connections[3]
	if !ok {
		t.Fatal("expected connection for target 3")
	}
	if diff := cmp.Diff([]int{1, 2}, conn.Sources); diff != "" {
		t.Errorf("sources mismatch (-want +got):\n%s", diff)
	}
	if conn.Operation != ConnectionConnect {
		t.Errorf("operation: want connect, got %v", conn.Operation)
	}
}

func TestFunctionRoundTrip(t *testing.T) {
	fn := &Function{
		IdentifierField: "reset",
		Arguments:       []TupleItem{{Name: "force", Type: "boolean"}},
		Result:          []TupleItem{{Name: "ok", Type: "boolean"}},
	}
	fn.SetNumber(1)

	var got Function
	roundTrip(t, fn.Encode, got.Decode)

	if diff := cmp.Diff(fn.Arguments, got.Arguments); diff != "" {
		t.Errorf("arguments mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(fn.Result, got.Result); diff != "" {
		t.Errorf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestQualifiedParameterRoundTrip(t *testing.T) {
	q := &QualifiedParameter{Path: tree.Path{1, 3, 2}}
	q.IdentifierField = "level"
	q.Value = IntegerValue(7)

	var got QualifiedParameter
	roundTrip(t, q.Encode, got.Decode)

	if !got.Path.Equal(tree.Path{1, 3, 2}) {
		t.Errorf("path: want 1.3.2, got %s", got.Path.String())
	}
	if got.Value.Kind != ValueKindInteger || got.Value.Integer != 7 {
		t.Errorf("value: %+v", got.Value)
	}
}

func TestElementCollectionMixedQualifiedAndPositional(t *testing.T) {
	coll := &ElementCollection{}
	node := &Node{IdentifierField: "device"}
	node.SetNumber(1)
	_ = coll.AddChild(node)

	qp := &QualifiedParameter{Path: tree.Path{1, 2}}
	qp.IdentifierField = "level"
	qp.Value = IntegerValue(1)
	_ = coll.AddChild(qp)

	data := EncodeMessage(coll)
	got, err := DecodeMessage(data)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if len(got.Children()) != 2 {
		t.Fatalf("want 2 children, got %d", len(got.Children()))
	}
	if _, ok := got.Children()[0].(*Node); !ok {
		t.Errorf("first child type: %T", got.Children()[0])
	}
	if _, ok := got.Children()[1].(*QualifiedParameter); !ok {
		t.Errorf("second child type: %T", got.Children()[1])
	}
}

func TestCommandInvokeRoundTrip(t *testing.T) {
	fn := &Function{IdentifierField: "reset"}
	fn.SetNumber(1)
	cmd := fn.InvokeRequest(7, []Value{BooleanValue(true)})

	var got Command
	roundTrip(t, cmd.Encode, got.Decode)

	if got.CommandKind != CommandInvoke {
		t.Fatalf("command kind: want Invoke, got %v", got.CommandKind)
	}
	if got.Invocation == nil || got.Invocation.InvocationID != 7 {
		t.Fatalf("invocation: %+v", got.Invocation)
	}
	if len(got.Invocation.Arguments) != 1 || got.Invocation.Arguments[0].Boolean != true {
		t.Fatalf("arguments: %+v", got.Invocation.Arguments)
	}
}

func TestInvocationResultRoundTrip(t *testing.T) {
	want := &InvocationResult{InvocationID: 4, Success: true, Result: []Value{IntegerValue(200)}}
	var got InvocationResult
	roundTrip(t, want.Encode, got.Decode)

	opts := cmp.Options{cmp.AllowUnexported(tree.Envelope{})}
	if diff := cmp.Diff(want, &got, opts); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
