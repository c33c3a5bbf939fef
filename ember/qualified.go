package ember

import (
	"github.com/emberplus-go/goember/ber"
	"github.com/emberplus-go/goember/tree"
)

// QualifiedNode is a Node carrying its absolute path instead of relying
// on positional parent containment.
type QualifiedNode struct {
	Node
	Path tree.Path
}

var _ tree.Qualified = (*QualifiedNode)(nil)

func (q *QualifiedNode) QualifiedPath() tree.Path { return q.Path }

func (q *QualifiedNode) Encode(w *ber.Writer) {
	w.StartSequence(appTag(tagQualifiedNode))
	w.StartSequence(ctx(0))
	w.WriteRelativeOID(pathToSegments(q.Path))
	w.EndSequence()
	q.Node.encodeFields(w)
	w.EndSequence()
}

func (q *QualifiedNode) Decode(r *ber.Reader) error {
	if err := r.EnterSequence(appTag(tagQualifiedNode)); err != nil {
		return err
	}
	if err := decodeQualifiedPath(r, &q.Path); err != nil {
		return err
	}
	if err := q.Node.decodeFields(r); err != nil {
		return err
	}
	return r.ExitSequence()
}

// QualifiedParameter is a Parameter carrying its absolute path.
type QualifiedParameter struct {
	Parameter
	Path tree.Path
}

var _ tree.Qualified = (*QualifiedParameter)(nil)

func (q *QualifiedParameter) QualifiedPath() tree.Path { return q.Path }

func (q *QualifiedParameter) Encode(w *ber.Writer) {
	w.StartSequence(appTag(tagQualifiedParameter))
	w.StartSequence(ctx(0))
	w.WriteRelativeOID(pathToSegments(q.Path))
	w.EndSequence()
	q.Parameter.encodeFields(w)
	w.EndSequence()
}

func (q *QualifiedParameter) Decode(r *ber.Reader) error {
	if err := r.EnterSequence(appTag(tagQualifiedParameter)); err != nil {
		return err
	}
	if err := decodeQualifiedPath(r, &q.Path); err != nil {
		return err
	}
	if err := q.Parameter.decodeFields(r); err != nil {
		return err
	}
	return r.ExitSequence()
}

// QualifiedMatrix is a Matrix carrying its absolute path.
type QualifiedMatrix struct {
	Matrix
	Path tree.Path
}

var _ tree.Qualified = (*QualifiedMatrix)(nil)

func (q *QualifiedMatrix) QualifiedPath() tree.Path { return q.Path }

func (q *QualifiedMatrix) Encode(w *ber.Writer) {
	w.StartSequence(appTag(tagQualifiedMatrix))
	w.StartSequence(ctx(0))
	w.WriteRelativeOID(pathToSegments(q.Path))
	w.EndSequence()
	q.Matrix.encodeFields(w)
	w.EndSequence()
}

func (q *QualifiedMatrix) Decode(r *ber.Reader) error {
	if err := r.EnterSequence(appTag(tagQualifiedMatrix)); err != nil {
		return err
	}
	if err := decodeQualifiedPath(r, &q.Path); err != nil {
		return err
	}
	if err := q.Matrix.decodeFields(r); err != nil {
		return err
	}
	return r.ExitSequence()
}

// QualifiedFunction is a Function carrying its absolute path.
type QualifiedFunction struct {
	Function
	Path tree.Path
}

var _ tree.Qualified = (*QualifiedFunction)(nil)

func (q *QualifiedFunction) QualifiedPath() tree.Path { return q.Path }

func (q *QualifiedFunction) Encode(w *ber.Writer) {
	w.StartSequence(appTag(tagQualifiedFunction))
	w.StartSequence(ctx(0))
	w.WriteRelativeOID(pathToSegments(q.Path))
	w.EndSequence()
	q.Function.encodeFields(w)
	w.EndSequence()
}

func (q *QualifiedFunction) Decode(r *ber.Reader) error {
	if err := r.EnterSequence(appTag(tagQualifiedFunction)); err != nil {
		return err
	}
	if err := decodeQualifiedPath(r, &q.Path); err != nil {
		return err
	}
	if err := q.Function.decodeFields(r); err != nil {
		return err
	}
	return r.ExitSequence()
}

func pathToSegments(p tree.Path) []uint32 {
	segs := make([]uint32, len(p))
	for i, n := range p {
		segs[i] = uint32(n)
	}
	return segs
}

func decodeQualifiedPath(r *ber.Reader, dst *tree.Path) error {
	if err := r.EnterSequence(ctx(0)); err != nil {
		return err
	}
	segs, err := r.ReadRelativeOID()
	if err != nil {
		return err
	}
	p := make(tree.Path, len(segs))
	for i, s := range segs {
		p[i] = int(s)
	}
	*dst = p
	return r.ExitSequence()
}
