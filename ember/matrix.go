package ember

import (
	"github.com/emberplus-go/goember/ber"
	"github.com/emberplus-go/goember/tree"
)

// MatrixType identifies how targets may be connected to sources.
type MatrixType int

const (
	MatrixOneToN MatrixType = iota
	MatrixOneToOne
	MatrixNToN
)

// AddressingMode identifies how target/source identifiers map to
// physical ports.
type AddressingMode int

const (
	AddressingLinear AddressingMode = iota
	AddressingNonLinear
)

// ConnectionOperation describes what a MatrixConnection asks the peer to
// do with the listed sources.
type ConnectionOperation int

const (
	ConnectionAbsolute ConnectionOperation = iota
	ConnectionConnect
	ConnectionDisconnect
)

// ConnectionDisposition reports the peer's processing state for a
// connection change.
type ConnectionDisposition int

const (
	DispositionTally ConnectionDisposition = iota
	DispositionModified
	DispositionPending
	DispositionLocked
)

// Connection is one target's current source set within a Matrix.
type Connection struct {
	Target      int
	Sources     []int
	Operation   ConnectionOperation
	Disposition ConnectionDisposition
	Locked      bool
}

// Matrix is a crossbar control structure.
type Matrix struct {
	tree.Envelope

	IdentifierField          string
	Type                     MatrixType
	AddressingMode           AddressingMode
	TargetCount              int
	SourceCount              int
	MaximumTotalConnects     *int
	MaximumConnectsPerTarget *int
	ParametersLocation       *string
	Labels                   []string
	Connections              map[int]Connection
}

var _ tree.Element = (*Matrix)(nil)

func (m *Matrix) Kind() tree.Kind    { return tree.KindMatrix }
func (m *Matrix) Identifier() string { return m.IdentifierField }

func (m *Matrix) ApplyScalars(fragment tree.Element) {
	f, ok := fragment.(*Matrix)
	if !ok {
		q, ok := fragment.(*QualifiedMatrix)
		if !ok {
			return
		}
		f = &q.Matrix
	}
	if f.IdentifierField != "" {
		m.IdentifierField = f.IdentifierField
	}
	if f.TargetCount != 0 {
		m.TargetCount = f.TargetCount
	}
	if f.SourceCount != 0 {
		m.SourceCount = f.SourceCount
	}
	if f.MaximumTotalConnects != nil {
		m.MaximumTotalConnects = f.MaximumTotalConnects
	}
	if f.MaximumConnectsPerTarget != nil {
		m.MaximumConnectsPerTarget = f.MaximumConnectsPerTarget
	}
	if f.ParametersLocation != nil {
		m.ParametersLocation = f.ParametersLocation
	}
	if f.Labels != nil {
		m.Labels = f.Labels
	}
	if f.Connections != nil {
		if m.Connections == nil {
			m.Connections = make(map[int]Connection, len(f.Connections))
		}
		for target, conn := range f.Connections {
			m.Connections[target] = conn
		}
	}
}

func (m *Matrix) Encode(w *ber.Writer) {
	w.StartSequence(appTag(tagMatrix))
	m.encodeFields(w)
	w.EndSequence()
}

func (m *Matrix) encodeFields(w *ber.Writer) {
	w.StartSequence(ctx(0))
	w.WriteInteger(int64(m.Number()))
	w.EndSequence()

	if m.IdentifierField != "" {
		w.StartSequence(ctx(1))
		w.WriteString(m.IdentifierField)
		w.EndSequence()
	}
	w.StartSequence(ctx(2))
	w.WriteEnumerated(int64(m.Type))
	w.EndSequence()
	w.StartSequence(ctx(3))
	w.WriteEnumerated(int64(m.AddressingMode))
	w.EndSequence()
	w.StartSequence(ctx(4))
	w.WriteInteger(int64(m.TargetCount))
	w.EndSequence()
	w.StartSequence(ctx(5))
	w.WriteInteger(int64(m.SourceCount))
	w.EndSequence()
	if m.MaximumTotalConnects != nil {
		w.StartSequence(ctx(6))
		w.WriteInteger(int64(*m.MaximumTotalConnects))
		w.EndSequence()
	}
	if m.MaximumConnectsPerTarget != nil {
		w.StartSequence(ctx(7))
		w.WriteInteger(int64(*m.MaximumConnectsPerTarget))
		w.EndSequence()
	}
	if m.ParametersLocation != nil {
		w.StartSequence(ctx(8))
		w.WriteString(*m.ParametersLocation)
		w.EndSequence()
	}
	if m.Labels != nil {
		w.StartSequence(ctx(9))
		for _, l := range m.Labels {
			w.WriteString(l)
		}
		w.EndSequence()
	}
	if len(m.Connections) > 0 {
		w.StartSequence(ctx(10))
		for _, conn := range m.Connections {
			encodeConnection(w, conn)
		}
		w.EndSequence()
	}
}

func (m *Matrix) Decode(r *ber.Reader) error {
	if err := r.EnterSequence(appTag(tagMatrix)); err != nil {
		return err
	}
	if err := m.decodeFields(r); err != nil {
		return err
	}
	return r.ExitSequence()
}

func (m *Matrix) decodeFields(r *ber.Reader) error {
	for r.Remaining() {
		tag, err := r.PeekTag()
		if err != nil {
			return err
		}
		switch tag.Number {
		case 0:
			n, err := enterReadExit(r, 0, func(r *ber.Reader) (int64, error) { return r.ReadInteger() })
			if err != nil {
				return err
			}
			m.SetNumber(int(n))
		case 1:
			s, err := enterReadExit(r, 1, func(r *ber.Reader) (string, error) { return r.ReadString() })
			if err != nil {
				return err
			}
			m.IdentifierField = s
		case 2:
			n, err := enterReadExit(r, 2, func(r *ber.Reader) (int64, error) { return r.ReadEnumerated() })
			if err != nil {
				return err
			}
			m.Type = MatrixType(n)
		case 3:
			n, err := enterReadExit(r, 3, func(r *ber.Reader) (int64, error) { return r.ReadEnumerated() })
			if err != nil {
				return err
			}
			m.AddressingMode = AddressingMode(n)
		case 4:
			n, err := enterReadExit(r, 4, func(r *ber.Reader) (int64, error) { return r.ReadInteger() })
			if err != nil {
				return err
			}
			m.TargetCount = int(n)
		case 5:
			n, err := enterReadExit(r, 5, func(r *ber.Reader) (int64, error) { return r.ReadInteger() })
			if err != nil {
				return err
			}
			m.SourceCount = int(n)
		case 6:
			n, err := enterReadExit(r, 6, func(r *ber.Reader) (int64, error) { return r.ReadInteger() })
			if err != nil {
				return err
			}
			v := int(n)
			m.MaximumTotalConnects = &v
		case 7:
			n, err := enterReadExit(r, 7, func(r *ber.Reader) (int64, error) { return r.ReadInteger() })
			if err != nil {
				return err
			}
			v := int(n)
			m.MaximumConnectsPerTarget = &v
		case 8:
			s, err := enterReadExit(r, 8, func(r *ber.Reader) (string, error) { return r.ReadString() })
			if err != nil {
				return err
			}
			m.ParametersLocation = &s
		case 9:
			if err := r.EnterSequence(ctx(9)); err != nil {
				return err
			}
			var labels []string
			for r.Remaining() {
				s, err := r.ReadString()
				if err != nil {
					return err
				}
				labels = append(labels, s)
			}
			m.Labels = labels
			if err := r.ExitSequence(); err != nil {
				return err
			}
		case 10:
			if err := r.EnterSequence(ctx(10)); err != nil {
				return err
			}
			conns := make(map[int]Connection)
			for r.Remaining() {
				c, err := decodeConnection(r)
				if err != nil {
					return err
				}
				conns[c.Target] = c
			}
			m.Connections = conns
			if err := r.ExitSequence(); err != nil {
				return err
			}
		default:
			if err := r.SkipValue(); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeConnection(w *ber.Writer, c Connection) {
	w.StartSequence(appTag(tagMatrixConnection))
	w.StartSequence(ctx(0))
	w.WriteInteger(int64(c.Target))
	w.EndSequence()
	w.StartSequence(ctx(1))
	for _, s := range c.Sources {
		w.WriteInteger(int64(s))
	}
	w.EndSequence()
	w.StartSequence(ctx(2))
	w.WriteEnumerated(int64(c.Operation))
	w.EndSequence()
	w.StartSequence(ctx(3))
	w.WriteEnumerated(int64(c.Disposition))
	w.EndSequence()
	w.StartSequence(ctx(4))
	w.WriteBoolean(c.Locked)
	w.EndSequence()
	w.EndSequence()
}

func decodeConnection(r *ber.Reader) (Connection, error) {
	var c Connection
	if err := r.EnterSequence(appTag(tagMatrixConnection)); err != nil {
		return c, err
	}
	for r.Remaining() {
		tag, err := r.PeekTag()
		if err != nil {
			return c, err
		}
		switch tag.Number {
		case 0:
			n, err := enterReadExit(r, 0, func(r *ber.Reader) (int64, error) { return r.ReadInteger() })
			if err != nil {
				return c, err
			}
			c.Target = int(n)
		case 1:
			if err := r.EnterSequence(ctx(1)); err != nil {
				return c, err
			}
			for r.Remaining() {
				n, err := r.ReadInteger()
				if err != nil {
					return c, err
				}
				c.Sources = append(c.Sources, int(n))
			}
			if err := r.ExitSequence(); err != nil {
				return c, err
			}
		case 2:
			n, err := enterReadExit(r, 2, func(r *ber.Reader) (int64, error) { return r.ReadEnumerated() })
			if err != nil {
				return c, err
			}
			c.Operation = ConnectionOperation(n)
		case 3:
			n, err := enterReadExit(r, 3, func(r *ber.Reader) (int64, error) { return r.ReadEnumerated() })
			if err != nil {
				return c, err
			}
			c.Disposition = ConnectionDisposition(n)
		case 4:
			b, err := enterReadExit(r, 4, func(r *ber.Reader) (bool, error) { return r.ReadBoolean() })
			if err != nil {
				return c, err
			}
			c.Locked = b
		default:
			if err := r.SkipValue(); err != nil {
				return c, err
			}
		}
	}
	return c, r.ExitSequence()
}

// MatrixConnection is the request/response fragment carrying one or more
// target connection changes for a matrix.
type MatrixConnection struct {
	Connections map[int]Connection
}

func (mc *MatrixConnection) Encode(w *ber.Writer) {
	for _, c := range mc.Connections {
		encodeConnection(w, c)
	}
}

// ConnectRequest builds a MatrixConnection fragment requesting the given
// target/source connections; the caller validates ranges against
// TargetCount/SourceCount before sending.
func (m *Matrix) ConnectRequest(connections map[int]Connection) *MatrixConnection {
	return &MatrixConnection{Connections: connections}
}
