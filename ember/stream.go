package ember

import "github.com/emberplus-go/goember/ber"

// StreamFormat selects the sample type a stream packet's bytes decode as.
// The ordinals follow Ember+'s wire enumeration for stream formats
// (unsigned-integer and IEEE-float branches) rather than a locally
// convenient iota sequence, so a peer decoding our StreamDescription sees
// the same numeric tag a reference Ember+ provider would send.
type StreamFormat int

const (
	FormatInt8      StreamFormat = 0
	FormatInt16BE   StreamFormat = 2
	FormatInt16LE   StreamFormat = 3
	FormatInt32BE   StreamFormat = 4
	FormatInt32LE   StreamFormat = 5
	FormatInt64BE   StreamFormat = 6
	FormatInt64LE   StreamFormat = 7
	FormatFloat32BE StreamFormat = 20
	FormatFloat32LE StreamFormat = 21
	FormatFloat64BE StreamFormat = 22
	FormatFloat64LE StreamFormat = 23
)

// StreamDescription locates a parameter's value within a multiplexed
// stream packet: format selects the sample type, offset is the byte
// offset into the packet.
type StreamDescription struct {
	Format StreamFormat
	Offset int
}

// Encode writes the application-tagged top-level form.
func (s *StreamDescription) Encode(w *ber.Writer) {
	w.StartSequence(appTag(tagStreamDescription))
	s.encodeFields(w)
	w.EndSequence()
}

// Decode reads the application-tagged top-level form.
func (s *StreamDescription) Decode(r *ber.Reader) error {
	if err := r.EnterSequence(appTag(tagStreamDescription)); err != nil {
		return err
	}
	if err := s.decodeFields(r); err != nil {
		return err
	}
	return r.ExitSequence()
}

func (s *StreamDescription) encodeFields(w *ber.Writer) {
	w.StartSequence(ctx(0))
	w.WriteEnumerated(int64(s.Format))
	w.EndSequence()

	w.StartSequence(ctx(1))
	w.WriteInteger(int64(s.Offset))
	w.EndSequence()
}

func (s *StreamDescription) decodeFields(r *ber.Reader) error {
	for r.Remaining() {
		tag, err := r.PeekTag()
		if err != nil {
			return err
		}
		switch tag.Number {
		case 0:
			v, err := enterReadExit(r, 0, func(r *ber.Reader) (int64, error) { return r.ReadEnumerated() })
			if err != nil {
				return err
			}
			s.Format = StreamFormat(v)
		case 1:
			v, err := enterReadExit(r, 1, func(r *ber.Reader) (int64, error) { return r.ReadInteger() })
			if err != nil {
				return err
			}
			s.Offset = int(v)
		default:
			if err := r.SkipValue(); err != nil {
				return err
			}
		}
	}
	return nil
}

// StreamEntry pairs a stream identifier with a raw sample value as
// carried in an unsolicited stream-update message, independent of the
// tree (a stream update is not merged as a node field).
type StreamEntry struct {
	StreamIdentifier int
	Value            Value
}

func (s *StreamEntry) Encode(w *ber.Writer) {
	w.StartSequence(appTag(tagStreamEntry))
	w.StartSequence(ctx(0))
	w.WriteInteger(int64(s.StreamIdentifier))
	w.EndSequence()
	s.Value.encode(w, ctx(1))
	w.EndSequence()
}

func (s *StreamEntry) Decode(r *ber.Reader) error {
	if err := r.EnterSequence(appTag(tagStreamEntry)); err != nil {
		return err
	}
	for r.Remaining() {
		tag, err := r.PeekTag()
		if err != nil {
			return err
		}
		switch tag.Number {
		case 0:
			v, err := enterReadExit(r, 0, func(r *ber.Reader) (int64, error) { return r.ReadInteger() })
			if err != nil {
				return err
			}
			s.StreamIdentifier = int(v)
		case 1:
			v, err := decodeValueField(r, 1)
			if err != nil {
				return err
			}
			s.Value = v
		default:
			if err := r.SkipValue(); err != nil {
				return err
			}
		}
	}
	return r.ExitSequence()
}

// StreamCollection carries a batch of StreamEntry updates in one message.
type StreamCollection struct {
	Entries []StreamEntry
}

func (s *StreamCollection) Encode(w *ber.Writer) {
	w.StartSequence(appTag(tagStreamCollection))
	for i := range s.Entries {
		s.Entries[i].Encode(w)
	}
	w.EndSequence()
}

func (s *StreamCollection) Decode(r *ber.Reader) error {
	if err := r.EnterSequence(appTag(tagStreamCollection)); err != nil {
		return err
	}
	for r.Remaining() {
		var e StreamEntry
		if err := e.Decode(r); err != nil {
			return err
		}
		s.Entries = append(s.Entries, e)
	}
	return r.ExitSequence()
}
