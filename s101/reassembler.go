package s101

import "github.com/emberplus-go/goember/emberrors"

// Reassembler joins the EmBER-data frames of one logical message, keyed
// by the FirstPacket/LastPacket flag bits, into a single payload.
type Reassembler struct {
	pending    []byte
	inProgress bool
}

// Add feeds one frame's payload into the reassembler. It returns the
// completed message and true once a LastPacket frame closes it; until
// then it returns nil, false.
func (ra *Reassembler) Add(f Frame) ([]byte, bool, error) {
	if f.IsFirst() {
		ra.pending = append([]byte(nil), f.Payload...)
		ra.inProgress = true
	} else {
		if !ra.inProgress {
			return nil, false, emberrors.WrapInvalid(emberrors.ErrFrame, "s101", "Reassembler.Add", "continuation frame without a preceding FirstPacket")
		}
		ra.pending = append(ra.pending, f.Payload...)
	}

	if f.IsLast() {
		complete := ra.pending
		ra.pending = nil
		ra.inProgress = false
		return complete, true, nil
	}
	return nil, false, nil
}
