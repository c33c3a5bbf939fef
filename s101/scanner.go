package s101

// Scanner extracts complete BOF..EOF frames from an arbitrarily chunked
// byte stream. Because any content byte equal to BOF or EOF is always
// escaped before transmission (escapeAbove <= BOF, EOF), a raw 0xFE/0xFF
// byte in the stream is unambiguously a real delimiter, never escaped
// content straddling a read boundary.
type Scanner struct {
	buf       []byte
	inFrame   bool
	frameHead int
}

// Feed appends newly read bytes and returns every complete frame found,
// in order. Bytes preceding the first BOF of a pass, and any bytes left
// over after the last EOF, are retained internally for the next call.
func (s *Scanner) Feed(data []byte) [][]byte {
	s.buf = append(s.buf, data...)

	var frames [][]byte
	i := 0
	for i < len(s.buf) {
		if !s.inFrame {
			if s.buf[i] == BOF {
				s.inFrame = true
				s.frameHead = i
			}
			i++
			continue
		}
		if s.buf[i] == EOF {
			frame := append([]byte(nil), s.buf[s.frameHead:i+1]...)
			frames = append(frames, frame)
			s.inFrame = false
			i++
			continue
		}
		i++
	}

	if s.inFrame {
		// Keep only from the current frame's BOF onward.
		s.buf = append([]byte(nil), s.buf[s.frameHead:]...)
		s.frameHead = 0
	} else {
		s.buf = s.buf[:0]
	}
	return frames
}
