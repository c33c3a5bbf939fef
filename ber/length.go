package ber

const indefiniteLengthByte = 0x80

// appendLength appends the BER length encoding of n to buf: short form for
// n < 0x80, long-definite form (a byte with the high bit set giving the
// length-of-length, followed by the big-endian length) otherwise.
func appendLength(buf []byte, n int) []byte {
	if n < 0x80 {
		return append(buf, byte(n))
	}

	var lenBytes []byte
	for v := n; v > 0; v >>= 8 {
		lenBytes = append([]byte{byte(v)}, lenBytes...)
	}
	buf = append(buf, byte(0x80|len(lenBytes)))
	return append(buf, lenBytes...)
}
