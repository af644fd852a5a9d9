package notepack

// appendUvarint appends v to buf as an unsigned LEB128 varint and
// returns the extended buffer. Zero encodes as a single 0x00 byte and
// a full uint64 takes at most 10 bytes.
func appendUvarint(buf []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf = append(buf, b)
		if v == 0 {
			return buf
		}
	}
}

// readUvarint decodes an unsigned LEB128 varint from the start of
// data and returns the value along with the number of bytes consumed.
// A byte whose payload bits would land beyond bit 63 fails with
// ErrVarintOverflow before anything is accumulated, so oversized
// input can never silently lose high bits. Input that ends while the
// continuation bit is still set fails with ErrVarintUnterminated.
// Non-minimal encodings are accepted.
func readUvarint(data []byte) (uint64, int, error) {
	var (
		v     uint64
		shift uint
	)
	for i, b := range data {
		if shift == 63 && b&0x7f > 1 {
			return 0, 0, ErrVarintOverflow
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, i + 1, nil
		}
		shift += 7
		if shift > 63 {
			return 0, 0, ErrVarintOverflow
		}
	}
	return 0, 0, ErrVarintUnterminated
}

// appendTaggedUvarint appends a tagged varint: the length shifted
// left by one, with the low bit marking a raw bytes payload. Lengths
// come from Go slices so the shift cannot overflow a uint64.
func appendTaggedUvarint(buf []byte, length int, binary bool) []byte {
	tagged := uint64(length) << 1
	if binary {
		tagged |= 1
	}
	return appendUvarint(buf, tagged)
}

// readTaggedUvarint decodes a tagged varint from the start of data,
// splitting it into the payload length and the bytes-vs-text bit.
func readTaggedUvarint(data []byte) (length uint64, binary bool, n int, err error) {
	raw, n, err := readUvarint(data)
	if err != nil {
		return 0, false, 0, err
	}
	return raw >> 1, raw&1 != 0, n, nil
}
