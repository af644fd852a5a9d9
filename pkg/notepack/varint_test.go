package notepack

import (
	"encoding/hex"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVarintRoundTrip(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		value uint64
		hex   string
	}{
		{0, "00"},
		{1, "01"},
		{127, "7f"},
		{128, "8001"},
		{300, "ac02"},
		{16383, "ff7f"},
		{16384, "808001"},
		{1720000000, "80bc94b406"},
		{math.MaxUint64 >> 1, "ffffffffffffffff7f"},
		{math.MaxUint64, "ffffffffffffffffff01"},
	}

	for _, c := range cases {
		enc := appendUvarint(nil, c.value)
		assert.Equal(c.hex, hex.EncodeToString(enc), "encoding of %d", c.value)

		v, n, err := readUvarint(enc)
		assert.NoError(err)
		assert.Equal(c.value, v)
		assert.Equal(len(enc), n, "consumed count for %d", c.value)
	}
}

func TestVarintAppendsToExisting(t *testing.T) {
	assert := assert.New(t)

	buf := []byte{0xde, 0xad}
	buf = appendUvarint(buf, 300)
	assert.Equal("deadac02", hex.EncodeToString(buf))
}

func TestVarintDecodeStopsAtTerminator(t *testing.T) {
	assert := assert.New(t)

	// Trailing garbage after the terminal byte must not be consumed.
	data := []byte{0xac, 0x02, 0xff, 0xff}
	v, n, err := readUvarint(data)
	assert.NoError(err)
	assert.Equal(uint64(300), v)
	assert.Equal(2, n)
}

func TestVarintNonMinimalAccepted(t *testing.T) {
	assert := assert.New(t)

	// 0 padded out to two bytes still decodes; encoders never emit
	// this but decoders take it.
	v, n, err := readUvarint([]byte{0x80, 0x00})
	assert.NoError(err)
	assert.Equal(uint64(0), v)
	assert.Equal(2, n)
}

func TestVarintOverflow(t *testing.T) {
	assert := assert.New(t)

	t.Run("NineByteMaxFits", func(t *testing.T) {
		v, n, err := readUvarint([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f})
		assert.NoError(err)
		assert.Equal(uint64(math.MaxUint64>>1), v)
		assert.Equal(9, n)
	})

	t.Run("TenBytePayloadOneFits", func(t *testing.T) {
		v, n, err := readUvarint([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01})
		assert.NoError(err)
		assert.Equal(uint64(math.MaxUint64), v)
		assert.Equal(10, n)
	})

	t.Run("TenthByteBeyondBit63", func(t *testing.T) {
		// Payload 0x02 in the 10th byte would land on bit 64.
		_, _, err := readUvarint([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02})
		assert.ErrorIs(err, ErrVarintOverflow)
	})

	t.Run("TenthByteContinues", func(t *testing.T) {
		// Even a zero payload overflows once the continuation bit
		// pushes past ten bytes.
		_, _, err := readUvarint([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x00})
		assert.ErrorIs(err, ErrVarintOverflow)
	})
}

func TestVarintUnterminated(t *testing.T) {
	assert := assert.New(t)

	t.Run("Empty", func(t *testing.T) {
		_, _, err := readUvarint(nil)
		assert.ErrorIs(err, ErrVarintUnterminated)
	})

	t.Run("ContinuationAtEnd", func(t *testing.T) {
		_, _, err := readUvarint([]byte{0x80})
		assert.ErrorIs(err, ErrVarintUnterminated)
	})

	t.Run("ContinuationMidValue", func(t *testing.T) {
		_, _, err := readUvarint([]byte{0xff, 0xff})
		assert.ErrorIs(err, ErrVarintUnterminated)
	})
}

func TestTaggedVarint(t *testing.T) {
	assert := assert.New(t)

	t.Run("BytesBit", func(t *testing.T) {
		// len=32 with the bytes bit packs to raw value 65.
		enc := appendTaggedUvarint(nil, 32, true)
		assert.Equal("41", hex.EncodeToString(enc))

		length, binary, n, err := readTaggedUvarint(enc)
		assert.NoError(err)
		assert.Equal(uint64(32), length)
		assert.True(binary)
		assert.Equal(1, n)
	})

	t.Run("TextBit", func(t *testing.T) {
		// len=23 as text packs to raw value 46.
		enc := appendTaggedUvarint(nil, 23, false)
		assert.Equal("2e", hex.EncodeToString(enc))

		length, binary, n, err := readTaggedUvarint(enc)
		assert.NoError(err)
		assert.Equal(uint64(23), length)
		assert.False(binary)
		assert.Equal(1, n)
	})

	t.Run("MultiByte", func(t *testing.T) {
		enc := appendTaggedUvarint(nil, 300, false)
		assert.Equal("d804", hex.EncodeToString(enc))

		length, binary, _, err := readTaggedUvarint(enc)
		assert.NoError(err)
		assert.Equal(uint64(300), length)
		assert.False(binary)
	})

	t.Run("PropagatesVarintErrors", func(t *testing.T) {
		_, _, _, err := readTaggedUvarint([]byte{0x80})
		assert.ErrorIs(err, ErrVarintUnterminated)
	})
}
