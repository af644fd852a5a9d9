package notepack

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewFixedFields(t *testing.T) {
	assert := assert.New(t)

	v, err := View(testVector(t))
	assert.NoError(err)

	assert.Equal(byte(1), v.Version)
	assert.Equal(bytes.Repeat([]byte{0x00}, 32), v.ID)
	assert.Equal(bytes.Repeat([]byte{0x11}, 32), v.Pubkey)
	assert.Equal(bytes.Repeat([]byte{0x22}, 64), v.Sig)
	assert.Equal(uint64(1720000000), v.CreatedAt)
	assert.Equal(uint64(0), v.Kind)
	assert.Equal([]byte("hello"), v.Content)
	assert.Equal(uint64(2), v.TagCount())
}

func TestViewTruncatedPrefix(t *testing.T) {
	assert := assert.New(t)

	buf := []byte{Version}
	buf = append(buf, make([]byte, IDSize)...)

	_, err := View(buf)
	assert.ErrorIs(err, ErrTruncated)
}

func TestTagsWalksAllElements(t *testing.T) {
	assert := assert.New(t)

	note := &Note{
		ID:     make([]byte, IDSize),
		Pubkey: make([]byte, PubkeySize),
		Sig:    make([]byte, SigSize),
		Tags: []Tag{
			{Str("p"), Bin([]byte{0xaa, 0xbb}), Str("hello")},
			{Str("")},
		},
	}
	packed, err := Pack(note)
	assert.NoError(err)

	v, err := View(packed)
	assert.NoError(err)
	assert.Equal(uint64(2), v.TagCount())

	var out []string
	tags := v.Tags()
	for tags.Next() {
		for tags.NextElem() {
			e := tags.Elem()
			if e.Binary {
				out = append(out, "B:"+hex.EncodeToString(e.Data))
			} else {
				out = append(out, "S:"+string(e.Data))
			}
		}
	}
	assert.NoError(tags.Err())
	assert.Equal([]string{"S:p", "B:aabb", "S:hello", "S:"}, out)
}

func TestTagsSkipsUnreadElements(t *testing.T) {
	assert := assert.New(t)

	note := &Note{
		ID:     make([]byte, IDSize),
		Pubkey: make([]byte, PubkeySize),
		Sig:    make([]byte, SigSize),
		Tags: []Tag{
			{Str("a"), Str("b"), Str("c")},
			{Str("z")},
		},
	}
	packed, err := Pack(note)
	assert.NoError(err)

	v, err := View(packed)
	assert.NoError(err)

	tags := v.Tags()

	// Read only the first element of the first tag, then advance.
	assert.True(tags.Next())
	assert.True(tags.NextElem())
	assert.Equal("a", string(tags.Elem().Data))
	assert.Equal(uint64(2), tags.Remaining())

	// Next must fast-forward past "b" and "c" and land on the second
	// tag.
	assert.True(tags.Next())
	assert.True(tags.NextElem())
	assert.Equal("z", string(tags.Elem().Data))
	assert.False(tags.NextElem())

	assert.False(tags.Next())
	assert.NoError(tags.Err())
}

func TestTagsSurfacesTruncation(t *testing.T) {
	assert := assert.New(t)

	// One tag, one element claiming 10 bytes with only 3 present.
	tagBlock := appendUvarint(nil, 1)
	tagBlock = appendUvarint(tagBlock, 1)
	tagBlock = appendTaggedUvarint(tagBlock, 10, false)
	tagBlock = append(tagBlock, []byte("abc")...)

	v, err := View(rawNote(nil, 0, tagBlock))
	assert.NoError(err) // tag payloads are lazy, nothing read yet

	t.Run("OnRead", func(t *testing.T) {
		tags := v.Tags()
		assert.True(tags.Next())
		assert.False(tags.NextElem())
		assert.ErrorIs(tags.Err(), ErrTruncated)

		// Errored cursors stay down.
		assert.False(tags.Next())
		assert.False(tags.NextElem())
	})

	t.Run("OnSkip", func(t *testing.T) {
		tags := v.Tags()
		assert.True(tags.Next())
		// Skipping the damaged element reports the error instead of
		// silently realigning.
		assert.False(tags.Next())
		assert.ErrorIs(tags.Err(), ErrTruncated)
	})
}

func TestTagsRestartable(t *testing.T) {
	assert := assert.New(t)

	v, err := View(testVector(t))
	assert.NoError(err)

	count := func() int {
		n := 0
		tags := v.Tags()
		for tags.Next() {
			for tags.NextElem() {
				n++
			}
		}
		return n
	}

	// Each Tags call starts a fresh cursor over the same block.
	assert.Equal(5, count())
	assert.Equal(5, count())
}

func TestUnpackRoundTrip(t *testing.T) {
	assert := assert.New(t)

	packed, err := Pack(testNote())
	assert.NoError(err)

	note, err := Unpack(packed)
	assert.NoError(err)

	assert.Equal(bytes.Repeat([]byte{0x00}, 32), note.ID)
	assert.Equal(bytes.Repeat([]byte{0x11}, 32), note.Pubkey)
	assert.Equal(bytes.Repeat([]byte{0x22}, 64), note.Sig)
	assert.Equal(uint64(1720000000), note.CreatedAt)
	assert.Equal(uint64(0), note.Kind)
	assert.Equal("hello", note.Content)

	// The hex-looking elements were classified to raw bytes; their
	// string form is gone, only the payload survives.
	assert.Len(note.Tags, 2)
	assert.Equal(Str("e"), note.Tags[0][0])
	assert.Equal(Bin(bytes.Repeat([]byte{0xaa}, 32)), note.Tags[0][1])
	assert.Equal(Str("wss://relay.example.com"), note.Tags[0][2])
	assert.Equal(Str("p"), note.Tags[1][0])
	assert.Equal(Bin(bytes.Repeat([]byte{0xbb}, 32)), note.Tags[1][1])

	// Re-packing the unpacked note reproduces the wire bytes.
	again, err := Pack(note)
	assert.NoError(err)
	assert.Equal(packed, again)
}

func TestUnpackString(t *testing.T) {
	assert := assert.New(t)

	note, err := UnpackString(testVectorString)
	assert.NoError(err)
	assert.Equal("hello", note.Content)
	assert.Equal(uint64(1720000000), note.CreatedAt)

	_, err = UnpackString("nostr_AQID")
	assert.ErrorIs(err, ErrPrefix)
}

func TestUnpackHostileTagCount(t *testing.T) {
	assert := assert.New(t)

	// Declares a million tags but carries no tag data at all; the
	// materializer must fail without allocating for the count.
	v, err := View(rawNote(nil, 0, appendUvarint(nil, 1_000_000)))
	assert.NoError(err)
	assert.Equal(uint64(1_000_000), v.TagCount())

	_, err = v.Note()
	assert.ErrorIs(err, ErrVarintUnterminated)
}

func TestUnpackOwnsItsData(t *testing.T) {
	assert := assert.New(t)

	packed, err := Pack(testNote())
	assert.NoError(err)

	note, err := Unpack(packed)
	assert.NoError(err)

	// Clobbering the wire buffer must not reach into the note.
	for i := range packed {
		packed[i] = 0xff
	}
	assert.Equal(bytes.Repeat([]byte{0x11}, 32), note.Pubkey)
	assert.Equal("hello", note.Content)
	assert.Equal(Str("wss://relay.example.com"), note.Tags[0][2])
}

func TestViewBorrowsItsData(t *testing.T) {
	assert := assert.New(t)

	packed, err := Pack(testNote())
	assert.NoError(err)

	v, err := View(packed)
	assert.NoError(err)

	// The view is a window over the buffer, not a copy.
	packed[1] = 0x42
	assert.Equal(byte(0x42), v.ID[0])
}
