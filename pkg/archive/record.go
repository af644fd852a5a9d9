package archive

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"hash/crc32"
	"strconv"
	"time"

	"github.com/notepack/notepack/pkg/notepack"
)

const (
	// headerSize is the fixed width of the record header in bytes.
	headerSize = 16

	// maxPayloadSize bounds a single record payload on disk.
	maxPayloadSize = int64(1 << 30)

	// flagTombstone marks a record as a delete marker. The payload of a
	// tombstone is the raw 32 byte id of the deleted note.
	flagTombstone = uint32(1 << 0)

	// expirationTag is the tag name carrying a unix timestamp after
	// which a note should no longer be served.
	expirationTag = "expiration"
)

/*
Record is a binary representation of how each record is persisted on disk.
The header fields have a fixed size of 4 bytes each (4+4+4+4 = 16 bytes).
Payload size = 4 bytes, so a record can theoretically hold up to
(2^32)-1 = ~4.29GB, though writes are capped well below that.

	---------------------------------------------------
	| crc(4) | flags(4) | expiry(4) | size(4) | payload |
	---------------------------------------------------

For a stored note the payload is the packed note itself. For a tombstone
the payload is the 32 byte note id and the tombstone flag bit is set.
*/
type Record struct {
	Header  Header
	Payload []byte
}

// Header represents the fixed width fields present at the start of every record.
type Header struct {
	Checksum uint32
	Flags    uint32
	Expiry   uint32
	Size     uint32
}

// encode writes the binary representation of the header to the buffer.
func (h *Header) encode(buf *bytes.Buffer) error {
	return binary.Write(buf, binary.LittleEndian, h)
}

// decode reads the binary header from the start of a record.
func (h *Header) decode(record []byte) error {
	return binary.Read(bytes.NewReader(record), binary.LittleEndian, h)
}

func (r *Record) isTombstone() bool {
	return r.Header.Flags&flagTombstone != 0
}

func (r *Record) isExpired() bool {
	if r.Header.Expiry == 0 {
		return false
	}
	return int64(r.Header.Expiry) <= time.Now().Unix()
}

func (r *Record) isValidChecksum() bool {
	return crc32.ChecksumIEEE(r.Payload) == r.Header.Checksum
}

// inspect walks a packed note end to end, validating every field, and
// returns its fixed prefix along with any expiration timestamp carried
// in the tags. A malformed expiration tag is ignored rather than
// rejected, matching how relays treat it.
func inspect(packed []byte) (*notepack.NoteView, uint32, error) {
	v, err := notepack.View(packed)
	if err != nil {
		return nil, 0, err
	}

	var expiry uint32

	tags := v.Tags()
	for tags.Next() {
		elem := 0
		var name []byte
		for tags.NextElem() {
			e := tags.Elem()
			switch elem {
			case 0:
				if !e.Binary {
					name = e.Data
				}
			case 1:
				if string(name) == expirationTag {
					// An even number of digits looks like lowercase hex,
					// so the encoder may have stored the timestamp as
					// raw bytes. Hex encoding recovers the original.
					val := string(e.Data)
					if e.Binary {
						val = hex.EncodeToString(e.Data)
					}
					if ts, perr := strconv.ParseUint(val, 10, 32); perr == nil {
						expiry = uint32(ts)
					}
				}
			}
			elem++
		}
	}
	if err := tags.Err(); err != nil {
		return nil, 0, err
	}

	return v, expiry, nil
}
