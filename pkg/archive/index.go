package archive

import (
	"os"

	"github.com/fxamacker/cbor/v2"
)

// NoteDir represents an in-memory hash for faster lookups of a note id.
// Once the id is found in the map, the additional metadata like the record
// offset and the file ID is used to extract the underlying record from disk.
// Advantage is that this approach only requires a single disk seek of the
// db file since the position offset (in bytes) is already stored.
type NoteDir map[string]Meta

// Meta represents some additional properties for the given note id.
// The packed note itself is not stored in the in-memory hashtable.
type Meta struct {
	Timestamp  int    `cbor:"1,keyasint"`
	RecordSize int    `cbor:"2,keyasint"`
	RecordPos  int    `cbor:"3,keyasint"`
	FileID     int    `cbor:"4,keyasint"`
	Expiry     uint32 `cbor:"5,keyasint"`
}

// Encode encodes the map to a CBOR file.
// This is typically used to generate a hints file.
// Caller of this program should ensure to lock/unlock the map before calling.
func (n *NoteDir) Encode(fPath string) error {
	file, err := os.Create(fPath)
	if err != nil {
		return err
	}
	defer file.Close()

	return cbor.NewEncoder(file).Encode(n)
}

// Decode populates the map from a CBOR hints file.
func (n *NoteDir) Decode(fPath string) error {
	file, err := os.Open(fPath)
	if err != nil {
		return err
	}
	defer file.Close()

	return cbor.NewDecoder(file).Decode(n)
}
