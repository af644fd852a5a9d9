package archive

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"sort"

	"github.com/notepack/notepack/internal/datafile"
)

// get locates the record for an id that is already in normalized form.
// Caller must hold the lock.
func (a *Archive) get(key string) (*Record, error) {
	// Check for an entry in the note directory.
	meta, ok := a.notedir[key]
	if !ok {
		return nil, ErrNoNote
	}

	// The record may live in the active file or in any of the stale ones.
	df := a.df
	if meta.FileID != df.ID() {
		df, ok = a.stale[meta.FileID]
		if !ok {
			return nil, fmt.Errorf("error locating datafile with id %d", meta.FileID)
		}
	}

	// Read the file at the stored offset.
	data, err := df.Read(meta.RecordPos, meta.RecordSize)
	if err != nil {
		return nil, fmt.Errorf("error reading data from file: %w", err)
	}

	// Decode the header.
	var header Header
	if err := header.decode(data); err != nil {
		return nil, fmt.Errorf("error decoding record header: %w", err)
	}

	return &Record{Header: header, Payload: data[headerSize:]}, nil
}

// put validates the packed note and appends it to the given datafile.
// Caller must hold the lock.
func (a *Archive) put(df *datafile.DataFile, packed []byte) error {
	v, expiry, err := inspect(packed)
	if err != nil {
		return err
	}

	pos, size, err := a.append(df, packed, 0, expiry)
	if err != nil {
		return err
	}

	// Add the entry to the note directory. We just save the id and some
	// metadata for faster lookups. The note itself only lives on disk.
	a.notedir[hex.EncodeToString(v.ID)] = Meta{
		Timestamp:  int(v.CreatedAt),
		RecordSize: size,
		RecordPos:  pos,
		FileID:     df.ID(),
		Expiry:     expiry,
	}

	return nil
}

// delete appends a tombstone record for an id that is already in
// normalized form. Caller must hold the lock.
func (a *Archive) delete(key string) error {
	if _, ok := a.notedir[key]; !ok {
		return ErrNoNote
	}

	// The key is normalized hex, so this cannot fail.
	raw, err := hex.DecodeString(key)
	if err != nil {
		return ErrBadID
	}

	if _, _, err := a.append(a.df, raw, flagTombstone, 0); err != nil {
		return err
	}

	delete(a.notedir, key)
	return nil
}

// append writes a single record to the given datafile and returns the
// offset it was written at along with the full record size.
func (a *Archive) append(df *datafile.DataFile, payload []byte, flags, expiry uint32) (int, int, error) {
	if int64(len(payload)) > maxPayloadSize {
		return 0, 0, ErrTooLarge
	}

	header := Header{
		Checksum: crc32.ChecksumIEEE(payload),
		Flags:    flags,
		Expiry:   expiry,
		Size:     uint32(len(payload)),
	}

	// Get a buffer from the pool for writing data.
	buf := a.bufPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		a.bufPool.Put(buf)
	}()

	if err := header.encode(buf); err != nil {
		return 0, 0, fmt.Errorf("error encoding record header: %w", err)
	}
	buf.Write(payload)

	// Append to the underlying file.
	offset, err := df.Write(buf.Bytes())
	if err != nil {
		return 0, 0, fmt.Errorf("error writing record to file: %w", err)
	}

	// Ensure the filesystem's in-memory buffer is flushed to disk.
	if a.opts.alwaysFSync {
		if err := df.Sync(); err != nil {
			return 0, 0, fmt.Errorf("error syncing file to disk: %w", err)
		}
	}

	return offset, buf.Len(), nil
}

// rebuild replays every datafile on disk in id order into the note
// directory. Later records win, so the directory converges on the same
// state the writer had, and tombstones drop their note again.
func (a *Archive) rebuild() error {
	ids := make([]int, 0, len(a.stale)+1)
	for id := range a.stale {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	ids = append(ids, a.df.ID())

	for _, id := range ids {
		df := a.df
		if id != a.df.ID() {
			df = a.stale[id]
		}
		if err := a.scan(df); err != nil {
			return err
		}
	}

	return nil
}

// scan walks a single datafile from the start, replaying each record.
// The scan stops at the first torn or corrupt record: everything before
// that point is kept, everything after it is unreachable anyway since
// record boundaries are lost.
func (a *Archive) scan(df *datafile.DataFile) error {
	size, err := df.Size()
	if err != nil {
		return err
	}

	var offset int
	for int64(offset) < size {
		head, err := df.Read(offset, headerSize)
		if err != nil {
			a.lo.Warn("torn record header, stopping scan", "file_id", df.ID(), "offset", offset)
			break
		}

		var header Header
		if err := header.decode(head); err != nil {
			return fmt.Errorf("error decoding record header: %w", err)
		}

		payload, err := df.Read(offset+headerSize, int(header.Size))
		if err != nil {
			a.lo.Warn("torn record payload, stopping scan", "file_id", df.ID(), "offset", offset)
			break
		}

		record := Record{Header: header, Payload: payload}
		if !record.isValidChecksum() {
			a.lo.Warn("corrupt record, stopping scan", "file_id", df.ID(), "offset", offset)
			break
		}

		if record.isTombstone() {
			delete(a.notedir, hex.EncodeToString(payload))
		} else {
			v, expiry, err := inspect(payload)
			if err != nil {
				// The checksum matched, so this was written as-is.
				// Skip it rather than lose the rest of the file.
				a.lo.Warn("undecodable note in datafile, skipping", "file_id", df.ID(), "offset", offset, "error", err)
			} else {
				a.notedir[hex.EncodeToString(v.ID)] = Meta{
					Timestamp:  int(v.CreatedAt),
					RecordSize: headerSize + int(header.Size),
					RecordPos:  offset,
					FileID:     df.ID(),
					Expiry:     expiry,
				}
			}
		}

		offset += headerSize + int(header.Size)
	}

	return nil
}
