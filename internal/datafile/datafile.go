package datafile

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	ACTIVE_DATAFILE = "archive_%d.db"
)

// DataFile is an append-only file holding archive records. It keeps a
// separate append-mode writer and a random access reader on the same
// path.
type DataFile struct {
	writer *os.File
	reader *os.File
	id     int

	offset int
}

// New initialises a datafile for storing/reading records.
// At a given time only one file is written to.
func New(dir string, index int) (*DataFile, error) {
	// If the file doesn't exist, create it, or append to the file.
	path := filepath.Join(dir, fmt.Sprintf(ACTIVE_DATAFILE, index))
	writer, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening file for writing db: %w", err)
	}

	// Create a reader for reading the db file.
	reader, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening file for reading db: %w", err)
	}

	// Get the offset for the current file.
	stat, err := writer.Stat()
	if err != nil {
		return nil, fmt.Errorf("error fetching file stats: %w", err)
	}

	df := &DataFile{
		writer: writer,
		reader: reader,
		id:     index,
		offset: int(stat.Size()),
	}

	return df, nil
}

// ID returns the ID of the datafile.
func (d *DataFile) ID() int {
	return d.id
}

// Size returns the size of the db file in bytes.
func (d *DataFile) Size() (int64, error) {
	stat, err := d.writer.Stat()
	if err != nil {
		return -1, fmt.Errorf("error fetching file stats: %w", err)
	}

	return stat.Size(), nil
}

// Sync flushes the in-memory buffers to the disk.
func (d *DataFile) Sync() error {
	return d.writer.Sync()
}

// Read returns size bytes starting at the given offset.
func (d *DataFile) Read(offset int, size int) ([]byte, error) {
	// Initialise a buffer for reading data.
	record := make([]byte, size)

	// Read the file at the given offset.
	n, err := d.reader.ReadAt(record, int64(offset))
	if err != nil {
		return nil, err
	}

	// Check if the size of bytes read matches the record size.
	if n != size {
		return nil, fmt.Errorf("error fetching record, invalid size")
	}

	return record, nil
}

// Write appends the record to the underlying db file and returns the
// offset it was written at.
func (d *DataFile) Write(data []byte) (int, error) {
	if _, err := d.writer.Write(data); err != nil {
		return -1, err
	}

	// Store the current size of the file.
	offset := d.offset

	// Increase the offset of the current active file.
	d.offset += len(data)

	return offset, nil
}

// Close closes the file descriptors of the underlying db file.
func (d *DataFile) Close() error {
	if err := d.writer.Close(); err != nil {
		return err
	}

	if err := d.reader.Close(); err != nil {
		return err
	}

	return nil
}
