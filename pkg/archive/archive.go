package archive

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/notepack/notepack/internal/datafile"
	"github.com/notepack/notepack/pkg/notepack"
	"github.com/zerodha/logf"
)

const (
	LOCKFILE   = "archive.lock"
	HINTS_FILE = "archive.hints"
)

// Archive is an append-only store of packed notes keyed by note id.
type Archive struct {
	sync.Mutex

	lo      logf.Logger
	bufPool sync.Pool // Pool of byte buffers used for writing.
	opts    *Options

	notedir NoteDir                    // In-memory hashmap of all stored note ids.
	df      *datafile.DataFile         // Active datafile.
	stale   map[int]*datafile.DataFile // Map of older datafiles with their IDs.
	flockF  *os.File                   // Lockfile to prevent multiple write access to the same directory.
	quit    chan struct{}              // Closed on shutdown to stop the background goroutines.
}

// initLogger initializes logger instance.
func initLogger(debug bool) logf.Logger {
	opts := logf.Opts{EnableCaller: true}
	if debug {
		opts.Level = logf.DebugLevel
	}
	return logf.New(opts)
}

// Init initialises an archive at the configured directory.
func Init(cfg ...Config) (*Archive, error) {
	opts := DefaultOptions()
	for _, c := range cfg {
		if err := c(opts); err != nil {
			return nil, err
		}
	}

	var (
		lo     = initLogger(opts.debug)
		index  = 0
		flockF *os.File
		stale  = map[int]*datafile.DataFile{}
	)

	// Load existing datafiles.
	files, err := getDataFiles(opts.dir)
	if err != nil {
		return nil, fmt.Errorf("error loading data files: %w", err)
	}

	if len(files) > 0 {
		// Get the existing ids.
		ids, err := getIDs(files)
		if err != nil {
			return nil, fmt.Errorf("error parsing ids for existing files: %w", err)
		}

		// Increment the index to write to a new datafile.
		index = ids[len(ids)-1] + 1

		// Add all older datafiles to the list of stale files.
		for _, idx := range ids {
			df, err := datafile.New(opts.dir, idx)
			if err != nil {
				return nil, err
			}
			stale[idx] = df
		}
	}

	// Initialise the active datafile.
	df, err := datafile.New(opts.dir, index)
	if err != nil {
		return nil, err
	}

	// If not running in a read only mode then create a lockfile to ensure
	// only one process writes to the archive directory.
	if !opts.readOnly {
		lockPath := filepath.Join(opts.dir, LOCKFILE)
		if exists(lockPath) {
			return nil, ErrLocked
		}
		flockF, err = createFlockFile(lockPath)
		if err != nil {
			return nil, fmt.Errorf("error creating lockfile: %w", err)
		}
	}

	ar := &Archive{
		opts:    opts,
		lo:      lo,
		df:      df,
		stale:   stale,
		flockF:  flockF,
		notedir: make(NoteDir, 0),
		quit:    make(chan struct{}),
		bufPool: sync.Pool{New: func() any {
			return bytes.NewBuffer([]byte{})
		}},
	}

	// Populate the note directory, preferring the hints file over a scan
	// of the datafiles.
	hintsPath := filepath.Join(opts.dir, HINTS_FILE)
	if exists(hintsPath) {
		if err := ar.notedir.Decode(hintsPath); err != nil {
			return nil, fmt.Errorf("error populating notedir from hints file: %w", err)
		}
		// Hints go stale the moment new writes land, so consume the
		// file once decoded. Only Shutdown writes a fresh one.
		if !opts.readOnly {
			if err := os.Remove(hintsPath); err != nil {
				return nil, fmt.Errorf("error removing stale hints file: %w", err)
			}
		}
	} else if err := ar.rebuild(); err != nil {
		return nil, fmt.Errorf("error rebuilding notedir from datafiles: %w", err)
	}

	// Spawn a goroutine which runs in background and compacts all datafiles
	// in a new single datafile.
	go ar.runCompaction(opts.compactInterval)

	// Spawn a goroutine which checks for the file size of the active file
	// at a periodic interval.
	go ar.examineFileSize(opts.checkFileSizeInterval)

	// Spawn a goroutine which flushes the file to disk periodically.
	if !opts.alwaysFSync && opts.syncInterval != nil {
		go ar.syncFile(*opts.syncInterval)
	}

	return ar, nil
}

// Shutdown stops the background goroutines, closes all the open file
// descriptors and removes any file locks. If not running in a read-only
// mode, it's essential to call Shutdown so that it removes any file locks
// on the archive directory. Not calling it will prevent future startups
// until the lock is removed manually. Repeated calls are no-ops.
func (a *Archive) Shutdown() error {
	a.Lock()
	defer a.Unlock()

	// Already shut down.
	select {
	case <-a.quit:
		return nil
	default:
	}
	close(a.quit)

	var lastErr error

	// Generate a hints file so the next startup can skip the scan.
	if !a.opts.readOnly {
		if err := a.hints(); err != nil {
			a.lo.Error("error generating hints file", "error", err)
			lastErr = err
		}
	}

	// Close the active file handler.
	if err := a.df.Close(); err != nil {
		a.lo.Error("error closing active db file", "error", err, "id", a.df.ID())
		lastErr = err
	}

	// Close all stale datafiles as well.
	for _, df := range a.stale {
		if err := df.Close(); err != nil {
			a.lo.Error("error closing stale db file", "error", err, "id", df.ID())
			lastErr = err
		}
	}

	// Cleanup the lock file.
	if !a.opts.readOnly {
		if err := destroyFlockFile(a.flockF); err != nil {
			a.lo.Error("error destroying lock file", "error", err)
			lastErr = err
		}
	}

	return lastErr
}

// Put packs the given note and appends it to the active datafile. The
// note id with some metadata is kept in memory, so that reading the
// record back later needs only a single disk seek.
func (a *Archive) Put(note *notepack.Note) error {
	a.Lock()
	defer a.Unlock()

	if a.opts.readOnly {
		return ErrReadOnly
	}

	packed, err := notepack.Pack(note)
	if err != nil {
		return err
	}

	a.lo.Debug("storing note", "id", hex.EncodeToString(note.ID))
	return a.put(a.df, packed)
}

// PutPacked appends an already packed note to the active datafile. The
// data is walked end to end first, so corrupt input never lands on disk.
func (a *Archive) PutPacked(packed []byte) error {
	a.Lock()
	defer a.Unlock()

	if a.opts.readOnly {
		return ErrReadOnly
	}

	return a.put(a.df, packed)
}

// Get returns the packed note stored for the given hex id. The metadata
// in the in-memory hashtable locates the record on disk with a single
// seek, and the record is verified against its checksum before the
// payload is returned.
func (a *Archive) Get(id string) ([]byte, error) {
	a.Lock()
	defer a.Unlock()

	key, err := normalizeID(id)
	if err != nil {
		return nil, err
	}

	a.lo.Debug("fetching note", "id", key)
	record, err := a.get(key)
	if err != nil {
		return nil, err
	}

	// If expired, then don't return any result.
	if record.isExpired() {
		return nil, ErrExpired
	}

	// If invalid checksum, return error.
	if !record.isValidChecksum() {
		return nil, ErrChecksum
	}

	return record.Payload, nil
}

// GetNote returns the decoded note stored for the given hex id.
func (a *Archive) GetNote(id string) (*notepack.Note, error) {
	packed, err := a.Get(id)
	if err != nil {
		return nil, err
	}
	return notepack.Unpack(packed)
}

// Delete appends a tombstone record for the given hex id. The tombstone
// payload is the raw note id, so a restart replaying the datafiles drops
// the note again. The disk space is reclaimed when Repack runs.
func (a *Archive) Delete(id string) error {
	a.Lock()
	defer a.Unlock()

	if a.opts.readOnly {
		return ErrReadOnly
	}

	key, err := normalizeID(id)
	if err != nil {
		return err
	}

	a.lo.Debug("deleting note", "id", key)
	return a.delete(key)
}

// List returns the hex ids of all stored notes.
func (a *Archive) List() []string {
	a.Lock()
	defer a.Unlock()

	ids := make([]string, 0, len(a.notedir))
	for k := range a.notedir {
		ids = append(ids, k)
	}

	return ids
}

// Len returns the total number of stored notes.
func (a *Archive) Len() int {
	a.Lock()
	defer a.Unlock()

	return len(a.notedir)
}

// Fold iterates over all stored notes and calls the given function for
// each hex id.
func (a *Archive) Fold(fn func(id string) error) error {
	a.Lock()
	defer a.Unlock()

	for k := range a.notedir {
		if err := fn(k); err != nil {
			return err
		}
	}
	return nil
}

// Sync calls fsync(2) on the active data file.
func (a *Archive) Sync() error {
	a.Lock()
	defer a.Unlock()

	return a.df.Sync()
}
