package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/notepack/notepack/internal/datafile"
)

// runCompaction periodically drops expired notes and merges the
// datafiles into a single compacted file. Hints are not written here:
// a snapshot is only valid once no further writes can land, so the one
// snapshot belongs to Shutdown.
func (a *Archive) runCompaction(evalInterval time.Duration) {
	ticker := time.NewTicker(evalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := a.CleanupExpired(); err != nil {
				a.lo.Error("error cleaning up expired notes", "error", err)
			}
			if err := a.Repack(); err != nil {
				a.lo.Error("error repacking datafiles", "error", err)
			}
		case <-a.quit:
			return
		}
	}
}

// examineFileSize checks the file size of the active datafile at a
// periodic interval and rotates it once it exceeds the configured size.
func (a *Archive) examineFileSize(evalInterval time.Duration) {
	ticker := time.NewTicker(evalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := a.rotate(); err != nil {
				a.lo.Error("error rotating db file", "error", err)
			}
		case <-a.quit:
			return
		}
	}
}

// syncFile flushes the active datafile to disk at a periodic interval.
func (a *Archive) syncFile(evalInterval time.Duration) {
	ticker := time.NewTicker(evalInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := a.Sync(); err != nil {
				a.lo.Error("error syncing db file to disk", "error", err)
			}
		case <-a.quit:
			return
		}
	}
}

// rotate checks if the active file size has crossed the threshold of max
// allowed file size. If it has, it moves the current file to the set of
// stale files and replaces it with a fresh datafile. The old handles stay
// open since reads still resolve into stale files.
func (a *Archive) rotate() error {
	a.Lock()
	defer a.Unlock()

	size, err := a.df.Size()
	if err != nil {
		return err
	}

	// If the file is below the threshold of max size, do no action.
	a.lo.Debug("checking if db file has exceeded max_size", "current_size", size, "max_size", a.opts.maxActiveFileSize)
	if size < a.opts.maxActiveFileSize {
		return nil
	}

	oldID := a.df.ID()

	// Add this datafile to the list of stale files.
	a.stale[oldID] = a.df

	// Create a new datafile.
	df, err := datafile.New(a.opts.dir, oldID+1)
	if err != nil {
		return err
	}

	// Replace with the new instance of datafile.
	a.df = df

	return nil
}

// Repack merges all datafiles into a single compacted datafile. In this
// process all the deleted and expired notes are cleaned up and the old
// files are removed from the disk, reclaiming the space held by
// superseded records.
func (a *Archive) Repack() error {
	a.Lock()
	defer a.Unlock()

	if a.opts.readOnly {
		return ErrReadOnly
	}

	// Write the merged output inside the archive directory so the final
	// rename never crosses a filesystem boundary.
	tmpDir, err := os.MkdirTemp(a.opts.dir, "repack")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	mergeDF, err := datafile.New(tmpDir, 0)
	if err != nil {
		return err
	}

	// Replay all live notes into the merged file. The note directory
	// holds the newest position of every id, so deleted and superseded
	// records never make it across.
	merged := make(NoteDir, len(a.notedir))
	for key, old := range a.notedir {
		record, err := a.get(key)
		if err != nil {
			return err
		}
		if record.isExpired() || !record.isValidChecksum() {
			continue
		}

		pos, size, err := a.append(mergeDF, record.Payload, 0, record.Header.Expiry)
		if err != nil {
			return err
		}

		merged[key] = Meta{
			Timestamp:  old.Timestamp,
			RecordSize: size,
			RecordPos:  pos,
			FileID:     mergeDF.ID(),
			Expiry:     record.Header.Expiry,
		}
	}

	if err := mergeDF.Sync(); err != nil {
		return err
	}

	// Close the handles on the files that are about to be removed.
	if err := a.df.Close(); err != nil {
		a.lo.Error("error closing active db file", "error", err, "id", a.df.ID())
	}
	for _, df := range a.stale {
		if err := df.Close(); err != nil {
			a.lo.Error("error closing stale db file", "error", err, "id", df.ID())
		}
	}
	if err := mergeDF.Close(); err != nil {
		return err
	}

	// Delete the existing .db files.
	err = filepath.Walk(a.opts.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			// Don't descend into the directory holding the merged output.
			if path == tmpDir {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".db" {
			return os.Remove(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Move the merged file to the archive directory and reopen it as the
	// active datafile.
	if err := os.Rename(filepath.Join(tmpDir, fmt.Sprintf(datafile.ACTIVE_DATAFILE, 0)),
		filepath.Join(a.opts.dir, fmt.Sprintf(datafile.ACTIVE_DATAFILE, 0))); err != nil {
		return err
	}

	df, err := datafile.New(a.opts.dir, 0)
	if err != nil {
		return err
	}

	a.df = df
	a.stale = map[int]*datafile.DataFile{}
	a.notedir = merged

	return nil
}

// CleanupExpired removes every note whose expiration timestamp has
// passed. The expiry is tracked in the note directory, so no disk reads
// are needed to find the candidates.
func (a *Archive) CleanupExpired() error {
	a.Lock()
	defer a.Unlock()

	if a.opts.readOnly {
		return ErrReadOnly
	}

	now := time.Now().Unix()
	for key, meta := range a.notedir {
		if meta.Expiry == 0 || int64(meta.Expiry) > now {
			continue
		}
		a.lo.Debug("deleting note since it's expired", "id", key)
		if err := a.delete(key); err != nil {
			a.lo.Error("error deleting note", "id", key, "error", err)
			continue
		}
	}

	return nil
}

// GenerateHints encodes the contents of the in-memory hashtable as CBOR
// and writes the data to a hints file. The next startup trusts the
// snapshot wholesale, so only take one once no further writes can land,
// as Shutdown does.
func (a *Archive) GenerateHints() error {
	a.Lock()
	defer a.Unlock()

	return a.hints()
}

// hints writes the hints file. Caller must hold the lock.
func (a *Archive) hints() error {
	path := filepath.Join(a.opts.dir, HINTS_FILE)
	if err := a.notedir.Encode(path); err != nil {
		return err
	}

	return nil
}
