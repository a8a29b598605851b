package rewrite

import (
	"errors"
	"os"
	"sync"
)

// Renamer renames temporary paths to their original paths.
type Renamer struct{}

// RenameFiles renames new paths in WrittenPaths to their original
// paths, only after all files have been written without error.
func (r *Renamer) RenameFiles(
	writtenPaths <-chan *WrittenPath,
) error {
	if writtenPaths == nil {
		return errors.New("'writtenPaths' cannot be nil")
	}

	var allWrittenPaths []*WrittenPath // nolint: prealloc

	// Ensure all files can be rewritten before attempting to rename
	for writtenPath := range writtenPaths {
		if writtenPath.Err != nil {
			return writtenPath.Err
		}

		allWrittenPaths = append(allWrittenPaths, writtenPath)
	}

	if len(allWrittenPaths) == 0 {
		return nil
	}

	var (
		waitGroup sync.WaitGroup
		errCh     = make(chan error)
		done      = make(chan struct{})
	)

	defer close(done)

	for _, writtenPath := range allWrittenPaths {
		waitGroup.Add(1)

		writtenPath := writtenPath

		go func() {
			defer waitGroup.Done()

			if err := os.Rename(
				writtenPath.NewPath, writtenPath.OriginalPath,
			); err != nil {
				select {
				case <-done:
				case errCh <- err:
				}
			}
		}()
	}

	go func() {
		waitGroup.Wait()
		close(errCh)
	}()

	for err := range errCh {
		return err
	}

	return nil
}
