// Package collect provides functionality to collect compose file paths
// for processing.
package collect

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// PathCollector gathers docker-compose file paths.
type PathCollector struct {
	BaseDir      string
	DefaultPaths []string
	ManualPaths  []string
	Globs        []string
	Recursive    bool
}

// PathResult holds a collected path or an error that occurred
// while gathering it.
type PathResult struct {
	Path string
	Err  error
}

// NewPathCollector returns a PathCollector after validating its fields. If
// recursive is true, defaultPaths must be defined so the collector knows
// which file names to collect as it recurs.
func NewPathCollector(
	baseDir string,
	defaultPaths []string,
	manualPaths []string,
	globs []string,
	recursive bool,
) (*PathCollector, error) {
	if recursive && len(defaultPaths) == 0 {
		return nil,
			errors.New("if 'recursive' is true, 'defaultPaths' must also be set")
	}

	baseDir = filepath.Join(".", baseDir)
	if err := isSubPath(baseDir); err != nil {
		return nil, err
	}

	return &PathCollector{
		BaseDir:      baseDir,
		DefaultPaths: defaultPaths,
		ManualPaths:  manualPaths,
		Globs:        globs,
		Recursive:    recursive,
	}, nil
}

// CollectPaths gathers specified file paths if they are within the base
// directory or a subdirectory of the base directory. Paths are deduplicated.
func (p *PathCollector) CollectPaths(done <-chan struct{}) <-chan *PathResult {
	var (
		waitGroup   sync.WaitGroup
		pathResults = make(chan *PathResult)
	)

	waitGroup.Add(1)

	go func() {
		defer waitGroup.Done()

		var (
			intermediateWaitGroup sync.WaitGroup
			intermediateResults   = make(chan *PathResult)
		)

		if len(p.ManualPaths) != 0 {
			intermediateWaitGroup.Add(1)

			go p.collectManualPaths(
				intermediateResults, done, &intermediateWaitGroup,
			)
		}

		if len(p.Globs) != 0 {
			intermediateWaitGroup.Add(1)

			go p.collectGlobs(
				intermediateResults, done, &intermediateWaitGroup,
			)
		}

		if p.Recursive {
			intermediateWaitGroup.Add(1)

			go p.collectRecursive(
				intermediateResults, done, &intermediateWaitGroup,
			)
		}

		if len(p.ManualPaths) == 0 &&
			len(p.Globs) == 0 &&
			!p.Recursive &&
			len(p.DefaultPaths) != 0 {
			intermediateWaitGroup.Add(1)

			go p.collectDefaultPaths(
				intermediateResults, done, &intermediateWaitGroup,
			)
		}

		go func() {
			intermediateWaitGroup.Wait()
			close(intermediateResults)
		}()

		seenPaths := map[string]struct{}{}

		for result := range intermediateResults {
			if result.Err != nil {
				select {
				case <-done:
				case pathResults <- result:
				}

				return
			}

			if _, ok := seenPaths[result.Path]; !ok {
				seenPaths[result.Path] = struct{}{}

				select {
				case <-done:
				case pathResults <- result:
				}
			}
		}
	}()

	go func() {
		waitGroup.Wait()
		close(pathResults)
	}()

	return pathResults
}

func (p *PathCollector) collectManualPaths(
	pathResults chan<- *PathResult,
	done <-chan struct{},
	waitGroup *sync.WaitGroup,
) {
	defer waitGroup.Done()

	for _, path := range p.ManualPaths {
		path = filepath.Join(p.BaseDir, path)

		if err := validatePath(path); err != nil {
			select {
			case <-done:
			case pathResults <- &PathResult{Err: err}:
			}

			return
		}

		select {
		case <-done:
			return
		case pathResults <- &PathResult{Path: path}:
		}
	}
}

func (p *PathCollector) collectDefaultPaths(
	pathResults chan<- *PathResult,
	done <-chan struct{},
	waitGroup *sync.WaitGroup,
) {
	defer waitGroup.Done()

	for _, path := range p.DefaultPaths {
		path = filepath.Join(p.BaseDir, path)

		if err := isSubPath(path); err != nil {
			select {
			case <-done:
			case pathResults <- &PathResult{Err: err}:
			}

			return
		}

		if err := validatePath(path); err == nil {
			select {
			case <-done:
				return
			case pathResults <- &PathResult{Path: path}:
			}
		}
	}
}

func (p *PathCollector) collectGlobs(
	pathResults chan<- *PathResult,
	done <-chan struct{},
	waitGroup *sync.WaitGroup,
) {
	defer waitGroup.Done()

	for _, glob := range p.Globs {
		glob = filepath.Join(p.BaseDir, glob)

		paths, err := filepath.Glob(glob)
		if err != nil {
			select {
			case <-done:
			case pathResults <- &PathResult{Err: err}:
			}

			return
		}

		for _, path := range paths {
			if err := validatePath(path); err != nil {
				select {
				case <-done:
				case pathResults <- &PathResult{Err: err}:
				}

				return
			}

			select {
			case <-done:
				return
			case pathResults <- &PathResult{Path: path}:
			}
		}
	}
}

func (p *PathCollector) collectRecursive(
	pathResults chan<- *PathResult,
	done <-chan struct{},
	waitGroup *sync.WaitGroup,
) {
	defer waitGroup.Done()

	defaultSet := map[string]struct{}{}

	for _, path := range p.DefaultPaths {
		defaultSet[path] = struct{}{}
	}

	if err := filepath.Walk(
		p.BaseDir, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if _, ok := defaultSet[filepath.Base(path)]; ok {
				if err := validatePath(path); err != nil {
					return err
				}

				select {
				case <-done:
				case pathResults <- &PathResult{Path: path}:
				}
			}

			return nil
		},
	); err != nil {
		select {
		case <-done:
		case pathResults <- &PathResult{Err: err}:
		}
	}
}

func validatePath(path string) error {
	if err := isSubPath(path); err != nil {
		return err
	}

	fileInfo, err := os.Stat(path)
	if err != nil {
		return err
	}

	if mode := fileInfo.Mode(); mode.IsDir() {
		return fmt.Errorf(
			"'%s' was collected but is a directory rather than a file", path,
		)
	}

	return nil
}

func isSubPath(path string) error {
	if strings.HasPrefix(path, "..") {
		return fmt.Errorf("'%s' is outside the current working directory", path)
	}

	return nil
}
