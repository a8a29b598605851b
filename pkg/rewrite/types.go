// Package rewrite provides functionality to rewrite compose files with
// image lines from a Planfile.
package rewrite

import (
	"io"

	"github.com/safe-waters/stack-plan/pkg/plan/parse"
)

// IRewriter provides an interface for rewriting compose files from
// Planfiles.
type IRewriter interface {
	RewritePlanfile(planfileReader io.Reader, tempDir string) error
}

// IWriter provides an interface for writing rewritten compose files to
// temporary paths.
type IWriter interface {
	WriteFiles(
		topologies map[string]*parse.Topology,
		tempDir string,
		done <-chan struct{},
	) <-chan *WrittenPath
}

// IRenamer provides an interface for renaming temporary paths to their
// original paths.
type IRenamer interface {
	RenameFiles(writtenPaths <-chan *WrittenPath) error
}

// WrittenPath contains the original path of a compose file, the
// temporary path its rewritten contents were written to, and an error
// if one occurred while writing.
type WrittenPath struct {
	OriginalPath string
	NewPath      string
	Err          error
}
