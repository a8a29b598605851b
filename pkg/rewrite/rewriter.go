package rewrite

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"

	"github.com/safe-waters/stack-plan/pkg/plan"
)

// Rewriter rewrites compose files referenced by a Planfile with image
// lines from the Planfile.
type Rewriter struct {
	Writer  IWriter
	Renamer IRenamer
}

// NewRewriter returns a Rewriter after ensuring writer and renamer are
// non nil.
func NewRewriter(writer IWriter, renamer IRenamer) (*Rewriter, error) {
	if writer == nil || reflect.ValueOf(writer).IsNil() {
		return nil, errors.New("'writer' cannot be nil")
	}

	if renamer == nil || reflect.ValueOf(renamer).IsNil() {
		return nil, errors.New("'renamer' cannot be nil")
	}

	return &Rewriter{
		Writer:  writer,
		Renamer: renamer,
	}, nil
}

// RewritePlanfile rewrites compose files referenced by a Planfile with
// images from the Planfile. Rewriting is a two step process. First, all
// of the files are written to temporary paths in a subdirectory of
// tempDir (which will be created if it does not exist). Next, all
// temporary files are renamed to their original names.
func (r *Rewriter) RewritePlanfile(
	planfileReader io.Reader,
	tempDir string,
) error {
	if planfileReader == nil || reflect.ValueOf(planfileReader).IsNil() {
		return errors.New("'planfileReader' cannot be nil")
	}

	tempDir = filepath.Join(tempDir, "temp-rewrite")
	if err := os.MkdirAll(tempDir, 0700); err != nil { // nolint: gomnd
		return err
	}

	defer os.RemoveAll(tempDir)

	var planfile plan.Planfile
	if err := json.NewDecoder(planfileReader).Decode(&planfile); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)

	writtenPaths := r.Writer.WriteFiles(
		planfile.Composefiles, tempDir, done,
	)

	return r.Renamer.RenameFiles(writtenPaths)
}
