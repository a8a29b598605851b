package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"reflect"

	"github.com/safe-waters/stack-plan/pkg/plan/parse"
)

// Planfile represents the canonical 'stack-plan.json'. It records the
// topology of every collected compose file and provides the capability to
// write its contents in JSON format.
type Planfile struct {
	Composefiles map[string]*parse.Topology `json:"composefiles"`
}

// NewPlanfile reads all topologies and returns a Planfile keyed by
// slash-normalized compose file path. A topology that failed to parse,
// sequence, or update fails the Planfile.
func NewPlanfile(topologies <-chan *parse.Topology) (*Planfile, error) {
	planfile := &Planfile{Composefiles: map[string]*parse.Topology{}}

	if topologies == nil {
		return planfile, nil
	}

	for topology := range topologies {
		if topology.Err != nil {
			return nil, topology.Err
		}

		planfile.Composefiles[filepath.ToSlash(topology.Path)] = topology
	}

	return planfile, nil
}

// Write writes the Planfile in JSON format to an io.Writer.
func (p *Planfile) Write(writer io.Writer) error {
	if writer == nil || reflect.ValueOf(writer).IsNil() {
		return errors.New("'writer' cannot be nil")
	}

	planfileByt, err := json.MarshalIndent(p, "", "\t")
	if err != nil {
		return err
	}

	if _, err := writer.Write(planfileByt); err != nil {
		return err
	}

	return nil
}

// ImageDigests maps every "name:tag" recorded in the Planfile to its
// digest, so an existing Planfile's digests can be reused without
// querying registries again.
func (p *Planfile) ImageDigests() map[string]string {
	digests := map[string]string{}

	for _, topology := range p.Composefiles {
		for _, service := range topology.Services {
			image := service.Image

			if image == nil || image.Tag == "" || image.Digest == "" {
				continue
			}

			nameTag := fmt.Sprintf("%s:%s", image.Name, image.Tag)
			digests[nameTag] = image.Digest
		}
	}

	return digests
}
