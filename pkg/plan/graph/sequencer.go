package graph

import (
	"fmt"
	"sync"

	"github.com/safe-waters/stack-plan/pkg/plan/parse"
)

// Sequencer computes startup stages for parsed topologies.
type Sequencer struct{}

// ISequencer provides an interface for Sequencer's exported methods.
type ISequencer interface {
	SequenceTopologies(
		topologies <-chan *parse.Topology,
		done <-chan struct{},
	) <-chan *parse.Topology
}

// NewSequencer returns a Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// SequenceTopologies computes the startup stages of each topology from its
// depends_on edges. A topology whose dependency relation does not resolve,
// or is cyclic, is replaced by its error.
func (s *Sequencer) SequenceTopologies(
	topologies <-chan *parse.Topology,
	done <-chan struct{},
) <-chan *parse.Topology {
	if topologies == nil {
		return nil
	}

	var (
		waitGroup           sync.WaitGroup
		sequencedTopologies = make(chan *parse.Topology)
	)

	waitGroup.Add(1)

	go func() {
		defer waitGroup.Done()

		for topology := range topologies {
			topology := topology

			waitGroup.Add(1)

			go func() {
				defer waitGroup.Done()

				if topology.Err == nil {
					dependencies := map[string][]string{}

					for _, service := range topology.Services {
						dependencies[service.Name] = service.DependencyNames()
					}

					stages, err := Stages(dependencies)
					if err != nil {
						topology = &parse.Topology{
							Path: topology.Path,
							Err: fmt.Errorf(
								"from '%s': %v", topology.Path, err,
							),
						}
					} else {
						topology.Stages = stages
					}
				}

				select {
				case <-done:
				case sequencedTopologies <- topology:
				}
			}()
		}
	}()

	go func() {
		waitGroup.Wait()
		close(sequencedTopologies)
	}()

	return sequencedTopologies
}
