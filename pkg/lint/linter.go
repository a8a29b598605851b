package lint

import (
	"sync"

	"github.com/safe-waters/stack-plan/pkg/plan/parse"
)

// Linter checks topologies against the structural contract an orchestrator
// would otherwise only discover at deploy time.
type Linter struct{}

// NewLinter returns a Linter.
func NewLinter() *Linter {
	return &Linter{}
}

// LintTopologies checks each topology and reports findings. A topology
// that failed to parse produces a single error finding with the parse
// error. Findings are collected per topology, not fail-fast, so one pass
// reports every problem in a file.
func (l *Linter) LintTopologies(
	topologies <-chan *parse.Topology,
	done <-chan struct{},
) <-chan *Finding {
	if topologies == nil {
		return nil
	}

	var (
		waitGroup sync.WaitGroup
		findings  = make(chan *Finding)
	)

	waitGroup.Add(1)

	go func() {
		defer waitGroup.Done()

		for topology := range topologies {
			topology := topology

			waitGroup.Add(1)

			go func() {
				defer waitGroup.Done()

				if topology.Err != nil {
					select {
					case <-done:
					case findings <- &Finding{
						Path:     topology.Path,
						Severity: Error,
						Message:  topology.Err.Error(),
					}:
					}

					return
				}

				for _, finding := range l.lintTopology(topology) {
					select {
					case <-done:
						return
					case findings <- finding:
					}
				}
			}()
		}
	}()

	go func() {
		waitGroup.Wait()
		close(findings)
	}()

	return findings
}

func (l *Linter) lintTopology(topology *parse.Topology) []*Finding {
	var findings []*Finding

	findings = append(findings, checkDependencies(topology)...)
	findings = append(findings, checkCycles(topology)...)
	findings = append(findings, checkMounts(topology)...)
	findings = append(findings, checkHostPorts(topology)...)
	findings = append(findings, checkContainerNames(topology)...)
	findings = append(findings, checkUnusedVolumes(topology)...)

	return findings
}
