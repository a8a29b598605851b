// Package plan provides functionality to generate a Planfile.
package plan

import (
	"io"

	"github.com/safe-waters/stack-plan/pkg/plan/collect"
	"github.com/safe-waters/stack-plan/pkg/plan/parse"
)

// IPlanner provides an interface for Planners, which are responsible
// for creating Planfiles.
type IPlanner interface {
	GeneratePlanfile(planfileWriter io.Writer) error
}

// IPathCollector provides an interface for PathCollectors, which are
// responsible for collecting compose file paths.
type IPathCollector interface {
	CollectPaths(done <-chan struct{}) <-chan *collect.PathResult
}

// ITopologyParser provides an interface for TopologyParsers, which are
// responsible for parsing service topologies from paths.
type ITopologyParser interface {
	ParseFiles(
		paths <-chan *collect.PathResult,
		done <-chan struct{},
	) <-chan *parse.Topology
}

// ISequencer provides an interface for Sequencers, which are responsible
// for computing each topology's startup stages from its depends_on edges.
type ISequencer interface {
	SequenceTopologies(
		topologies <-chan *parse.Topology,
		done <-chan struct{},
	) <-chan *parse.Topology
}

// IDigestUpdater provides an interface for DigestUpdaters, which are
// responsible for querying registries for digests and updating each
// topology's images with them.
type IDigestUpdater interface {
	UpdateDigests(
		topologies <-chan *parse.Topology,
		done <-chan struct{},
	) <-chan *parse.Topology
}
