// Package verify provides functionality for verifying that an existing
// Planfile still matches the topology declared in the compose files.
package verify

import (
	"io"

	"github.com/safe-waters/stack-plan/pkg/plan/parse"
)

// IVerifier provides an interface for Verifiers, which are responsible
// for verifying that a newly generated Planfile equals the existing
// Planfile.
type IVerifier interface {
	VerifyPlanfile(planfileReader io.Reader) error
}

// ITopologyDifferentiator provides an interface for diffing the
// Composefile topologies of two Planfiles.
type ITopologyDifferentiator interface {
	Differentiate(
		existingTopologies map[string]*parse.Topology,
		newTopologies map[string]*parse.Topology,
		done <-chan struct{},
	) <-chan error
}
