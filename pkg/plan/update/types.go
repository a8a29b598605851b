// Package update provides functionality to update topologies with image
// digests from registries.
package update

import "github.com/safe-waters/stack-plan/pkg/plan/parse"

// IDigestRequester provides an interface for DigestRequesters, which
// query registries for digests.
type IDigestRequester interface {
	Digest(name string, tag string) (string, error)
}

// IDigestUpdater provides an interface for DigestUpdaters, which update
// each service's image with its digest.
type IDigestUpdater interface {
	UpdateDigests(
		topologies <-chan *parse.Topology,
		done <-chan struct{},
	) <-chan *parse.Topology
}
