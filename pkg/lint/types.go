// Package lint provides functionality to check the structural contract of
// compose service topologies: that every reference resolves, that the
// dependency relation is acyclic, and that no two services collide on a
// host port or container name.
package lint

import (
	"fmt"

	"github.com/safe-waters/stack-plan/pkg/plan/parse"
)

// Severity marks whether a finding fails linting or only warns.
type Severity string

const (
	// Error findings fail linting.
	Error Severity = "error"
	// Warning findings are reported but do not fail linting.
	Warning Severity = "warning"
)

// Finding is one problem discovered in a topology.
type Finding struct {
	Path     string   `json:"path"`
	Service  string   `json:"service,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// ILinter provides an interface for Linters, which are responsible for
// checking topologies and reporting findings.
type ILinter interface {
	LintTopologies(
		topologies <-chan *parse.Topology,
		done <-chan struct{},
	) <-chan *Finding
}

// String formats the finding the way the cli reports it.
func (f *Finding) String() string {
	if f.Service == "" {
		return fmt.Sprintf("%s: [%s] %s", f.Path, f.Severity, f.Message)
	}

	return fmt.Sprintf(
		"%s: [%s] service '%s': %s", f.Path, f.Severity, f.Service, f.Message,
	)
}
