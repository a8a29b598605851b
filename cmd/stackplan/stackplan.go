// Package stackplan provides the "stackplan" command.
package stackplan

import (
	"github.com/spf13/cobra"
)

// NewStackplanCmd creates the command 'stackplan' used in 'docker stackplan'.
func NewStackplanCmd() *cobra.Command {
	stackplanCmd := &cobra.Command{
		Use:   "stackplan",
		Short: "Umbrella command for planning, linting, verifying and rewriting compose service topologies.",
		Long: `docker stackplan can generate a Planfile for the service topology declared in docker-compose files,
lint the topology's structural contract, verify that the topology in the files still matches the Planfile, and
rewrite docker-compose files to use image digests from the Planfile rather than tags.

A docker-compose file declares a desired end-state: which images run, which host ports they publish, which
named volumes they mount, and which start-order constraints hold between them. The orchestrator consumes that
declaration; nothing checks it. stack-plan is that check.

Example workflow:
* A developer declares services in a docker-compose file using the common imagename:tag syntax and
depends_on edges between services.
* Next, the developer runs "docker stackplan lint" to catch unresolved depends_on names, unresolved volume
names, dependency cycles, and host port conflicts before the orchestrator trips over them at deploy time.
* The developer then generates a Planfile by running "docker stackplan plan". The Planfile records each
service's image pinned to a digest, its ports and mounts, and the startup sequence - the stages in which
the orchestrator will bring services up.
* During development, "docker stackplan verify" reports whether the topology drifted from the Planfile -
a new service, a changed dependency edge, a moved port, or an image whose tag now points at a new digest.
* Prior to deployment, "docker stackplan rewrite" rewrites the compose files to use image digests from the
Planfile rather than tags, so future deployments repeat exactly even if a tag moves.
`,
	}

	return stackplanCmd
}
