// Package stack-plan is a cli tool that turns docker-compose service
// topologies into a canonical Planfile - a record of every service's image
// (pinned to a digest), published ports, named-volume mounts, and the
// startup sequence implied by depends_on edges. With stack-plan, you can
// lint a compose file's structural contract (unresolved references, cycles,
// host port conflicts), verify that the topology has not drifted from the
// Planfile, and rewrite compose files to reference images by digest.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/safe-waters/stack-plan/cmd"
	cmd_version "github.com/safe-waters/stack-plan/cmd/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "docker-cli-plugin-metadata" {
		m := map[string]string{
			"SchemaVersion":    "0.1.0",
			"Vendor":           "https://github.com/safe-waters/stack-plan",
			"Version":          cmd_version.Version,
			"ShortDescription": "Plan and validate compose service topologies",
		}
		j, _ := json.Marshal(m)

		fmt.Println(string(j))

		os.Exit(0)
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, err)

		fmt.Println()

		os.Exit(1)
	}
}
