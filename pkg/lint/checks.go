package lint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/safe-waters/stack-plan/pkg/plan/graph"
	"github.com/safe-waters/stack-plan/pkg/plan/parse"
)

// checkDependencies reports depends_on names that do not resolve to a
// declared service, including a service depending on itself.
func checkDependencies(topology *parse.Topology) []*Finding {
	declared := map[string]struct{}{}
	for _, service := range topology.Services {
		declared[service.Name] = struct{}{}
	}

	var findings []*Finding

	for _, service := range topology.Services {
		for _, dependency := range service.DependsOn {
			if dependency.Name == service.Name {
				findings = append(findings, &Finding{
					Path:     topology.Path,
					Service:  service.Name,
					Severity: Error,
					Message:  "depends on itself",
				})

				continue
			}

			if _, ok := declared[dependency.Name]; !ok {
				findings = append(findings, &Finding{
					Path:     topology.Path,
					Service:  service.Name,
					Severity: Error,
					Message: fmt.Sprintf(
						"depends on undeclared service '%s'", dependency.Name,
					),
				})
			}
		}
	}

	return findings
}

// checkCycles reports one dependency cycle if the dependency relation over
// declared services is not acyclic. Self edges are reported by
// checkDependencies, so a cycle of length one is skipped here.
func checkCycles(topology *parse.Topology) []*Finding {
	dependencies := map[string][]string{}

	for _, service := range topology.Services {
		var names []string

		for _, dependency := range service.DependsOn {
			if dependency.Name != service.Name {
				names = append(names, dependency.Name)
			}
		}

		dependencies[service.Name] = names
	}

	cycle := graph.Cycle(dependencies)
	if cycle == nil {
		return nil
	}

	return []*Finding{{
		Path:     topology.Path,
		Severity: Error,
		Message: fmt.Sprintf(
			"dependency cycle: %s", strings.Join(cycle, " -> "),
		),
	}}
}

// checkMounts reports mounted volume names that do not resolve to a
// declared volume.
func checkMounts(topology *parse.Topology) []*Finding {
	declared := map[string]struct{}{}
	for _, volumeName := range topology.Volumes {
		declared[volumeName] = struct{}{}
	}

	var findings []*Finding

	for _, service := range topology.Services {
		for _, mount := range service.Mounts {
			if _, ok := declared[mount.Volume]; !ok {
				findings = append(findings, &Finding{
					Path:     topology.Path,
					Service:  service.Name,
					Severity: Error,
					Message: fmt.Sprintf(
						"mounts undeclared volume '%s'", mount.Volume,
					),
				})
			}
		}
	}

	return findings
}

// checkHostPorts reports host ports published by more than one service.
// Bindings conflict when they share a port and protocol and either binds
// all interfaces or both bind the same address.
func checkHostPorts(topology *parse.Topology) []*Finding {
	type publisher struct {
		serviceName string
		hostIP      string
	}

	type portProtocol struct {
		port     uint16
		protocol string
	}

	published := map[portProtocol][]publisher{}

	var findings []*Finding

	for _, service := range topology.Services {
		for _, binding := range service.Ports {
			if binding.Host == 0 {
				continue
			}

			protocol := binding.Protocol
			if protocol == "" {
				protocol = "tcp"
			}

			key := portProtocol{port: binding.Host, protocol: protocol}

			for _, other := range published[key] {
				if other.hostIP != "" &&
					binding.HostIP != "" &&
					other.hostIP != binding.HostIP {
					continue
				}

				findings = append(findings, &Finding{
					Path:     topology.Path,
					Service:  service.Name,
					Severity: Error,
					Message: fmt.Sprintf(
						"host port %d/%s already published by service '%s'",
						binding.Host, protocol, other.serviceName,
					),
				})

				break
			}

			published[key] = append(published[key], publisher{
				serviceName: service.Name,
				hostIP:      binding.HostIP,
			})
		}
	}

	return findings
}

// checkContainerNames reports container names declared by more than one
// service.
func checkContainerNames(topology *parse.Topology) []*Finding {
	declared := map[string]string{}

	var findings []*Finding

	for _, service := range topology.Services {
		if service.ContainerName == "" {
			continue
		}

		if otherName, ok := declared[service.ContainerName]; ok {
			findings = append(findings, &Finding{
				Path:     topology.Path,
				Service:  service.Name,
				Severity: Error,
				Message: fmt.Sprintf(
					"container name '%s' already declared by service '%s'",
					service.ContainerName, otherName,
				),
			})

			continue
		}

		declared[service.ContainerName] = service.Name
	}

	return findings
}

// checkUnusedVolumes warns about declared volumes that no service mounts.
// A volume's lifetime spans service restarts, so an unused volume is
// legal, but it is usually a leftover.
func checkUnusedVolumes(topology *parse.Topology) []*Finding {
	mounted := map[string]struct{}{}

	for _, service := range topology.Services {
		for _, mount := range service.Mounts {
			mounted[mount.Volume] = struct{}{}
		}
	}

	var unused []string

	for _, volumeName := range topology.Volumes {
		if _, ok := mounted[volumeName]; !ok {
			unused = append(unused, volumeName)
		}
	}

	sort.Strings(unused)

	findings := make([]*Finding, len(unused))
	for i, volumeName := range unused {
		findings[i] = &Finding{
			Path:     topology.Path,
			Severity: Warning,
			Message: fmt.Sprintf(
				"volume '%s' is declared but never mounted", volumeName,
			),
		}
	}

	return findings
}
