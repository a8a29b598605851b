// Package graph provides the dependency graph over a topology's services:
// cycle detection and the startup stages implied by depends_on edges.
package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Stages computes the startup sequence for services keyed by name, each
// with the names of the services it depends on. Stage zero contains
// services with no dependencies; each later stage contains services whose
// dependencies all appear in earlier stages. Services within a stage are
// sorted and carry no ordering constraint between them.
//
// An undeclared dependency name or a dependency cycle is an error.
func Stages(dependencies map[string][]string) ([][]string, error) {
	serviceNames := make([]string, 0, len(dependencies))
	for serviceName := range dependencies {
		serviceNames = append(serviceNames, serviceName)
	}

	sort.Strings(serviceNames)

	for _, serviceName := range serviceNames {
		for _, dependencyName := range dependencies[serviceName] {
			if _, ok := dependencies[dependencyName]; !ok {
				return nil, fmt.Errorf(
					"service '%s' depends on undeclared service '%s'",
					serviceName, dependencyName,
				)
			}
		}
	}

	var (
		stages [][]string
		placed = map[string]int{}
	)

	for len(placed) != len(dependencies) {
		var stage []string

		for _, serviceName := range serviceNames {
			if _, ok := placed[serviceName]; ok {
				continue
			}

			ready := true

			for _, dependencyName := range dependencies[serviceName] {
				if _, ok := placed[dependencyName]; !ok {
					ready = false
					break
				}
			}

			if ready {
				stage = append(stage, serviceName)
			}
		}

		if len(stage) == 0 {
			cycle := Cycle(dependencies)

			return nil, fmt.Errorf(
				"dependency cycle: %s", strings.Join(cycle, " -> "),
			)
		}

		for _, serviceName := range stage {
			placed[serviceName] = len(stages)
		}

		stages = append(stages, stage)
	}

	return stages, nil
}

// Cycle returns one dependency cycle as a path whose first and last
// elements are the same service, or nil if the dependency relation is
// acyclic. Undeclared dependency names are ignored - they cannot
// close a cycle.
func Cycle(dependencies map[string][]string) []string {
	serviceNames := make([]string, 0, len(dependencies))
	for serviceName := range dependencies {
		serviceNames = append(serviceNames, serviceName)
	}

	sort.Strings(serviceNames)

	const (
		unvisited = iota
		visiting
		visited
	)

	state := map[string]int{}

	var visit func(serviceName string, path []string) []string

	visit = func(serviceName string, path []string) []string {
		state[serviceName] = visiting
		path = append(path, serviceName)

		for _, dependencyName := range dependencies[serviceName] {
			if _, ok := dependencies[dependencyName]; !ok {
				continue
			}

			switch state[dependencyName] {
			case visiting:
				// close the cycle at its first occurrence in the path
				for i, pathName := range path {
					if pathName == dependencyName {
						cycle := append([]string{}, path[i:]...)
						return append(cycle, dependencyName)
					}
				}
			case unvisited:
				if cycle := visit(dependencyName, path); cycle != nil {
					return cycle
				}
			}
		}

		state[serviceName] = visited

		return nil
	}

	for _, serviceName := range serviceNames {
		if state[serviceName] == unvisited {
			if cycle := visit(serviceName, nil); cycle != nil {
				return cycle
			}
		}
	}

	return nil
}
