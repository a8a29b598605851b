package verify

import (
	"fmt"
	"sync"

	"github.com/safe-waters/stack-plan/pkg/plan/parse"
)

// TopologyDifferentiator provides methods for diffing Topologies.
type TopologyDifferentiator struct {
	ExcludeDigests bool
}

// Differentiate diffs existing Topologies against newly parsed ones,
// reporting every difference on the returned channel.
func (t *TopologyDifferentiator) Differentiate(
	existingTopologies map[string]*parse.Topology,
	newTopologies map[string]*parse.Topology,
	done <-chan struct{},
) <-chan error {
	differences := make(chan error)

	var waitGroup sync.WaitGroup

	waitGroup.Add(1)

	go func() {
		defer waitGroup.Done()

		if len(existingTopologies) != len(newTopologies) {
			select {
			case differences <- fmt.Errorf(
				"existing planfile has %d composefiles, but new has %d",
				len(existingTopologies), len(newTopologies),
			):
			case <-done:
			}

			return
		}

		for path, existingTopology := range existingTopologies {
			path := path
			existingTopology := existingTopology

			waitGroup.Add(1)

			go func() {
				defer waitGroup.Done()

				newTopology, ok := newTopologies[path]
				if !ok {
					select {
					case differences <- fmt.Errorf(
						"existing path '%s' does not exist in new", path,
					):
					case <-done:
					}

					return
				}

				t.differentiateTopology(
					path, existingTopology, newTopology, differences, done,
				)
			}()
		}
	}()

	go func() {
		waitGroup.Wait()
		close(differences)
	}()

	return differences
}

func (t *TopologyDifferentiator) differentiateTopology(
	path string,
	existingTopology *parse.Topology,
	newTopology *parse.Topology,
	differences chan<- error,
	done <-chan struct{},
) {
	if existingTopology == nil || newTopology == nil {
		select {
		case differences <- fmt.Errorf(
			"on path '%s' topologies cannot be nil", path,
		):
		case <-done:
		}

		return
	}

	if len(existingTopology.Services) != len(newTopology.Services) {
		select {
		case differences <- fmt.Errorf(
			"on path '%s' existing planfile has %d services but new has %d",
			path, len(existingTopology.Services),
			len(newTopology.Services),
		):
		case <-done:
		}

		return
	}

	for i := range existingTopology.Services {
		t.differentiateService(
			path, existingTopology.Services[i], newTopology.Services[i],
			differences, done,
		)
	}

	if !equalStrings(existingTopology.Volumes, newTopology.Volumes) {
		select {
		case differences <- fmt.Errorf(
			"on path '%s' existing volumes %v differ from the new volumes %v",
			path, existingTopology.Volumes, newTopology.Volumes,
		):
		case <-done:
		}
	}

	if !equalStages(existingTopology.Stages, newTopology.Stages) {
		select {
		case differences <- fmt.Errorf(
			"on path '%s' existing stages %v differ from the new stages %v",
			path, existingTopology.Stages, newTopology.Stages,
		):
		case <-done:
		}
	}
}

func (t *TopologyDifferentiator) differentiateService(
	path string,
	existingService *parse.Service,
	newService *parse.Service,
	differences chan<- error,
	done <-chan struct{},
) {
	if existingService == nil || newService == nil {
		select {
		case differences <- fmt.Errorf(
			"on path '%s' services cannot be nil", path,
		):
		case <-done:
		}

		return
	}

	if existingService.Name != newService.Name {
		select {
		case differences <- fmt.Errorf(
			"on path '%s' existing service '%s' differs "+
				"from the new service '%s'",
			path, existingService.Name, newService.Name,
		):
		case <-done:
		}

		return
	}

	serviceName := existingService.Name

	if existingService.ContainerName != newService.ContainerName {
		select {
		case differences <- fmt.Errorf(
			"on path '%s' service '%s' existing container name '%s' "+
				"differs from the new container name '%s'",
			path, serviceName, existingService.ContainerName,
			newService.ContainerName,
		):
		case <-done:
		}
	}

	existingImageLine := imageLine(existingService.Image, t.ExcludeDigests)
	newImageLine := imageLine(newService.Image, t.ExcludeDigests)

	if existingImageLine != newImageLine {
		select {
		case differences <- fmt.Errorf(
			"on path '%s' service '%s' existing image '%s' differs "+
				"from the new image '%s'",
			path, serviceName, existingImageLine, newImageLine,
		):
		case <-done:
		}
	}

	if existingService.DockerfilePath != newService.DockerfilePath {
		select {
		case differences <- fmt.Errorf(
			"on path '%s' service '%s' existing dockerfile '%s' differs "+
				"from the new dockerfile '%s'",
			path, serviceName, existingService.DockerfilePath,
			newService.DockerfilePath,
		):
		case <-done:
		}
	}

	if !equalPorts(existingService.Ports, newService.Ports) {
		select {
		case differences <- fmt.Errorf(
			"on path '%s' service '%s' existing ports differ from the new ports",
			path, serviceName,
		):
		case <-done:
		}
	}

	if !equalMounts(existingService.Mounts, newService.Mounts) {
		select {
		case differences <- fmt.Errorf(
			"on path '%s' service '%s' existing mounts differ "+
				"from the new mounts",
			path, serviceName,
		):
		case <-done:
		}
	}

	if !equalDependencies(
		existingService.DependsOn, newService.DependsOn,
	) {
		select {
		case differences <- fmt.Errorf(
			"on path '%s' service '%s' existing dependencies %v differ "+
				"from the new dependencies %v",
			path, serviceName, existingService.DependencyNames(),
			newService.DependencyNames(),
		):
		case <-done:
		}
	}
}

func imageLine(image *parse.ImageReference, excludeDigest bool) string {
	if image == nil {
		return ""
	}

	if excludeDigest {
		withoutDigest := parse.ImageReference{
			Name: image.Name,
			Tag:  image.Tag,
		}

		return withoutDigest.ImageLine()
	}

	return image.ImageLine()
}

func equalStrings(existing []string, updated []string) bool {
	if len(existing) != len(updated) {
		return false
	}

	for i := range existing {
		if existing[i] != updated[i] {
			return false
		}
	}

	return true
}

func equalStages(existing [][]string, updated [][]string) bool {
	if len(existing) != len(updated) {
		return false
	}

	for i := range existing {
		if !equalStrings(existing[i], updated[i]) {
			return false
		}
	}

	return true
}

func equalPorts(
	existing []*parse.PortBinding, updated []*parse.PortBinding,
) bool {
	if len(existing) != len(updated) {
		return false
	}

	for i := range existing {
		if existing[i] == nil || updated[i] == nil {
			if existing[i] != updated[i] {
				return false
			}

			continue
		}

		if *existing[i] != *updated[i] {
			return false
		}
	}

	return true
}

func equalMounts(
	existing []*parse.VolumeMount, updated []*parse.VolumeMount,
) bool {
	if len(existing) != len(updated) {
		return false
	}

	for i := range existing {
		if existing[i] == nil || updated[i] == nil {
			if existing[i] != updated[i] {
				return false
			}

			continue
		}

		if *existing[i] != *updated[i] {
			return false
		}
	}

	return true
}

func equalDependencies(
	existing []*parse.Dependency, updated []*parse.Dependency,
) bool {
	if len(existing) != len(updated) {
		return false
	}

	for i := range existing {
		if existing[i] == nil || updated[i] == nil {
			if existing[i] != updated[i] {
				return false
			}

			continue
		}

		if *existing[i] != *updated[i] {
			return false
		}
	}

	return true
}
