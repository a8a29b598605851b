package parse

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/safe-waters/stack-plan/pkg/plan/collect"
	"gopkg.in/yaml.v2"
)

// TopologyParser extracts service topologies from docker-compose files and
// resolves base images from Dockerfiles referenced by build sections.
type TopologyParser struct {
	DockerfileParser *DockerfileParser
}

// ITopologyParser provides an interface for TopologyParser's
// exported methods.
type ITopologyParser interface {
	ParseFiles(
		paths <-chan *collect.PathResult,
		done <-chan struct{},
	) <-chan *Topology
}

// NewTopologyParser returns a TopologyParser after validating its fields.
func NewTopologyParser(
	dockerfileParser *DockerfileParser,
) (*TopologyParser, error) {
	if dockerfileParser == nil {
		return nil, errors.New("'dockerfileParser' cannot be nil")
	}

	return &TopologyParser{
		DockerfileParser: dockerfileParser,
	}, nil
}

// ParseFiles reads docker-compose YAML to parse the service topology of
// each file.
func (t *TopologyParser) ParseFiles(
	paths <-chan *collect.PathResult,
	done <-chan struct{},
) <-chan *Topology {
	if paths == nil {
		return nil
	}

	var (
		waitGroup  sync.WaitGroup
		topologies = make(chan *Topology)
	)

	waitGroup.Add(1)

	go func() {
		defer waitGroup.Done()

		for pathResult := range paths {
			pathResult := pathResult

			waitGroup.Add(1)

			go func() {
				defer waitGroup.Done()

				if pathResult.Err != nil {
					select {
					case <-done:
					case topologies <- &Topology{Err: pathResult.Err}:
					}

					return
				}

				topology, err := t.parseFile(pathResult.Path)
				if err != nil {
					topology = &Topology{Path: pathResult.Path, Err: err}
				}

				select {
				case <-done:
				case topologies <- topology:
				}
			}()
		}
	}()

	go func() {
		waitGroup.Wait()
		close(topologies)
	}()

	return topologies
}

func (t *TopologyParser) parseFile(path string) (*Topology, error) {
	composeByt, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	comp := compose{}
	if err := yaml.Unmarshal(composeByt, &comp); err != nil {
		return nil, fmt.Errorf("from '%s': %v", path, err)
	}

	if len(comp.Services) == 0 {
		return nil, fmt.Errorf("'%s' does not define any services", path)
	}

	topology := &Topology{Path: path}

	for volumeName := range comp.Volumes {
		topology.Volumes = append(topology.Volumes, volumeName)
	}

	sort.Strings(topology.Volumes)

	serviceNames := make([]string, 0, len(comp.Services))
	for serviceName := range comp.Services {
		serviceNames = append(serviceNames, serviceName)
	}

	sort.Strings(serviceNames)

	for _, serviceName := range serviceNames {
		service, err := t.parseService(
			serviceName, comp.Services[serviceName], path,
		)
		if err != nil {
			return nil, fmt.Errorf("from '%s': %v", path, err)
		}

		topology.Services = append(topology.Services, service)
	}

	return topology, nil
}

func (t *TopologyParser) parseService(
	serviceName string,
	svc *service,
	path string,
) (*Service, error) {
	if svc == nil {
		return nil, fmt.Errorf("service '%s' is empty", serviceName)
	}

	parsedService := &Service{
		Name:          serviceName,
		ContainerName: os.ExpandEnv(svc.ContainerName),
	}

	if err := t.parseImage(parsedService, svc, path); err != nil {
		return nil, err
	}

	for _, portLine := range svc.Ports {
		bindings, err := NewPortBindings(os.ExpandEnv(portLine))
		if err != nil {
			return nil, fmt.Errorf("service '%s': %v", serviceName, err)
		}

		parsedService.Ports = append(parsedService.Ports, bindings...)
	}

	for _, mountWrapper := range svc.MountWrappers {
		mount, err := t.parseMount(mountWrapper)
		if err != nil {
			return nil, fmt.Errorf("service '%s': %v", serviceName, err)
		}

		if mount != nil {
			parsedService.Mounts = append(parsedService.Mounts, mount)
		}
	}

	parsedService.DependsOn = t.parseDependsOn(svc)

	return parsedService, nil
}

func (t *TopologyParser) parseImage(
	parsedService *Service,
	svc *service,
	path string,
) error {
	if svc.BuildWrapper == nil {
		if svc.ImageName == "" {
			return fmt.Errorf(
				"service '%s' has neither an image nor a build section",
				parsedService.Name,
			)
		}

		parsedService.Image = NewImageReference(os.ExpandEnv(svc.ImageName))

		return nil
	}

	var (
		context        string
		dockerfilePath string
		buildArgs      map[string]string
	)

	switch build := svc.BuildWrapper.Build.(type) {
	case simple:
		context = os.ExpandEnv(string(build))
	case verbose:
		context = os.ExpandEnv(build.Context)
		dockerfilePath = os.ExpandEnv(build.DockerfilePath)
		buildArgs = t.parseBuildArgs(build)
	}

	context = filepath.FromSlash(filepath.ToSlash(context))
	if !filepath.IsAbs(context) {
		context = filepath.Join(filepath.Dir(path), context)
	}

	if dockerfilePath == "" {
		dockerfilePath = "Dockerfile"
	}

	dockerfilePath = filepath.Join(
		context, filepath.FromSlash(filepath.ToSlash(dockerfilePath)),
	)

	baseImage, err := t.DockerfileParser.BaseImage(dockerfilePath, buildArgs)
	if err != nil {
		return err
	}

	parsedService.Image = baseImage
	parsedService.DockerfilePath = dockerfilePath

	return nil
}

func (t *TopologyParser) parseBuildArgs(build verbose) map[string]string {
	buildArgs := map[string]string{}

	if build.ArgsWrapper == nil {
		return buildArgs
	}

	switch args := build.ArgsWrapper.Args.(type) {
	case argsMap:
		for k, v := range args {
			arg := os.ExpandEnv(k)
			val := os.ExpandEnv(v)
			buildArgs[arg] = val
		}
	case argsSlice:
		for _, argValStr := range args {
			argValSl := strings.SplitN(argValStr, "=", 2)
			arg := os.ExpandEnv(argValSl[0])

			const argOnlyLen = 1

			switch len(argValSl) {
			case argOnlyLen:
				buildArgs[arg] = os.Getenv(arg)
			default:
				val := os.ExpandEnv(argValSl[1])
				buildArgs[arg] = val
			}
		}
	}

	return buildArgs
}

// parseMount converts one volumes entry into a VolumeMount. Bind mounts,
// tmpfs mounts, and anonymous volumes return nil - only named volumes
// participate in the topology's binding contract.
func (t *TopologyParser) parseMount(
	mountWrapper *mountWrapper,
) (*VolumeMount, error) {
	if mountWrapper == nil {
		return nil, errors.New("volume mount is empty")
	}

	switch mount := mountWrapper.Mount.(type) {
	case longMount:
		if mount.Type != "volume" || mount.Source == "" {
			return nil, nil
		}

		if mount.Target == "" {
			return nil, fmt.Errorf(
				"volume '%s' is mounted without a target", mount.Source,
			)
		}

		var mode string
		if mount.ReadOnly {
			mode = "ro"
		}

		return &VolumeMount{
			Volume: os.ExpandEnv(mount.Source),
			Target: os.ExpandEnv(mount.Target),
			Mode:   mode,
		}, nil
	case shortMount:
		return t.parseShortMount(os.ExpandEnv(string(mount)))
	default:
		return nil, errors.New("volume mount is empty")
	}
}

func (t *TopologyParser) parseShortMount(mountLine string) (*VolumeMount, error) {
	const maxNumParts = 3

	parts := strings.SplitN(mountLine, ":", maxNumParts)

	// a single part is an anonymous volume managed by the orchestrator
	if len(parts) == 1 {
		return nil, nil
	}

	source := parts[0]
	if source == "" {
		return nil, fmt.Errorf("'%s' is not a valid volume mount", mountLine)
	}

	if strings.ContainsAny(source, `/\`) ||
		strings.HasPrefix(source, ".") ||
		strings.HasPrefix(source, "~") {
		// bind mount - a host path rather than a named volume
		return nil, nil
	}

	target := parts[1]
	if !strings.HasPrefix(target, "/") {
		return nil, fmt.Errorf(
			"'%s' volume mount target must be an absolute path", mountLine,
		)
	}

	mount := &VolumeMount{Volume: source, Target: target}

	if len(parts) == maxNumParts {
		mount.Mode = parts[2]
	}

	return mount, nil
}

func (t *TopologyParser) parseDependsOn(svc *service) []*Dependency {
	if svc.DependsOnWrapper == nil {
		return nil
	}

	var dependencies []*Dependency

	switch dependsOn := svc.DependsOnWrapper.DependsOn.(type) {
	case shortForm:
		for _, name := range dependsOn {
			dependencies = append(dependencies, &Dependency{Name: name})
		}
	case longForm:
		for name, spec := range dependsOn {
			dependencies = append(
				dependencies,
				&Dependency{Name: name, Condition: spec.Condition},
			)
		}

		sort.Slice(dependencies, func(i, j int) bool {
			return dependencies[i].Name < dependencies[j].Name
		})
	}

	return dependencies
}
