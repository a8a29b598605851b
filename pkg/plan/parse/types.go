// Package parse provides functionality to parse service topologies from
// collected compose files.
package parse

// Topology is the service topology declared by one compose file: the
// service registry, the volume registry, and, once sequenced, the startup
// stages implied by depends_on edges.
type Topology struct {
	Path     string     `json:"-"`
	Services []*Service `json:"services"`
	Volumes  []string   `json:"volumes,omitempty"`
	Stages   [][]string `json:"stages,omitempty"`
	Err      error      `json:"-"`
}

// Service is one named entry in the service registry. Its image reference
// either comes from an image line or, for services with a build section,
// from the base image of the final stage of the referenced Dockerfile.
type Service struct {
	Name           string          `json:"name"`
	ContainerName  string          `json:"container_name,omitempty"`
	Image          *ImageReference `json:"image,omitempty"`
	DockerfilePath string          `json:"dockerfile,omitempty"`
	Ports          []*PortBinding  `json:"ports,omitempty"`
	Mounts         []*VolumeMount  `json:"mounts,omitempty"`
	DependsOn      []*Dependency   `json:"depends_on,omitempty"`
}

// Dependency is a start-order-only edge to another service. The condition
// from the long depends_on form is recorded but never interpreted -
// ordering carries no readiness guarantee.
type Dependency struct {
	Name      string `json:"name"`
	Condition string `json:"condition,omitempty"`
}

// PortBinding is a published port. Host is zero when the container port is
// exposed without a host binding.
type PortBinding struct {
	HostIP    string `json:"host_ip,omitempty"`
	Host      uint16 `json:"host,omitempty"`
	Container uint16 `json:"container"`
	Protocol  string `json:"protocol,omitempty"`
}

// VolumeMount attaches a named volume to a container path. Bind mounts are
// not part of the topology - only volumes declared in the volume registry
// participate in the binding contract.
type VolumeMount struct {
	Volume string `json:"volume"`
	Target string `json:"target"`
	Mode   string `json:"mode,omitempty"`
}

// DependencyNames returns the names of the service's depends_on edges.
func (s *Service) DependencyNames() []string {
	names := make([]string, len(s.DependsOn))

	for i, dependency := range s.DependsOn {
		names[i] = dependency.Name
	}

	return names
}
