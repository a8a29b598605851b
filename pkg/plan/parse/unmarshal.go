package parse

import "fmt"

type compose struct {
	Services map[string]*service    `yaml:"services"`
	Volumes  map[string]interface{} `yaml:"volumes"`
}

type service struct {
	ContainerName    string            `yaml:"container_name"`
	ImageName        string            `yaml:"image"`
	BuildWrapper     *buildWrapper     `yaml:"build"`
	Ports            []string          `yaml:"ports"`
	MountWrappers    []*mountWrapper   `yaml:"volumes"`
	DependsOnWrapper *dependsOnWrapper `yaml:"depends_on"`
}

// buildWrapper describes the "build" section of a service. It is used
// when unmarshalling to either contain simple or verbose build sections.
type buildWrapper struct {
	Build interface{}
}

// simple represents a "build" section without build keys. For instance,
// build: dirWithDockerfile
type simple string

// verbose represents a "build" section with build keys specified. For
// instance,
// build:
//     context: ./dirWithDockerfile
//     dockerfile: Dockerfile
type verbose struct {
	Context        string       `yaml:"context"`
	DockerfilePath string       `yaml:"dockerfile"`
	ArgsWrapper    *argsWrapper `yaml:"args"`
}

// argsWrapper describes the "args" section of a build section. It can contain
// a slice of strings or a map.
type argsWrapper struct {
	Args interface{}
}

// argsSlice can be build args as keys that reference environment vars or
// keys and values.
type argsSlice []string

// argsMap are build args as keys and values.
type argsMap map[string]string

// dependsOnWrapper describes the "depends_on" section of a service. It is
// used when unmarshalling to contain either the short list form or the long
// map form with conditions.
type dependsOnWrapper struct {
	DependsOn interface{}
}

// shortForm lists dependency names. For instance,
// depends_on:
//     - user-service
type shortForm []string

// longForm maps dependency names to specs with conditions. For instance,
// depends_on:
//     user-service:
//         condition: service_started
type longForm map[string]dependencySpec

type dependencySpec struct {
	Condition string `yaml:"condition"`
}

// mountWrapper describes one entry of the "volumes" section of a service.
// It is used when unmarshalling to contain either the short
// "source:target[:mode]" string form or the long map form.
type mountWrapper struct {
	Mount interface{}
}

// shortMount is a "source:target[:mode]" string.
type shortMount string

// longMount is a mount with keys specified. For instance,
// volumes:
//     - type: volume
//       source: todo_data
//       target: /app/data
type longMount struct {
	Type     string `yaml:"type"`
	Source   string `yaml:"source"`
	Target   string `yaml:"target"`
	ReadOnly bool   `yaml:"read_only"`
}

// UnmarshalYAML unmarshals the "build" section of a service into either
// a simple or verbose build.
func (b *buildWrapper) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*b = buildWrapper{}

	var v verbose
	if err := unmarshal(&v); err == nil {
		b.Build = v
		return nil
	}

	var s simple
	if err := unmarshal(&s); err == nil {
		b.Build = s
		return nil
	}

	return fmt.Errorf("unable to unmarshal build")
}

// UnmarshalYAML unmarshals the "args" section of a verbose build. Args can
// be either slices or maps.
func (a *argsWrapper) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*a = argsWrapper{}

	var as argsSlice
	if err := unmarshal(&as); err == nil {
		a.Args = as
		return nil
	}

	var am argsMap
	if err := unmarshal(&am); err == nil {
		a.Args = am
		return nil
	}

	return fmt.Errorf("unable to unmarshal build args")
}

// UnmarshalYAML unmarshals the "depends_on" section of a service into
// either the short list form or the long map form.
func (d *dependsOnWrapper) UnmarshalYAML(
	unmarshal func(interface{}) error,
) error {
	*d = dependsOnWrapper{}

	var s shortForm
	if err := unmarshal(&s); err == nil {
		d.DependsOn = s
		return nil
	}

	var l longForm
	if err := unmarshal(&l); err == nil {
		d.DependsOn = l
		return nil
	}

	return fmt.Errorf("unable to unmarshal depends_on")
}

// UnmarshalYAML unmarshals one entry of the "volumes" section of a service
// into either the short string form or the long map form.
func (m *mountWrapper) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*m = mountWrapper{}

	var l longMount
	if err := unmarshal(&l); err == nil {
		m.Mount = l
		return nil
	}

	var s shortMount
	if err := unmarshal(&s); err == nil {
		m.Mount = s
		return nil
	}

	return fmt.Errorf("unable to unmarshal volume mount")
}
