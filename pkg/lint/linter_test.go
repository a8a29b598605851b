package lint_test

import (
	"errors"
	"sort"
	"testing"

	"github.com/safe-waters/stack-plan/internal/testutils"
	"github.com/safe-waters/stack-plan/pkg/lint"
	"github.com/safe-waters/stack-plan/pkg/plan/parse"
)

var errTest = errors.New("unable to parse") // nolint: gochecknoglobals

func TestLinter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		Name     string
		Topology *parse.Topology
		Expected []*lint.Finding
	}{
		{
			Name: "Clean Topology",
			Topology: &parse.Topology{
				Path: "docker-compose.yml",
				Services: []*parse.Service{
					{
						Name: "frontend-service",
						Ports: []*parse.PortBinding{
							{Host: 8080, Container: 8080},
						},
						DependsOn: []*parse.Dependency{
							{Name: "user-service"},
							{Name: "todo-service"},
						},
					},
					{
						Name: "todo-service",
						Ports: []*parse.PortBinding{
							{Host: 5002, Container: 5000},
						},
						Mounts: []*parse.VolumeMount{
							{Volume: "todo_data", Target: "/app/data"},
						},
					},
					{
						Name: "user-service",
						Ports: []*parse.PortBinding{
							{Host: 5001, Container: 5000},
						},
						Mounts: []*parse.VolumeMount{
							{Volume: "user_data", Target: "/app/data"},
						},
					},
				},
				Volumes: []string{"todo_data", "user_data"},
			},
		},
		{
			Name: "Undeclared Dependency",
			Topology: &parse.Topology{
				Path: "docker-compose.yml",
				Services: []*parse.Service{
					{
						Name:      "frontend",
						DependsOn: []*parse.Dependency{{Name: "ghost"}},
					},
				},
			},
			Expected: []*lint.Finding{
				{
					Path:     "docker-compose.yml",
					Service:  "frontend",
					Severity: lint.Error,
					Message:  "depends on undeclared service 'ghost'",
				},
			},
		},
		{
			Name: "Self Dependency",
			Topology: &parse.Topology{
				Path: "docker-compose.yml",
				Services: []*parse.Service{
					{
						Name:      "web",
						DependsOn: []*parse.Dependency{{Name: "web"}},
					},
				},
			},
			Expected: []*lint.Finding{
				{
					Path:     "docker-compose.yml",
					Service:  "web",
					Severity: lint.Error,
					Message:  "depends on itself",
				},
			},
		},
		{
			Name: "Dependency Cycle",
			Topology: &parse.Topology{
				Path: "docker-compose.yml",
				Services: []*parse.Service{
					{
						Name:      "a",
						DependsOn: []*parse.Dependency{{Name: "b"}},
					},
					{
						Name:      "b",
						DependsOn: []*parse.Dependency{{Name: "a"}},
					},
				},
			},
			Expected: []*lint.Finding{
				{
					Path:     "docker-compose.yml",
					Severity: lint.Error,
					Message:  "dependency cycle: a -> b -> a",
				},
			},
		},
		{
			Name: "Undeclared Volume",
			Topology: &parse.Topology{
				Path: "docker-compose.yml",
				Services: []*parse.Service{
					{
						Name: "web",
						Mounts: []*parse.VolumeMount{
							{Volume: "web_data", Target: "/app/data"},
						},
					},
				},
			},
			Expected: []*lint.Finding{
				{
					Path:     "docker-compose.yml",
					Service:  "web",
					Severity: lint.Error,
					Message:  "mounts undeclared volume 'web_data'",
				},
			},
		},
		{
			Name: "Host Port Conflict",
			Topology: &parse.Topology{
				Path: "docker-compose.yml",
				Services: []*parse.Service{
					{
						Name: "one",
						Ports: []*parse.PortBinding{
							{Host: 8080, Container: 80},
						},
					},
					{
						Name: "two",
						Ports: []*parse.PortBinding{
							{Host: 8080, Container: 80},
						},
					},
				},
			},
			Expected: []*lint.Finding{
				{
					Path:     "docker-compose.yml",
					Service:  "two",
					Severity: lint.Error,
					Message: "host port 8080/tcp already published " +
						"by service 'one'",
				},
			},
		},
		{
			Name: "Same Port Different Interfaces",
			Topology: &parse.Topology{
				Path: "docker-compose.yml",
				Services: []*parse.Service{
					{
						Name: "one",
						Ports: []*parse.PortBinding{
							{
								HostIP:    "127.0.0.1",
								Host:      8080,
								Container: 80,
							},
						},
					},
					{
						Name: "two",
						Ports: []*parse.PortBinding{
							{
								HostIP:    "192.168.0.1",
								Host:      8080,
								Container: 80,
							},
						},
					},
				},
			},
		},
		{
			Name: "Same Port Different Protocols",
			Topology: &parse.Topology{
				Path: "docker-compose.yml",
				Services: []*parse.Service{
					{
						Name: "one",
						Ports: []*parse.PortBinding{
							{Host: 53, Container: 53, Protocol: "tcp"},
						},
					},
					{
						Name: "two",
						Ports: []*parse.PortBinding{
							{Host: 53, Container: 53, Protocol: "udp"},
						},
					},
				},
			},
		},
		{
			Name: "Container Name Conflict",
			Topology: &parse.Topology{
				Path: "docker-compose.yml",
				Services: []*parse.Service{
					{Name: "one", ContainerName: "app"},
					{Name: "two", ContainerName: "app"},
				},
			},
			Expected: []*lint.Finding{
				{
					Path:     "docker-compose.yml",
					Service:  "two",
					Severity: lint.Error,
					Message: "container name 'app' already declared " +
						"by service 'one'",
				},
			},
		},
		{
			Name: "Unused Volume Warns",
			Topology: &parse.Topology{
				Path: "docker-compose.yml",
				Services: []*parse.Service{
					{Name: "web"},
				},
				Volumes: []string{"web_data"},
			},
			Expected: []*lint.Finding{
				{
					Path:     "docker-compose.yml",
					Severity: lint.Warning,
					Message:  "volume 'web_data' is declared but never mounted",
				},
			},
		},
	}

	for _, test := range tests {
		test := test

		t.Run(test.Name, func(t *testing.T) {
			t.Parallel()

			topologies := make(chan *parse.Topology, 1)
			topologies <- test.Topology
			close(topologies)

			done := make(chan struct{})
			defer close(done)

			var got []*lint.Finding

			for finding := range lint.NewLinter().LintTopologies(
				topologies, done,
			) {
				got = append(got, finding)
			}

			sort.Slice(got, func(i int, j int) bool {
				if got[i].Service != got[j].Service {
					return got[i].Service < got[j].Service
				}

				return got[i].Message < got[j].Message
			})

			testutils.AssertFindingsEqual(t, test.Expected, got)
		})
	}
}

func TestLinterReportsParseError(t *testing.T) {
	t.Parallel()

	topologies := make(chan *parse.Topology, 1)
	topologies <- &parse.Topology{
		Path: "docker-compose.yml",
		Err:  errTest,
	}
	close(topologies)

	done := make(chan struct{})
	defer close(done)

	var got []*lint.Finding

	for finding := range lint.NewLinter().LintTopologies(
		topologies, done,
	) {
		got = append(got, finding)
	}

	testutils.AssertFindingsEqual(t, []*lint.Finding{
		{
			Path:     "docker-compose.yml",
			Severity: lint.Error,
			Message:  errTest.Error(),
		},
	}, got)
}
