package parse_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/safe-waters/stack-plan/internal/testutils"
	"github.com/safe-waters/stack-plan/pkg/plan/collect"
	"github.com/safe-waters/stack-plan/pkg/plan/parse"
)

func TestTopologyParser(t *testing.T) {
	t.Parallel()

	tests := []struct {
		Name                 string
		EnvironmentVariables map[string]string
		ComposefilePaths     []string
		ComposefileContents  [][]byte
		DockerfilePaths      []string
		DockerfileContents   [][]byte
		Expected             []*parse.Topology
		ShouldFail           bool
	}{
		{
			Name:             "Image Ports Mounts And Depends On",
			ComposefilePaths: []string{"docker-compose.yml"},
			ComposefileContents: [][]byte{
				[]byte(`
version: '3.8'

services:
  frontend-service:
    image: smurfanders/frontend-service:latest
    ports:
      - "8080:8080"
    depends_on:
      - user-service
      - todo-service

  user-service:
    image: smurfanders/user-service:latest
    ports:
      - "5001:5000"
    volumes:
      - user_data:/app/data

  todo-service:
    image: smurfanders/todo-service:latest
    ports:
      - "5002:5000"
    volumes:
      - todo_data:/app/data

volumes:
  user_data:
  todo_data:
`),
			},
			Expected: []*parse.Topology{
				{
					Path: "docker-compose.yml",
					Services: []*parse.Service{
						{
							Name: "frontend-service",
							Image: &parse.ImageReference{
								Name: "smurfanders/frontend-service",
								Tag:  "latest",
							},
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
							Image: &parse.ImageReference{
								Name: "smurfanders/todo-service",
								Tag:  "latest",
							},
							Ports: []*parse.PortBinding{
								{Host: 5002, Container: 5000},
							},
							Mounts: []*parse.VolumeMount{
								{Volume: "todo_data", Target: "/app/data"},
							},
						},
						{
							Name: "user-service",
							Image: &parse.ImageReference{
								Name: "smurfanders/user-service",
								Tag:  "latest",
							},
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
		},
		{
			Name:             "Depends On Long Form",
			ComposefilePaths: []string{"docker-compose.yml"},
			ComposefileContents: [][]byte{
				[]byte(`
services:
  web:
    image: busybox
    depends_on:
      redis:
        condition: service_started
      database:
        condition: service_healthy
  redis:
    image: redis
  database:
    image: postgres
`),
			},
			Expected: []*parse.Topology{
				{
					Path: "docker-compose.yml",
					Services: []*parse.Service{
						{
							Name: "database",
							Image: &parse.ImageReference{
								Name: "postgres",
								Tag:  "latest",
							},
						},
						{
							Name: "redis",
							Image: &parse.ImageReference{
								Name: "redis",
								Tag:  "latest",
							},
						},
						{
							Name: "web",
							Image: &parse.ImageReference{
								Name: "busybox",
								Tag:  "latest",
							},
							DependsOn: []*parse.Dependency{
								{
									Name:      "database",
									Condition: "service_healthy",
								},
								{
									Name:      "redis",
									Condition: "service_started",
								},
							},
						},
					},
				},
			},
		},
		{
			Name: "Environment Variables",
			EnvironmentVariables: map[string]string{
				"STACK_PLAN_TEST_IMAGE_TAG": "v2",
				"STACK_PLAN_TEST_PORT":      "9090",
			},
			ComposefilePaths: []string{"docker-compose.yml"},
			ComposefileContents: [][]byte{
				[]byte(`
services:
  web:
    image: busybox:${STACK_PLAN_TEST_IMAGE_TAG}
    ports:
      - "${STACK_PLAN_TEST_PORT}:80"
`),
			},
			Expected: []*parse.Topology{
				{
					Path: "docker-compose.yml",
					Services: []*parse.Service{
						{
							Name: "web",
							Image: &parse.ImageReference{
								Name: "busybox",
								Tag:  "v2",
							},
							Ports: []*parse.PortBinding{
								{Host: 9090, Container: 80},
							},
						},
					},
				},
			},
		},
		{
			Name:             "Build Section",
			ComposefilePaths: []string{"docker-compose.yml"},
			ComposefileContents: [][]byte{
				[]byte(`
services:
  app:
    build: .
`),
			},
			DockerfilePaths: []string{"Dockerfile"},
			DockerfileContents: [][]byte{
				[]byte("FROM busybox\n"),
			},
			Expected: []*parse.Topology{
				{
					Path: "docker-compose.yml",
					Services: []*parse.Service{
						{
							Name: "app",
							Image: &parse.ImageReference{
								Name: "busybox",
								Tag:  "latest",
							},
							DockerfilePath: "Dockerfile",
						},
					},
				},
			},
		},
		{
			Name:             "Build Section With Args And Stage Aliases",
			ComposefilePaths: []string{"docker-compose.yml"},
			ComposefileContents: [][]byte{
				[]byte(`
services:
  app:
    build:
      context: ./app
      dockerfile: Dockerfile
      args:
        - BASE_IMAGE=golang
`),
			},
			DockerfilePaths: []string{filepath.Join("app", "Dockerfile")},
			DockerfileContents: [][]byte{
				[]byte(`
ARG BASE_IMAGE=busybox
FROM ${BASE_IMAGE} AS builder
FROM builder
`),
			},
			Expected: []*parse.Topology{
				{
					Path: "docker-compose.yml",
					Services: []*parse.Service{
						{
							Name: "app",
							Image: &parse.ImageReference{
								Name: "golang",
								Tag:  "latest",
							},
							DockerfilePath: filepath.Join(
								"app", "Dockerfile",
							),
						},
					},
				},
			},
		},
		{
			Name:             "Long Syntax And Bind Mounts",
			ComposefilePaths: []string{"docker-compose.yml"},
			ComposefileContents: [][]byte{
				[]byte(`
services:
  web:
    image: busybox
    volumes:
      - type: volume
        source: web_data
        target: /app/data
        read_only: true
      - ./config:/app/config
      - /app/cache

volumes:
  web_data:
`),
			},
			Expected: []*parse.Topology{
				{
					Path: "docker-compose.yml",
					Services: []*parse.Service{
						{
							Name: "web",
							Image: &parse.ImageReference{
								Name: "busybox",
								Tag:  "latest",
							},
							Mounts: []*parse.VolumeMount{
								{
									Volume: "web_data",
									Target: "/app/data",
									Mode:   "ro",
								},
							},
						},
					},
					Volumes: []string{"web_data"},
				},
			},
		},
		{
			Name:             "Multiple Composefiles",
			ComposefilePaths: []string{"docker-compose-one.yml", "docker-compose-two.yml"},
			ComposefileContents: [][]byte{
				[]byte(`
services:
  one:
    image: busybox
`),
				[]byte(`
services:
  two:
    image: redis
`),
			},
			Expected: []*parse.Topology{
				{
					Path: "docker-compose-one.yml",
					Services: []*parse.Service{
						{
							Name: "one",
							Image: &parse.ImageReference{
								Name: "busybox",
								Tag:  "latest",
							},
						},
					},
				},
				{
					Path: "docker-compose-two.yml",
					Services: []*parse.Service{
						{
							Name: "two",
							Image: &parse.ImageReference{
								Name: "redis",
								Tag:  "latest",
							},
						},
					},
				},
			},
		},
		{
			Name:             "Container Name",
			ComposefilePaths: []string{"docker-compose.yml"},
			ComposefileContents: [][]byte{
				[]byte(`
services:
  web:
    image: busybox
    container_name: my-web
`),
			},
			Expected: []*parse.Topology{
				{
					Path: "docker-compose.yml",
					Services: []*parse.Service{
						{
							Name:          "web",
							ContainerName: "my-web",
							Image: &parse.ImageReference{
								Name: "busybox",
								Tag:  "latest",
							},
						},
					},
				},
			},
		},
		{
			Name:             "No Services",
			ComposefilePaths: []string{"docker-compose.yml"},
			ComposefileContents: [][]byte{
				[]byte(`
volumes:
  lonely_data:
`),
			},
			ShouldFail: true,
		},
		{
			Name:             "Neither Image Nor Build",
			ComposefilePaths: []string{"docker-compose.yml"},
			ComposefileContents: [][]byte{
				[]byte(`
services:
  web:
    ports:
      - "8080:80"
`),
			},
			ShouldFail: true,
		},
		{
			Name:             "Mount Without Absolute Target",
			ComposefilePaths: []string{"docker-compose.yml"},
			ComposefileContents: [][]byte{
				[]byte(`
services:
  web:
    image: busybox
    volumes:
      - web_data:data

volumes:
  web_data:
`),
			},
			ShouldFail: true,
		},
	}

	for _, test := range tests {
		test := test

		t.Run(test.Name, func(t *testing.T) {
			t.Parallel()

			for key, val := range test.EnvironmentVariables {
				os.Setenv(key, val)
			}

			tempDir := testutils.MakeTempDirInCurrentDir(t)
			defer os.RemoveAll(tempDir)

			testutils.MakeParentDirsInTempDirFromFilePaths(
				t, tempDir, test.ComposefilePaths,
			)
			composefilePaths := testutils.WriteFilesToTempDir(
				t, tempDir, test.ComposefilePaths, test.ComposefileContents,
			)

			if len(test.DockerfilePaths) != 0 {
				testutils.MakeParentDirsInTempDirFromFilePaths(
					t, tempDir, test.DockerfilePaths,
				)
				testutils.WriteFilesToTempDir(
					t, tempDir, test.DockerfilePaths, test.DockerfileContents,
				)
			}

			pathResults := make(
				chan *collect.PathResult, len(composefilePaths),
			)

			for _, path := range composefilePaths {
				pathResults <- &collect.PathResult{Path: path}
			}

			close(pathResults)

			parser, err := parse.NewTopologyParser(
				parse.NewDockerfileParser(),
			)
			if err != nil {
				t.Fatal(err)
			}

			done := make(chan struct{})
			defer close(done)

			var got []*parse.Topology

			for topology := range parser.ParseFiles(pathResults, done) {
				if topology.Err != nil {
					err = topology.Err
					break
				}

				got = append(got, topology)
			}

			if test.ShouldFail {
				if err == nil {
					t.Fatal("expected an error but did not get one")
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			sort.Slice(got, func(i int, j int) bool {
				return got[i].Path < got[j].Path
			})

			expected := make([]*parse.Topology, len(test.Expected))

			for i, topology := range test.Expected {
				expectedTopology := *topology
				expectedTopology.Path = filepath.Join(
					tempDir, topology.Path,
				)

				for j, service := range expectedTopology.Services {
					if service.DockerfilePath != "" {
						expectedService := *service
						expectedService.DockerfilePath = filepath.Join(
							tempDir, service.DockerfilePath,
						)
						expectedTopology.Services[j] = &expectedService
					}
				}

				expected[i] = &expectedTopology
			}

			testutils.AssertTopologiesEqual(t, expected, got)
		})
	}
}

func TestTopologyParserErrorKeepsPath(t *testing.T) {
	t.Parallel()

	tempDir := testutils.MakeTempDirInCurrentDir(t)
	defer os.RemoveAll(tempDir)

	composefilePaths := testutils.WriteFilesToTempDir(
		t, tempDir, []string{"docker-compose.yml"},
		[][]byte{
			[]byte(`
services:
  web:
    ports:
      - "8080:80"
`),
		},
	)

	pathResults := make(chan *collect.PathResult, 1)
	pathResults <- &collect.PathResult{Path: composefilePaths[0]}
	close(pathResults)

	dockerfileParser := parse.NewDockerfileParser()

	topologyParser, err := parse.NewTopologyParser(dockerfileParser)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	defer close(done)

	var got []*parse.Topology

	for topology := range topologyParser.ParseFiles(pathResults, done) {
		got = append(got, topology)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 topology but got %d", len(got))
	}

	if got[0].Err == nil {
		t.Fatal("expected an error but did not get one")
	}

	if got[0].Path != composefilePaths[0] {
		t.Fatalf(
			"expected path '%s' but got '%s'",
			composefilePaths[0], got[0].Path,
		)
	}
}
