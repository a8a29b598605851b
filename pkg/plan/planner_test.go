package plan_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/safe-waters/stack-plan/internal/testutils"
	"github.com/safe-waters/stack-plan/pkg/plan"
	"github.com/safe-waters/stack-plan/pkg/plan/collect"
	"github.com/safe-waters/stack-plan/pkg/plan/graph"
	"github.com/safe-waters/stack-plan/pkg/plan/parse"
	"github.com/safe-waters/stack-plan/pkg/plan/update"
)

var composefileContents = []byte(`
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
`) // nolint: gochecknoglobals

func TestPlanner(t *testing.T) {
	t.Parallel()

	tempDir := testutils.MakeTempDirInCurrentDir(t)
	defer os.RemoveAll(tempDir)

	composefilePaths := testutils.WriteFilesToTempDir(
		t, tempDir, []string{"docker-compose.yml"},
		[][]byte{composefileContents},
	)

	planner := makePlanner(t, composefilePaths)

	var planfileByt bytes.Buffer
	if err := planner.GeneratePlanfile(&planfileByt); err != nil {
		t.Fatal(err)
	}

	var got plan.Planfile
	if err := json.Unmarshal(planfileByt.Bytes(), &got); err != nil {
		t.Fatal(err)
	}

	expected := plan.Planfile{
		Composefiles: map[string]*parse.Topology{
			filepath.ToSlash(composefilePaths[0]): {
				Services: []*parse.Service{
					{
						Name: "frontend-service",
						Image: &parse.ImageReference{
							Name:   "smurfanders/frontend-service",
							Tag:    "latest",
							Digest: testutils.FrontendLatestSHA,
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
							Name:   "smurfanders/todo-service",
							Tag:    "latest",
							Digest: testutils.TodoSvcLatestSHA,
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
							Name:   "smurfanders/user-service",
							Tag:    "latest",
							Digest: testutils.UserSvcLatestSHA,
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
				Stages: [][]string{
					{"todo-service", "user-service"},
					{"frontend-service"},
				},
			},
		},
	}

	testutils.AssertPlanfilesEqual(t, &expected, &got)
}

func TestPlanfileImageDigests(t *testing.T) {
	t.Parallel()

	planfile := plan.Planfile{
		Composefiles: map[string]*parse.Topology{
			"docker-compose.yml": {
				Services: []*parse.Service{
					{
						Name: "web",
						Image: &parse.ImageReference{
							Name:   "busybox",
							Tag:    "latest",
							Digest: testutils.BusyboxLatestSHA,
						},
					},
					{
						Name: "undigested",
						Image: &parse.ImageReference{
							Name: "redis",
							Tag:  "latest",
						},
					},
				},
			},
		},
	}

	digests := planfile.ImageDigests()

	if len(digests) != 1 {
		t.Fatalf("expected 1 digest, got %d", len(digests))
	}

	if digests["busybox:latest"] != testutils.BusyboxLatestSHA {
		t.Fatalf(
			"expected %s, got %s",
			testutils.BusyboxLatestSHA, digests["busybox:latest"],
		)
	}
}

func makePlanner(t *testing.T, composefilePaths []string) plan.IPlanner {
	t.Helper()

	collector, err := collect.NewPathCollector(
		".", nil, composefilePaths, nil, false,
	)
	if err != nil {
		t.Fatal(err)
	}

	parser, err := parse.NewTopologyParser(parse.NewDockerfileParser())
	if err != nil {
		t.Fatal(err)
	}

	updater, err := update.NewDigestUpdater(
		testutils.NewMockDigestRequester(t, nil), false, false, nil,
	)
	if err != nil {
		t.Fatal(err)
	}

	planner, err := plan.NewPlanner(
		collector, parser, graph.NewSequencer(), updater,
	)
	if err != nil {
		t.Fatal(err)
	}

	return planner
}
