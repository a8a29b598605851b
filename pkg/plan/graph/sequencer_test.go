package graph_test

import (
	"testing"

	"github.com/safe-waters/stack-plan/internal/testutils"
	"github.com/safe-waters/stack-plan/pkg/plan/graph"
	"github.com/safe-waters/stack-plan/pkg/plan/parse"
)

func TestSequencer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		Name       string
		Topology   *parse.Topology
		Expected   [][]string
		ShouldFail bool
	}{
		{
			Name: "Stages From Depends On",
			Topology: &parse.Topology{
				Path: "docker-compose.yml",
				Services: []*parse.Service{
					{
						Name: "frontend-service",
						DependsOn: []*parse.Dependency{
							{Name: "todo-service"},
							{Name: "user-service"},
						},
					},
					{Name: "todo-service"},
					{Name: "user-service"},
				},
			},
			Expected: [][]string{
				{"todo-service", "user-service"},
				{"frontend-service"},
			},
		},
		{
			Name: "Cycle Fails The Topology",
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
			ShouldFail: true,
		},
		{
			Name: "Undeclared Dependency Fails The Topology",
			Topology: &parse.Topology{
				Path: "docker-compose.yml",
				Services: []*parse.Service{
					{
						Name:      "frontend",
						DependsOn: []*parse.Dependency{{Name: "ghost"}},
					},
				},
			},
			ShouldFail: true,
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

			var got []*parse.Topology

			for topology := range graph.NewSequencer().SequenceTopologies(
				topologies, done,
			) {
				got = append(got, topology)
			}

			if len(got) != 1 {
				t.Fatalf("expected 1 topology, got %d", len(got))
			}

			if test.ShouldFail {
				if got[0].Err == nil {
					t.Fatal("expected an error but did not get one")
				}

				return
			}

			if got[0].Err != nil {
				t.Fatal(got[0].Err)
			}

			expected := test.Topology
			expected.Stages = test.Expected

			testutils.AssertTopologiesEqual(
				t, []*parse.Topology{expected}, got,
			)
		})
	}
}
