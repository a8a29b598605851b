package verify

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"reflect"

	"github.com/safe-waters/stack-plan/pkg/plan"
)

// Verifier verifies that the Planfile is the same as one that would be
// generated if a new one were generated from the compose files it
// references.
type Verifier struct {
	Planner        plan.IPlanner
	Differentiator ITopologyDifferentiator
}

// NewVerifier returns a Verifier after validating its fields.
func NewVerifier(
	planner plan.IPlanner,
	differentiator ITopologyDifferentiator,
) (*Verifier, error) {
	if planner == nil || reflect.ValueOf(planner).IsNil() {
		return nil, errors.New("'planner' cannot be nil")
	}

	if differentiator == nil || reflect.ValueOf(differentiator).IsNil() {
		return nil, errors.New("'differentiator' cannot be nil")
	}

	return &Verifier{
		Planner:        planner,
		Differentiator: differentiator,
	}, nil
}

// VerifyPlanfile reads an existing Planfile and generates a new one
// for the same paths. If they are different, the differences are
// returned as an error.
func (v *Verifier) VerifyPlanfile(planfileReader io.Reader) error {
	if planfileReader == nil || reflect.ValueOf(planfileReader).IsNil() {
		return errors.New("'planfileReader' cannot be nil")
	}

	var existingPlanfile plan.Planfile
	if err := json.NewDecoder(planfileReader).Decode(
		&existingPlanfile,
	); err != nil {
		return err
	}

	var newPlanfileByt bytes.Buffer
	if err := v.Planner.GeneratePlanfile(&newPlanfileByt); err != nil {
		return err
	}

	newPlanfileContents := newPlanfileByt.Bytes()

	if len(newPlanfileContents) == 0 {
		return errors.New("no compose files found")
	}

	var newPlanfile plan.Planfile
	if err := json.Unmarshal(newPlanfileContents, &newPlanfile); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)

	differences := v.Differentiator.Differentiate(
		existingPlanfile.Composefiles, newPlanfile.Composefiles, done,
	)

	var allDifferences []error

	for difference := range differences {
		allDifferences = append(allDifferences, difference)
	}

	if len(allDifferences) != 0 {
		return &DifferentPlanfileError{
			ExistingPlanfile: &existingPlanfile,
			NewPlanfile:      &newPlanfile,
			Differences:      allDifferences,
		}
	}

	return nil
}
