package verify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/safe-waters/stack-plan/pkg/plan"
)

// DifferentPlanfileError reports all differences between an existing
// Planfile and a newly generated one.
type DifferentPlanfileError struct {
	ExistingPlanfile *plan.Planfile
	NewPlanfile      *plan.Planfile
	Differences      []error
}

// Error returns the differences along with both Planfiles, pretty
// printed so they can be compared by hand.
func (d *DifferentPlanfileError) Error() string {
	var differences strings.Builder

	for _, difference := range d.Differences {
		differences.WriteString(fmt.Sprintf("%v\n", difference))
	}

	existingPrettyPlanfile, err := json.MarshalIndent(
		d.ExistingPlanfile, "", "\t",
	)
	if err != nil {
		return fmt.Sprintf(
			"%sunable to display existing planfile: %v", &differences, err,
		)
	}

	newPrettyPlanfile, err := json.MarshalIndent(d.NewPlanfile, "", "\t")
	if err != nil {
		return fmt.Sprintf(
			"%sunable to display new planfile: %v", &differences, err,
		)
	}

	return fmt.Sprintf(
		"%sexisting planfile:\n%s\nnew planfile:\n%s",
		&differences, string(existingPrettyPlanfile),
		string(newPrettyPlanfile),
	)
}
