package solution

import "fmt"

// StepType is the closed set of route step variants. The declaration order
// is the categorical order of the tabular view.
type StepType int8

const (
	Start StepType = iota
	End
	Break
	Job
	Delivery
	Pickup
)

var stepTypeNames = [...]string{"start", "end", "break", "job", "delivery", "pickup"}

// Categories returns the step type names in categorical order.
func Categories() []string {
	out := make([]string, len(stepTypeNames))
	copy(out, stepTypeNames[:])
	return out
}

func (t StepType) String() string {
	if t < 0 || int(t) >= len(stepTypeNames) {
		return fmt.Sprintf("StepType(%d)", int8(t))
	}
	return stepTypeNames[t]
}

func ParseStepType(s string) (StepType, error) {
	for i, name := range stepTypeNames {
		if name == s {
			return StepType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown step type %q", ErrContractViolation, s)
}
