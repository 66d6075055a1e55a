package flp

import "fmt"

// ValidationError reports structurally invalid input data.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid dataset: %s: %s", e.Field, e.Msg)
}

// ConfigError reports an unusable solve configuration.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Msg)
}

// SolverError wraps a failure inside a solver backend.
type SolverError struct {
	Backend string
	Msg     string
	Err     error
}

func (e *SolverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("solver %s: %s: %v", e.Backend, e.Msg, e.Err)
	}
	return fmt.Sprintf("solver %s: %s", e.Backend, e.Msg)
}

func (e *SolverError) Unwrap() error { return e.Err }

// InconsistentSolutionError means the backend reported success but the
// returned variable values violate the model.
type InconsistentSolutionError struct {
	Msg string
}

func (e *InconsistentSolutionError) Error() string {
	return fmt.Sprintf("inconsistent solution: %s", e.Msg)
}
