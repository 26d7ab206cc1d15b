package quarantine

import (
	"fmt"
	"sort"

	"tally/contexts/results-processing/result-form-service/domain/entities"
)

// Input is everything a predicate may look at. Results and Reconciliation
// hold the active FINAL rows only.
type Input struct {
	Form           entities.ResultForm
	Registrants    *int
	Results        []entities.Result
	Reconciliation *entities.ReconciliationForm
}

// VoteSum is the total of the candidate votes on the form.
func (in Input) VoteSum() int64 {
	var total int64
	for _, result := range in.Results {
		total += int64(result.Votes)
	}
	return total
}

// Recon returns the reconciliation values, or nil when no row exists.
func (in Input) Recon() entities.ReconValues {
	if in.Reconciliation == nil {
		return nil
	}
	return in.Reconciliation.Values
}

// Predicate reports whether a form passes the configured check.
type Predicate func(check entities.QuarantineCheck, in Input) bool

// Registry maps check methods to predicates.
type Registry struct {
	predicates map[string]Predicate
}

func NewRegistry() *Registry {
	return &Registry{predicates: map[string]Predicate{}}
}

// Register adds a predicate under method. A method can only be registered once.
func (r *Registry) Register(method string, predicate Predicate) error {
	if method == "" || predicate == nil {
		return fmt.Errorf("quarantine: method and predicate are required")
	}
	if _, exists := r.predicates[method]; exists {
		return fmt.Errorf("quarantine: method %q already registered", method)
	}
	r.predicates[method] = predicate
	return nil
}

func (r *Registry) Has(method string) bool {
	_, ok := r.predicates[method]
	return ok
}

// Methods lists registered method names in lexical order.
func (r *Registry) Methods() []string {
	out := make([]string, 0, len(r.predicates))
	for method := range r.predicates {
		out = append(out, method)
	}
	sort.Strings(out)
	return out
}

// Evaluate runs every active check in the given order. An active check whose
// method is not registered is an error, so a misconfigured seed row never
// silently passes.
func (r *Registry) Evaluate(checks []entities.QuarantineCheck, in Input) ([]entities.CheckOutcome, error) {
	outcomes := make([]entities.CheckOutcome, 0, len(checks))
	for _, check := range checks {
		if !check.Active {
			continue
		}
		predicate, ok := r.predicates[check.Method]
		if !ok {
			return nil, fmt.Errorf("quarantine: no predicate for method %q", check.Method)
		}
		outcomes = append(outcomes, entities.CheckOutcome{
			CheckID: check.QuarantineCheckID,
			Name:    check.Name,
			Method:  check.Method,
			Passed:  predicate(check, in),
		})
	}
	return outcomes, nil
}

// Failed filters outcomes down to the checks that did not pass.
func Failed(outcomes []entities.CheckOutcome) []entities.CheckOutcome {
	var out []entities.CheckOutcome
	for _, outcome := range outcomes {
		if !outcome.Passed {
			out = append(out, outcome)
		}
	}
	return out
}

// DefaultRegistry returns a registry holding every built-in check.
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	for _, builtin := range builtins {
		if err := registry.Register(builtin.method, builtin.predicate); err != nil {
			panic(err)
		}
	}
	return registry
}
