package validator

import "solarops/internal/validator/installation"

// Registry holds validators keyed by rule key, remembering registration order.
type Registry struct {
	validators map[string]Validator
	order      []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{validators: make(map[string]Validator)}
}

// DefaultRegistry returns a registry loaded with the installation checklist.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, rule := range installation.AllRules() {
		r.Register(rule)
	}
	return r
}

// Register adds a validator. Re-registering a key replaces it in place.
func (r *Registry) Register(v Validator) {
	if _, exists := r.validators[v.RuleKey()]; !exists {
		r.order = append(r.order, v.RuleKey())
	}
	r.validators[v.RuleKey()] = v
}

// Get returns the validator for a given rule key, or nil if not found.
func (r *Registry) Get(key string) Validator {
	return r.validators[key]
}

// All returns all registered validators in registration order.
func (r *Registry) All() []Validator {
	out := make([]Validator, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.validators[key])
	}
	return out
}
