package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/providers/aws/common"
	awssecurity "github.com/pankaj-dahiya-devops/s3-public-access-rule/internal/providers/aws/security"
)

// Factory builds a Rule bound to one invocation's clients.
type Factory func(cs *common.ClientSet) Rule

// DefaultRuleRegistry is a simple, ordered, in-memory registry of rule
// factories keyed by rule ID.
// Register panics on duplicate rule IDs to catch wiring mistakes at startup.
type DefaultRuleRegistry struct {
	ids       []string
	factories map[string]Factory
}

// NewDefaultRuleRegistry returns an empty registry ready for rule registration.
func NewDefaultRuleRegistry() *DefaultRuleRegistry {
	return &DefaultRuleRegistry{
		factories: make(map[string]Factory),
	}
}

// NewBuiltinRegistry returns a registry holding every rule shipped with the
// handler.
func NewBuiltinRegistry() *DefaultRuleRegistry {
	r := NewDefaultRuleRegistry()
	r.Register(S3AccountPublicAccessRule{}.ID(), func(cs *common.ClientSet) Rule {
		return S3AccountPublicAccessRule{Collector: awssecurity.NewDefaultSecurityCollector(cs)}
	})
	return r
}

// Register adds f under id. Panics if the same ID is registered twice.
func (r *DefaultRuleRegistry) Register(id string, f Factory) {
	if _, exists := r.factories[id]; exists {
		panic(fmt.Sprintf("duplicate rule ID: %q", id))
	}
	r.ids = append(r.ids, id)
	r.factories[id] = f
}

// Lookup returns the factory registered under id.
func (r *DefaultRuleRegistry) Lookup(id string) (Factory, error) {
	f, ok := r.factories[id]
	if !ok {
		return nil, fmt.Errorf("unknown rule ID %q (registered: %v)", id, r.ids)
	}
	return f, nil
}

// IDs returns all registered rule IDs in registration order.
func (r *DefaultRuleRegistry) IDs() []string {
	return r.ids
}
