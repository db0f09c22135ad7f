package repository

import "context"

// KeyRegistry remembers the remote test key created for each scenario
type KeyRegistry interface {
	// Remember records the key created for a scenario of a feature
	Remember(ctx context.Context, feature, scenario, key string) error

	// Lookup returns the key recorded for a scenario, or "" when unknown
	Lookup(ctx context.Context, feature, scenario string) (string, error)

	// All returns every recorded key indexed by "<feature>::<scenario>"
	All(ctx context.Context) (map[string]string, error)

	// Ping checks that the backing store is reachable
	Ping(ctx context.Context) error
}

// Field builds the registry field name for a scenario
func Field(feature, scenario string) string {
	return feature + "::" + scenario
}
