package catalog

import "context"

// Store provides catalog partitions keyed by (test type, language).
//
// Loaders favor continuation over failure: a missing question partition is
// reported as a nil map with a nil error (no scoring possible, caller backs
// off), profile and threshold lookups degrade to empty results. Only
// infrastructure faults (broken connection, bad SQL) surface as errors.
type Store interface {
	// LoadQuestions returns the question map for a partition, keyed by
	// question ID, or (nil, nil) when the partition does not exist.
	LoadQuestions(ctx context.Context, testType, lang string) (map[string]Question, error)

	// ListQuestions returns the same partition in catalog order, which is
	// the order questions appear on a generated form. (nil, nil) when the
	// partition does not exist.
	ListQuestions(ctx context.Context, testType, lang string) ([]Question, error)

	// LoadProfiles returns the profile map keyed by profile code. Never nil;
	// empty on any failure.
	LoadProfiles(ctx context.Context, testType, lang string) map[string]Profile

	// LoadThresholds returns the ordered threshold table for a partition,
	// empty when none is defined.
	LoadThresholds(ctx context.Context, testType, lang string) []ThresholdRule

	PutQuestions(ctx context.Context, testType, lang string, qs []Question) error
	PutProfiles(ctx context.Context, testType, lang string, ps []Profile) error
	PutThresholds(ctx context.Context, testType, lang string, rules []ThresholdRule) error

	// Languages lists the language codes for which a question partition
	// exists for the given test type, in stable order.
	Languages(ctx context.Context, testType string) ([]string, error)
}
