package catalog

import (
	"context"
	"sort"
	"sync"
)

type partition struct{ testType, lang string }

// memoryStore is the offline/test Store. Same contract as SQLStore, no
// database needed.
type memoryStore struct {
	mu         sync.RWMutex
	questions  map[partition][]Question
	profiles   map[partition][]Profile
	thresholds map[partition][]ThresholdRule
}

func NewInMemoryStore() Store {
	return &memoryStore{
		questions:  map[partition][]Question{},
		profiles:   map[partition][]Profile{},
		thresholds: map[partition][]ThresholdRule{},
	}
}

func (m *memoryStore) LoadQuestions(_ context.Context, testType, lang string) (map[string]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	qs, ok := m.questions[partition{testType, lang}]
	if !ok {
		return nil, nil
	}
	out := make(map[string]Question, len(qs))
	for _, q := range qs {
		out[q.ID] = q
	}
	return out, nil
}

func (m *memoryStore) ListQuestions(_ context.Context, testType, lang string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	qs, ok := m.questions[partition{testType, lang}]
	if !ok {
		return nil, nil
	}
	out := make([]Question, len(qs))
	copy(out, qs)
	return out, nil
}

func (m *memoryStore) LoadProfiles(_ context.Context, testType, lang string) map[string]Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[string]Profile{}
	for _, p := range m.profiles[partition{testType, lang}] {
		out[p.Code] = p
	}
	return out
}

func (m *memoryStore) LoadThresholds(_ context.Context, testType, lang string) []ThresholdRule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rules := m.thresholds[partition{testType, lang}]
	out := make([]ThresholdRule, len(rules))
	copy(out, rules)
	return out
}

func (m *memoryStore) PutQuestions(_ context.Context, testType, lang string, qs []Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]Question, 0, len(qs))
	for _, q := range qs {
		if q.Params.Mode == "" {
			q.Params.Mode = q.Mode
		}
		q.Mode = CanonicalMode(q.Params.Mode)
		if q.ID == "" || q.Mode == "" {
			continue
		}
		stored = append(stored, q)
	}
	m.questions[partition{testType, lang}] = stored
	return nil
}

func (m *memoryStore) PutProfiles(_ context.Context, testType, lang string, ps []Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[partition{testType, lang}] = append([]Profile(nil), ps...)
	return nil
}

func (m *memoryStore) PutThresholds(_ context.Context, testType, lang string, rules []ThresholdRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.thresholds[partition{testType, lang}] = append([]ThresholdRule(nil), rules...)
	return nil
}

func (m *memoryStore) Languages(_ context.Context, testType string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for part := range m.questions {
		if part.testType == testType {
			out = append(out, part.lang)
		}
	}
	sort.Strings(out)
	return out, nil
}
