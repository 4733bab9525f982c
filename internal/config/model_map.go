package config

import "strings"

// Resolution describes how a public model id was resolved.
type Resolution int

const (
	// ResolutionMapped means the id had an entry in the table.
	ResolutionMapped Resolution = iota
	// ResolutionNative means the id already looks Bedrock-native and was
	// passed through unchanged.
	ResolutionNative
	// ResolutionUnknown means no mapping exists; the id is passed through
	// unchanged and the caller should log it. The mapper translates, it does
	// not validate.
	ResolutionUnknown
)

// DefaultModelTable returns the built-in public-model to backend-model table.
// Deployments override or extend it in the config file.
func DefaultModelTable() map[string]string {
	return map[string]string{
		"claude-3-5-haiku-20241022":  "anthropic.claude-3-5-haiku-20241022-v1:0",
		"claude-3-5-sonnet-20241022": "anthropic.claude-3-5-sonnet-20241022-v2:0",
		"claude-3-7-sonnet-20250219": "anthropic.claude-3-7-sonnet-20250219-v1:0",
		"claude-sonnet-4-20250514":   "anthropic.claude-sonnet-4-20250514-v1:0",
		"claude-opus-4-20250514":     "anthropic.claude-opus-4-20250514-v1:0",
	}
}

// Mapper resolves public model ids to Bedrock backend ids. It is an
// immutable snapshot; the config watcher swaps in a fresh one on reload, so
// a Mapper is never mutated after construction and is safe to share.
type Mapper struct {
	table   map[string]string
	profile string
}

// NewMapper copies the table so later config edits cannot leak in.
func NewMapper(table map[string]string, inferenceProfile string) *Mapper {
	m := &Mapper{
		table:   make(map[string]string, len(table)),
		profile: inferenceProfile,
	}
	for k, v := range table {
		m.table[k] = v
	}
	return m
}

// Resolve maps one public model id. Exact table hits win; ids that already
// look backend-native pass through; everything else passes through flagged
// unknown.
func (m *Mapper) Resolve(model string) (string, Resolution) {
	if backend, ok := m.table[model]; ok {
		if m.profile != "" {
			backend = m.profile + backend
		}
		return backend, ResolutionMapped
	}
	if strings.Contains(model, ".anthropic.") || strings.HasPrefix(model, "anthropic.") {
		return model, ResolutionNative
	}
	return model, ResolutionUnknown
}
