// Package normalize maps free-text team name variants from each source to
// canonical team identifiers. Unnormalized names would corrupt the natural
// key and fragment a team's history into duplicates, so a miss is an error,
// never a pass-through.
package normalize

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// UnknownTeamError reports a raw name no alias table could resolve. The
// ingestion driver catches it, records the name for alias curation and skips
// the record.
type UnknownTeamError struct {
	Source  string
	RawName string
}

func (e *UnknownTeamError) Error() string {
	return fmt.Sprintf("unknown team %q from source %q", e.RawName, e.Source)
}

// AnySource is the alias-table key for aliases that apply regardless of which
// source produced the raw name.
const AnySource = "*"

// Config is the immutable normalization table a Normalizer is built from.
// Tests supply isolated fixtures; production wiring seeds it from the live
// dataset's team names plus an optional aliases file.
type Config struct {
	// Known maps a cleaned, case-folded name to its canonical spelling.
	Known map[string]string

	// Aliases maps source id -> cleaned raw name -> canonical name. The
	// AnySource key holds source-independent aliases.
	Aliases map[string]map[string]string

	// AllowUnknown admits cleaned names verbatim instead of failing.
	// Bootstrap mode for a first run against an empty dataset.
	AllowUnknown bool
}

// NewConfig builds a Config from canonical team names and raw alias tables,
// case-folding all lookup keys. Alias targets are added to the known set so a
// canonical name is always resolvable under its own spelling.
func NewConfig(teams []string, aliases map[string]map[string]string, allowUnknown bool) Config {
	cfg := Config{
		Known:        make(map[string]string, len(teams)),
		Aliases:      make(map[string]map[string]string, len(aliases)),
		AllowUnknown: allowUnknown,
	}

	for _, name := range teams {
		cleaned := Clean(name)
		if cleaned == "" {
			continue
		}
		cfg.Known[strings.ToLower(cleaned)] = cleaned
	}

	for source, table := range aliases {
		m := make(map[string]string, len(table))
		for raw, canonical := range table {
			canonical = Clean(canonical)
			m[strings.ToLower(Clean(raw))] = canonical
			cfg.Known[strings.ToLower(canonical)] = canonical
		}
		cfg.Aliases[source] = m
	}

	return cfg
}

// Normalizer resolves raw team names against a fixed Config.
type Normalizer struct {
	cfg Config
}

func New(cfg Config) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// Normalize resolves a raw team name from a source to its canonical
// identifier. Lookup order: source-scoped alias, any-source alias, known
// canonical name. A miss fails with *UnknownTeamError.
func (n *Normalizer) Normalize(rawName, source string) (string, error) {
	cleaned := Clean(rawName)
	key := strings.ToLower(cleaned)

	if table, ok := n.cfg.Aliases[source]; ok {
		if canonical, ok := table[key]; ok {
			return canonical, nil
		}
	}
	if canonical, ok := n.cfg.Aliases[AnySource][key]; ok {
		return canonical, nil
	}
	if canonical, ok := n.cfg.Known[key]; ok {
		return canonical, nil
	}

	if n.cfg.AllowUnknown && cleaned != "" {
		return cleaned, nil
	}

	return "", &UnknownTeamError{Source: source, RawName: rawName}
}

// Clean collapses runs of whitespace and trims the result. Canonical
// spelling is otherwise preserved.
func Clean(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// aliasFile is the on-disk curation format: a list of canonical team names
// plus per-source alias tables.
type aliasFile struct {
	Teams   []string                     `json:"teams"`
	Aliases map[string]map[string]string `json:"aliases"`
}

// LoadAliasFile reads a curated alias table from a JSON file. A missing path
// yields empty tables rather than an error so a fresh checkout still runs.
func LoadAliasFile(path string) ([]string, map[string]map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("reading alias file: %w", err)
	}

	var f aliasFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parsing alias file %s: %w", path, err)
	}

	return f.Teams, f.Aliases, nil
}
