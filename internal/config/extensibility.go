package config

import (
	"fmt"
	"regexp"
	"sort"

	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/inputfilter/internal/filter"
	"github.com/hupe1980/inputfilter/internal/validator"
)

// AliasConfig holds plugin aliases declared in a spec document:
//
//	aliases:
//	  filters:
//	    trim: string_trim
//	  validators:
//	    email: email_address
type AliasConfig struct {
	// Filters maps alias names to filter names.
	Filters map[string]string `json:"filters,omitempty"`

	// Validators maps alias names to validator names.
	Validators map[string]string `json:"validators,omitempty"`
}

// ParseAliasConfig parses the aliases section from raw document bytes. Other
// sections are ignored.
func ParseAliasConfig(data []byte) (*AliasConfig, error) {
	var raw struct {
		Aliases AliasConfig `json:"aliases,omitempty"`
	}

	if err := sigsyaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing aliases: %w", err)
	}

	cfg := raw.Aliases

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// aliasPattern restricts alias names to identifiers.
var aliasPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// Validate checks the alias names and targets.
func (c *AliasConfig) Validate() error {
	if err := validateAliases("filters", c.Filters); err != nil {
		return err
	}

	return validateAliases("validators", c.Validators)
}

func validateAliases(section string, aliases map[string]string) error {
	for _, alias := range sortedKeys(aliases) {
		target := aliases[alias]

		if !aliasPattern.MatchString(alias) {
			return fmt.Errorf("aliases.%s[%s]: alias is invalid (must match %s)", section, alias, aliasPattern.String())
		}

		if target == "" {
			return fmt.Errorf("aliases.%s[%s]: target must not be empty", section, alias)
		}

		if target == alias {
			return fmt.Errorf("aliases.%s[%s]: alias refers to itself", section, alias)
		}
	}

	return nil
}

// Merge copies the aliases of other into c, replacing existing entries.
func (c *AliasConfig) Merge(other *AliasConfig) {
	if other == nil {
		return
	}

	if len(other.Filters) > 0 && c.Filters == nil {
		c.Filters = make(map[string]string, len(other.Filters))
	}

	for k, v := range other.Filters {
		c.Filters[k] = v
	}

	if len(other.Validators) > 0 && c.Validators == nil {
		c.Validators = make(map[string]string, len(other.Validators))
	}

	for k, v := range other.Validators {
		c.Validators[k] = v
	}
}

// Apply registers the aliases on the given managers. Either manager may be
// nil.
func (c *AliasConfig) Apply(filters *filter.Manager, validators *validator.Manager) {
	if filters != nil {
		for _, alias := range sortedKeys(c.Filters) {
			filters.RegisterAlias(alias, c.Filters[alias])
		}
	}

	if validators != nil {
		for _, alias := range sortedKeys(c.Validators) {
			validators.RegisterAlias(alias, c.Validators[alias])
		}
	}
}

// IsEmpty returns true if no aliases are declared.
func (c *AliasConfig) IsEmpty() bool {
	return len(c.Filters) == 0 && len(c.Validators) == 0
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
