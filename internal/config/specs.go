package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Masterminds/semver/v3"

	"github.com/hupe1980/inputfilter/internal/inputfilter"
	"github.com/hupe1980/inputfilter/internal/maputil"
	"github.com/hupe1980/inputfilter/internal/version"
	"github.com/hupe1980/inputfilter/internal/yamlutil"
)

// SpecVersionConstraint is the range of spec document versions understood
// by this build.
const SpecVersionConstraint = version.SpecFormat

// Top-level keys of a spec document.
const (
	DocKeyVersion = "version"
	DocKeyAliases = "aliases"
	DocKeySpecs   = inputfilter.SpecsKey
)

var specVersions = mustConstraint(SpecVersionConstraint)

// SpecDocument is one YAML document of a spec file.
type SpecDocument struct {
	// Source names the file and document index, e.g. "signup.yaml#1".
	Source string

	// Version is the declared document version, or nil when absent.
	Version *semver.Version

	// Specs maps input filter names to their field specs in declaration
	// order.
	Specs *maputil.OrderedMap

	// Aliases are the plugin aliases declared by the document.
	Aliases *AliasConfig
}

// LoadSpecFiles reads and parses every document of every file in paths.
func LoadSpecFiles(paths ...string) ([]*SpecDocument, error) {
	var docs []*SpecDocument

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading spec file %q: %w", p, err)
		}

		fileDocs, err := ParseSpecDocuments(p, data)
		if err != nil {
			return nil, err
		}

		docs = append(docs, fileDocs...)
	}

	return docs, nil
}

// ParseSpecDocuments parses a possibly multi-document YAML stream. source is
// used in error messages.
func ParseSpecDocuments(source string, data []byte) ([]*SpecDocument, error) {
	raw := yamlutil.SplitDocuments(data)
	docs := make([]*SpecDocument, 0, len(raw))

	for i, part := range raw {
		name := fmt.Sprintf("%s#%d", source, i+1)

		doc, err := parseSpecDocument(name, part)
		if err != nil {
			return nil, err
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

func parseSpecDocument(source string, data []byte) (*SpecDocument, error) {
	v, err := yamlutil.DecodeOrdered(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	root, ok := v.(*maputil.OrderedMap)
	if !ok {
		return nil, fmt.Errorf("%s: document root must be a mapping", source)
	}

	doc := &SpecDocument{Source: source, Specs: maputil.NewOrderedMap()}

	for _, key := range root.Keys() {
		val, _ := root.Get(key)

		switch key {
		case DocKeyVersion:
			ver, err := parseVersion(val)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", source, err)
			}

			doc.Version = ver
		case DocKeySpecs:
			if val == nil {
				continue
			}

			specs, ok := val.(*maputil.OrderedMap)
			if !ok {
				return nil, fmt.Errorf("%s: %s must be a mapping of input filter names", source, DocKeySpecs)
			}

			doc.Specs = specs
		case DocKeyAliases:
		default:
			return nil, fmt.Errorf("%s: unknown top-level key %q (expected %s, %s or %s)",
				source, key, DocKeyVersion, DocKeySpecs, DocKeyAliases)
		}
	}

	aliases, err := ParseAliasConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	doc.Aliases = aliases

	return doc, nil
}

func parseVersion(v any) (*semver.Version, error) {
	s := fmt.Sprint(v)

	ver, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid spec version %q: %w", s, err)
	}

	if !specVersions.Check(ver) {
		return nil, fmt.Errorf("unsupported spec version %s (supported: %s)", ver, SpecVersionConstraint)
	}

	return ver, nil
}

// BuildRegistry merges the documents into the configuration registry read
// by inputfilter.AbstractServiceFactory. A later document replaces an input
// filter declared by an earlier one. The registry does not share nodes with
// docs.
func BuildRegistry(logger *slog.Logger, docs ...*SpecDocument) map[string]any {
	if logger == nil {
		logger = slog.Default()
	}

	merged := maputil.NewOrderedMap()
	origin := make(map[string]string)

	for _, doc := range docs {
		for _, name := range doc.Specs.Keys() {
			if prev, ok := origin[name]; ok {
				logger.Debug("input filter spec overridden",
					slog.String("name", name),
					slog.String("previous", prev),
					slog.String("source", doc.Source),
				)
			}

			v, _ := doc.Specs.Get(name)
			merged.Set(name, maputil.DeepCopyValue(v))
			origin[name] = doc.Source
		}
	}

	return map[string]any{DocKeySpecs: merged}
}

// MergeAliases combines the aliases of all documents, later documents
// winning.
func MergeAliases(docs ...*SpecDocument) *AliasConfig {
	out := &AliasConfig{}

	for _, doc := range docs {
		out.Merge(doc.Aliases)
	}

	return out
}

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}

	return c
}
