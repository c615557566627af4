package mods

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

const (
	DefaultEntry   = "main.lua"
	DefaultVersion = "1.0.0"
)

// ManifestFiles are the manifest names looked up in a mod directory, in order.
var ManifestFiles = []string{"mod.json", "mod.yaml", "mod.yml"}

var ErrInvalidManifest = errors.New("invalid manifest")

const manifestSchemaURL = "mem://orderstone/mod-manifest.json"

const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id"],
  "properties": {
    "id": {"type": "string", "pattern": "^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$"},
    "name": {"type": "string", "maxLength": 128},
    "version": {"type": "string", "pattern": "^v?[0-9]+(\\.[0-9]+){0,2}([-+][0-9A-Za-z.-]+)?$"},
    "description": {"type": "string"},
    "author": {"type": "string"},
    "entry": {"type": "string", "minLength": 1},
    "dependencies": {
      "type": "object",
      "additionalProperties": {"type": "string", "minLength": 1}
    }
  }
}`

var manifestValidator = jsonschema.MustCompileString(manifestSchemaURL, manifestSchema)

// Manifest describes a mod package.
type Manifest struct {
	ID           string            `json:"id" yaml:"id"`
	Name         string            `json:"name,omitempty" yaml:"name,omitempty"`
	Version      string            `json:"version,omitempty" yaml:"version,omitempty"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	Author       string            `json:"author,omitempty" yaml:"author,omitempty"`
	Entry        string            `json:"entry,omitempty" yaml:"entry,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// DefaultManifest is used for a mod directory without a manifest file.
func DefaultManifest(dirName string) Manifest {
	return Manifest{
		ID:      dirName,
		Name:    dirName,
		Version: DefaultVersion,
		Entry:   DefaultEntry,
	}
}

func (m *Manifest) applyDefaults(dirName string) {
	if m.ID == "" {
		m.ID = dirName
	}
	if m.Name == "" {
		m.Name = m.ID
	}
	if m.Version == "" {
		m.Version = DefaultVersion
	}
	if m.Entry == "" {
		m.Entry = DefaultEntry
	}
}

// SemVer returns the canonical "vX.Y.Z" form of the manifest version.
func (m Manifest) SemVer() string {
	return canonicalVersion(m.Version)
}

// ReadManifest loads the manifest of the mod in dir. When no manifest file is
// present the default manifest is returned with found set to false.
func ReadManifest(dir string) (manifest Manifest, found bool, err error) {
	dirName := filepath.Base(dir)
	for _, name := range ManifestFiles {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Manifest{}, false, fmt.Errorf("failed to read %s: %v", path, err)
		}
		manifest, err := ParseManifest(data, filepath.Ext(name) != ".json")
		if err != nil {
			return Manifest{}, true, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		manifest.applyDefaults(dirName)
		return manifest, true, nil
	}
	return DefaultManifest(dirName), false, nil
}

// ParseManifest decodes and validates a manifest document. YAML documents are
// normalized to JSON before validation.
func ParseManifest(data []byte, isYAML bool) (Manifest, error) {
	if isYAML {
		var doc interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Manifest{}, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return Manifest{}, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
		}
		data = converted
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if err := manifestValidator.Validate(doc); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}

	manifest := Manifest{}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	for dep, constraint := range manifest.Dependencies {
		if _, err := parseConstraint(constraint); err != nil {
			return Manifest{}, fmt.Errorf("%w: dependency %s: %v", ErrInvalidManifest, dep, err)
		}
	}
	return manifest, nil
}

func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}

type constraintOp int

const (
	opExact constraintOp = iota
	opGTE
	opGT
	opLTE
	opLT
	opCaret
	opTilde
	opAny
)

type constraint struct {
	op      constraintOp
	version string
}

func parseConstraint(raw string) (constraint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "*" {
		return constraint{op: opAny}, nil
	}
	prefixes := []struct {
		prefix string
		op     constraintOp
	}{
		{">=", opGTE},
		{"<=", opLTE},
		{">", opGT},
		{"<", opLT},
		{"^", opCaret},
		{"~", opTilde},
		{"=", opExact},
	}
	op := opExact
	for _, p := range prefixes {
		if strings.HasPrefix(raw, p.prefix) {
			op = p.op
			raw = strings.TrimSpace(strings.TrimPrefix(raw, p.prefix))
			break
		}
	}
	v := canonicalVersion(raw)
	if v == "" {
		return constraint{}, fmt.Errorf("invalid version constraint %q", raw)
	}
	return constraint{op: op, version: v}, nil
}

func (c constraint) allows(version string) bool {
	if c.op == opAny {
		return true
	}
	v := canonicalVersion(version)
	if v == "" {
		return false
	}
	cmp := semver.Compare(v, c.version)
	switch c.op {
	case opGTE:
		return cmp >= 0
	case opGT:
		return cmp > 0
	case opLTE:
		return cmp <= 0
	case opLT:
		return cmp < 0
	case opCaret:
		// ^0.x pins the minor version, like npm
		if semver.Major(c.version) == "v0" {
			return cmp >= 0 && semver.MajorMinor(v) == semver.MajorMinor(c.version)
		}
		return cmp >= 0 && semver.Major(v) == semver.Major(c.version)
	case opTilde:
		return cmp >= 0 && semver.MajorMinor(v) == semver.MajorMinor(c.version)
	default:
		return cmp == 0
	}
}

// Satisfies reports whether version matches a dependency constraint such as
// ">=v1.0.0", "^1.2" or "1.4.0".
func Satisfies(version, rawConstraint string) bool {
	c, err := parseConstraint(rawConstraint)
	if err != nil {
		return false
	}
	return c.allows(version)
}

type candidate struct {
	manifest Manifest
	dir      string
}

type skipped struct {
	id     string
	dir    string
	reason error
}

// resolveOrder orders candidates so that dependencies come first, ties broken
// by id. Candidates with missing or unsatisfied dependencies, or that are part
// of a cycle, are returned as skipped.
func resolveOrder(candidates []candidate, available map[string]string) ([]candidate, []skipped) {
	byID := make(map[string]candidate, len(candidates))
	for _, c := range candidates {
		byID[c.manifest.ID] = c
	}

	var skips []skipped
	// Drop unsatisfiable mods until nothing changes, since dropping one can
	// orphan its dependents.
	for {
		changed := false
		ids := sortedKeys(byID)
		for _, id := range ids {
			c := byID[id]
			for _, dep := range sortedKeys(c.manifest.Dependencies) {
				want := c.manifest.Dependencies[dep]
				version, ok := available[dep]
				if depCandidate, pending := byID[dep]; pending {
					version, ok = depCandidate.manifest.Version, true
				} else if _, wasCandidate := findCandidate(candidates, dep); wasCandidate {
					ok = false
				}
				if !ok {
					skips = append(skips, skipped{id: id, dir: c.dir, reason: fmt.Errorf("missing dependency %s", dep)})
					delete(byID, id)
					changed = true
					break
				}
				if !Satisfies(version, want) {
					skips = append(skips, skipped{id: id, dir: c.dir, reason: fmt.Errorf("dependency %s %s does not satisfy %s", dep, version, want)})
					delete(byID, id)
					changed = true
					break
				}
			}
		}
		if !changed {
			break
		}
	}

	// Kahn's algorithm over the remaining candidates.
	indegree := make(map[string]int, len(byID))
	dependents := make(map[string][]string)
	for id, c := range byID {
		indegree[id] += 0
		for dep := range c.manifest.Dependencies {
			if _, ok := byID[dep]; ok {
				indegree[id]++
				dependents[dep] = append(dependents[dep], id)
			}
		}
	}

	var ready []string
	for id, n := range indegree {
		if n == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	ordered := make([]candidate, 0, len(byID))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		ordered = append(ordered, byID[id])
		for _, next := range dependents[id] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
			}
		}
		sort.Strings(ready)
		delete(indegree, id)
	}

	for _, id := range sortedKeys(indegree) {
		skips = append(skips, skipped{id: id, dir: byID[id].dir, reason: errors.New("dependency cycle")})
	}
	return ordered, skips
}

func findCandidate(candidates []candidate, id string) (candidate, bool) {
	for _, c := range candidates {
		if c.manifest.ID == id {
			return c, true
		}
	}
	return candidate{}, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
