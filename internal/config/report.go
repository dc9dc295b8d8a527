package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hargabyte/capreport/internal/field"
	"github.com/hargabyte/capreport/internal/scope"
)

// ErrInvalidReport is returned when a report definition fails
// validation.
var ErrInvalidReport = errors.New("invalid report definition")

// ReportKind selects which assembler a definition drives.
type ReportKind string

const (
	// ReportCluster aggregates stats over every cluster (or the named
	// ones) in the market.
	ReportCluster ReportKind = "cluster"

	// ReportGroup aggregates stats over named entity groups.
	ReportGroup ReportKind = "group"

	// ReportActions produces one row per recommended action in scope.
	ReportActions ReportKind = "actions"

	// ReportTargets produces one row per configured target.
	ReportTargets ReportKind = "targets"
)

// GroupsConfig scopes a grouped report. Type is "cluster" or "group";
// with no names a cluster report enumerates every cluster in the
// market. StopOnError overrides the report-level setting when set.
type GroupsConfig struct {
	Type        string   `yaml:"type"`
	Names       []string `yaml:"names,omitempty"`
	StopOnError *bool    `yaml:"stop_on_error,omitempty"`
}

// Report is one report definition file.
type Report struct {
	Name        string             `yaml:"name,omitempty"`
	Type        string             `yaml:"type"`
	Fields      []field.Config     `yaml:"fields"`
	Groups      *GroupsConfig      `yaml:"groups,omitempty"`
	Scopes      []scope.Descriptor `yaml:"scopes,omitempty"`
	Filters     map[string]any     `yaml:"filters,omitempty"`
	SortBy      []string           `yaml:"sortby,omitempty"`
	StopOnError bool               `yaml:"stop_on_error,omitempty"`
	Format      string             `yaml:"format,omitempty"`
}

// Kind returns the validated report kind.
func (r *Report) Kind() (ReportKind, error) {
	switch ReportKind(strings.ToLower(strings.TrimSpace(r.Type))) {
	case ReportCluster:
		return ReportCluster, nil
	case ReportGroup:
		return ReportGroup, nil
	case ReportActions:
		return ReportActions, nil
	case ReportTargets:
		return ReportTargets, nil
	default:
		return "", fmt.Errorf("%w: unknown report type %q", ErrInvalidReport, r.Type)
	}
}

// LoadReport reads and validates a report definition file.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report definition: %w", err)
	}

	r := &Report{}
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("parsing report definition: %w", err)
	}

	if err := ValidateReport(r); err != nil {
		return nil, err
	}
	return r, nil
}

// ValidateReport checks structural validity: at least one field,
// unique field ids, known field and report kinds, and sort keys that
// reference declared fields.
func ValidateReport(r *Report) error {
	kind, err := r.Kind()
	if err != nil {
		return err
	}

	if len(r.Fields) == 0 {
		return fmt.Errorf("%w: no fields declared", ErrInvalidReport)
	}

	seen := make(map[string]bool, len(r.Fields))
	for _, fc := range r.Fields {
		if fc.ID == "" {
			return fmt.Errorf("%w: field is missing an id", ErrInvalidReport)
		}
		if seen[fc.ID] {
			return fmt.Errorf("%w: duplicate field id %q", ErrInvalidReport, fc.ID)
		}
		seen[fc.ID] = true

		if _, err := field.New(fc); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidReport, err)
		}
	}

	for _, key := range r.SortBy {
		id := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(key), "-"))
		if !seen[id] {
			return fmt.Errorf("%w: sortby key %q does not match any field id", ErrInvalidReport, key)
		}
	}

	switch kind {
	case ReportCluster, ReportGroup:
		if r.Groups == nil {
			r.Groups = &GroupsConfig{Type: string(kind)}
		}
		gt := strings.ToLower(r.Groups.Type)
		if gt != "cluster" && gt != "group" {
			return fmt.Errorf("%w: groups.type must be cluster or group, got %q", ErrInvalidReport, r.Groups.Type)
		}
	case ReportActions:
		for _, s := range r.Scopes {
			if s.ID == "" {
				return fmt.Errorf("%w: scope entry is missing an id", ErrInvalidReport)
			}
		}
	}

	return nil
}

// BuildFields materializes the validated field definitions in declared
// order.
func (r *Report) BuildFields() ([]*field.Field, error) {
	fields := make([]*field.Field, 0, len(r.Fields))
	for _, fc := range r.Fields {
		f, err := field.New(fc)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}
