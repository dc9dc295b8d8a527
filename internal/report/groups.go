// Package report assembles tabular reports from platform data: entity
// properties, commodity stats, capacity template resources, and
// computed fields, resolved per scope entity and projected into
// labeled, ordered output rows.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/hargabyte/capreport/internal/config"
	"github.com/hargabyte/capreport/internal/expr"
	"github.com/hargabyte/capreport/internal/field"
	"github.com/hargabyte/capreport/internal/logging"
	"github.com/hargabyte/capreport/internal/platform"
)

// Groups resolves the entity id list a grouped report iterates. All
// groups in one report are of the same type, cluster or group.
type Groups struct {
	Type string
	IDs  []string
}

// ResolveGroups materializes the group id list: named groups are
// looked up by display name, and a cluster report with no names
// enumerates every cluster in the market.
func ResolveGroups(ctx context.Context, conn platform.Connection, cfg *config.GroupsConfig, stopOnError bool) (*Groups, error) {
	gtype := strings.ToLower(cfg.Type)
	if cfg.StopOnError != nil {
		stopOnError = *cfg.StopOnError
	}

	g := &Groups{Type: gtype}

	var searchType string
	switch gtype {
	case "cluster":
		searchType = "Cluster"
	case "group":
		searchType = "Group"
	default:
		return nil, fmt.Errorf("unknown group type %q", cfg.Type)
	}

	if len(cfg.Names) > 0 {
		for _, name := range cfg.Names {
			recs, err := conn.Search(ctx, platform.SearchRequest{Query: name, Types: []string{searchType}})
			if err == nil && len(recs) == 0 {
				err = fmt.Errorf("unable to locate %q", name)
			}
			if err != nil {
				if stopOnError {
					return nil, fmt.Errorf("resolve group %q: %w", name, err)
				}
				logging.Warn("skipping unresolved group", "name", name, "error", err)
				continue
			}
			g.IDs = append(g.IDs, cast.ToString(recs[0]["uuid"]))
		}
		return g, nil
	}

	if gtype != "cluster" {
		return nil, errors.New("group reports require explicit group names")
	}

	pager := conn.SearchPaged(ctx, platform.SearchRequest{
		Scopes: []string{"Market"},
		Types:  []string{"Cluster"},
	})
	recs, err := platform.Collect(ctx, pager)
	if err != nil {
		return nil, fmt.Errorf("enumerate clusters: %w", err)
	}
	for _, rec := range recs {
		g.IDs = append(g.IDs, cast.ToString(rec["uuid"]))
	}
	return g, nil
}

// GroupReport aggregates properties, commodity stats, template
// resources, and computed fields over a set of groups or clusters.
type GroupReport struct {
	conn        platform.Connection
	fields      []*field.Field
	groupsCfg   *config.GroupsConfig
	sortBy      []string
	stopOnError bool
}

// NewGroupReport builds the assembler for a cluster or group report
// definition.
func NewGroupReport(conn platform.Connection, def *config.Report) (*GroupReport, error) {
	fields, err := def.BuildFields()
	if err != nil {
		return nil, err
	}

	groups := def.Groups
	if groups == nil {
		groups = &config.GroupsConfig{Type: def.Type}
	}

	return &GroupReport{
		conn:        conn,
		fields:      fields,
		groupsCfg:   groups,
		sortBy:      def.SortBy,
		stopOnError: def.StopOnError,
	}, nil
}

// Apply resolves the group scope and generates the report rows. Field
// resolution is strictly staged per group: literals, properties,
// commodities batched per related entity type, template resources,
// then computed fields over the accumulated row. Per-group retrieval
// failures are logged and leave a partial row unless stop-on-error is
// set; sandbox violations in computed fields always abort.
func (r *GroupReport) Apply(ctx context.Context) ([]Row, error) {
	groups, err := ResolveGroups(ctx, r.conn, r.groupsCfg, r.stopOnError)
	if err != nil {
		return nil, err
	}

	cache := newPassCache()
	rows := make([]map[string]any, 0, len(groups.IDs))

	for _, g := range groups.IDs {
		row := map[string]any{"_id": g}

		r.gatherStrings(row)

		if err := r.gatherProperties(ctx, cache, g, row); err != nil {
			if r.stopOnError {
				return nil, fmt.Errorf("group %s: %w", g, err)
			}
			logging.Error("property retrieval failed", "group", g, "error", err)
		}

		for _, relatedType := range commodityTypes {
			if err := r.gatherCommodities(ctx, cache, g, relatedType, row); err != nil {
				if r.stopOnError {
					return nil, fmt.Errorf("group %s: %w", g, err)
				}
				logging.Error("stats retrieval failed", "group", g, "related_type", relatedType, "error", err)
			}
		}

		for _, category := range templateCategories {
			if err := r.gatherTemplates(ctx, cache, g, category, row); err != nil {
				if r.stopOnError {
					return nil, fmt.Errorf("group %s: %w", g, err)
				}
				logging.Error("template retrieval failed", "group", g, "category", category, "error", err)
			}
		}

		if err := computeFields(r.fields, row); err != nil {
			return nil, fmt.Errorf("group %s: %w", g, err)
		}

		gapFill(r.fields, row)
		rows = append(rows, row)
	}

	return projectAll(r.fields, rows, r.sortBy), nil
}

func (r *GroupReport) gatherStrings(row map[string]any) {
	for _, f := range r.fields {
		if f.Kind == field.KindString {
			row[f.ID] = f.Value
		}
	}
}

func (r *GroupReport) property(ctx context.Context, cache *passCache, group string) (platform.Record, error) {
	if rec, ok := cache.property[group]; ok {
		return rec, nil
	}

	recs, err := r.conn.Search(ctx, platform.SearchRequest{UUID: group})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: no entity for uuid %s", field.ErrLookup, group)
	}

	cache.property[group] = recs[0]
	return recs[0], nil
}

func (r *GroupReport) gatherProperties(ctx context.Context, cache *passCache, group string, row map[string]any) error {
	props := fieldsOfKind(r.fields, field.KindProperty)
	if len(props) == 0 {
		return nil
	}

	rec, err := r.property(ctx, cache, group)
	if err != nil {
		return err
	}

	for _, f := range props {
		v, err := f.Get(rec)
		if err != nil {
			logging.Debug("property path missing", "group", group, "field", f.ID, "path", f.Value)
			continue
		}
		row[f.ID] = normalize(v)
	}
	return nil
}

// gatherCommodities batches every commodity field of one related
// entity type into a single stats call, then rolls up observations of
// the same stat name by summation, so fan-in (many hosts feeding one
// cluster row) aggregates naturally. Cluster-level stats are requested
// without a related type and filtered to the current reporting epoch,
// discarding historical and projected observations.
func (r *GroupReport) gatherCommodities(ctx context.Context, cache *passCache, group, relatedType string, row map[string]any) error {
	catalog := commodityCatalog[relatedType]

	var matched []*field.Field
	statNames := make(map[string]bool)
	for _, f := range fieldsOfKind(r.fields, field.KindCommodity) {
		if inCatalog(catalog, f.Name) {
			matched = append(matched, f)
			statNames[f.Name] = true
		}
	}
	if len(matched) == 0 {
		return nil
	}

	currentOnly := false
	requestType := relatedType
	if relatedType == "Cluster" {
		requestType = ""
		currentOnly = true
	}

	recs, ok := cache.statsFor(group, relatedType)
	if !ok {
		names := make([]string, 0, len(statNames))
		for _, n := range catalog {
			if statNames[n] {
				names = append(names, n)
			}
		}

		pager := r.conn.GetEntityStats(ctx, platform.StatsRequest{
			Scope:       []string{group},
			Stats:       names,
			RelatedType: requestType,
		})

		var err error
		recs, err = platform.Collect(ctx, pager)
		if err != nil {
			return err
		}
		cache.putStats(group, relatedType, recs)
	}

	for _, rec := range recs {
		for _, snap := range asRecords(rec["stats"]) {
			if currentOnly && cast.ToString(snap["epoch"]) != "CURRENT" {
				continue
			}
			for _, stat := range asRecords(snap["statistics"]) {
				name := cast.ToString(stat["name"])
				for _, f := range matched {
					if f.Name != name {
						continue
					}
					raw, err := f.Get(stat)
					if err != nil {
						continue
					}
					v, err := cast.ToFloat64E(raw)
					if err != nil {
						continue
					}
					prev := cast.ToFloat64(row[f.ID])
					row[f.ID] = prev + v
				}
			}
		}
	}
	return nil
}

// gatherTemplates resolves capacity template resource fields for one
// resource category. Templates apply to cluster headroom planning; the
// template is located by the platform's generated name for the
// cluster's averaged usage.
func (r *GroupReport) gatherTemplates(ctx context.Context, cache *passCache, group, category string, row map[string]any) error {
	catalog := templateCatalog[category]

	var matched []*field.Field
	for _, f := range fieldsOfKind(r.fields, field.KindTemplate) {
		if inCatalog(catalog, f.Name) {
			matched = append(matched, f)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	prop, err := r.property(ctx, cache, group)
	if err != nil {
		return err
	}

	if !cache.templateTried[group] {
		cache.templateTried[group] = true

		target, err := field.TreeGet(prop, "source:displayName")
		if err != nil {
			return err
		}
		cluster := strings.ReplaceAll(cast.ToString(prop["displayName"]), `\`, "_")
		name := fmt.Sprintf("%s::AVG:%s for last 10 days", cast.ToString(target), cluster)

		tpl, err := r.conn.GetTemplateByName(ctx, name)
		if err != nil {
			return err
		}
		if tpl == nil {
			logging.Warn("missing template data", "template", name)
		} else {
			cache.template[group] = tpl
		}
	}

	tpl, ok := cache.template[group]
	if !ok {
		return nil
	}

	for _, res := range asRecords(tpl[category]) {
		for _, stat := range asRecords(res["stats"]) {
			name := cast.ToString(stat["name"])
			for _, f := range matched {
				if f.Name != name {
					continue
				}
				v, err := f.Get(stat)
				if err != nil {
					continue
				}
				row[f.ID] = normalize(v)
			}
		}
	}
	return nil
}

// computeFields evaluates computed fields in declared order, so a
// later computed field may reference an earlier one's materialized
// value. Missing references become nil cells; sandbox violations are
// fatal to the whole report, never converted to missing data.
func computeFields(fields []*field.Field, row map[string]any) error {
	for _, f := range fields {
		if f.Kind != field.KindComputed {
			continue
		}

		v, err := f.Compute(row)
		switch {
		case err == nil:
			row[f.ID] = v
		case errors.Is(err, field.ErrLookup):
			row[f.ID] = nil
		case errors.Is(err, expr.ErrSandbox), errors.Is(err, expr.ErrNameDenied):
			return fmt.Errorf("field %q: %w", f.ID, err)
		default:
			return fmt.Errorf("field %q: %w", f.ID, err)
		}
	}
	return nil
}

func fieldsOfKind(fields []*field.Field, kind field.Kind) []*field.Field {
	var out []*field.Field
	for _, f := range fields {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// asRecords coerces a decoded JSON list into records, tolerating both
// []any and pre-typed []Record shapes.
func asRecords(v any) []platform.Record {
	switch t := v.(type) {
	case []platform.Record:
		return t
	case []any:
		out := make([]platform.Record, 0, len(t))
		for _, item := range t {
			if rec, ok := item.(map[string]any); ok {
				out = append(out, rec)
			}
		}
		return out
	}
	return nil
}

// normalize coerces JSON numbers to float64 so sorting and computed
// substitution see one numeric type.
func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case float32:
		return float64(t)
	}
	return v
}
