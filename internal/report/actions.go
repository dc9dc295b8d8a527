package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/hargabyte/capreport/internal/config"
	"github.com/hargabyte/capreport/internal/field"
	"github.com/hargabyte/capreport/internal/logging"
	"github.com/hargabyte/capreport/internal/platform"
	"github.com/hargabyte/capreport/internal/scope"
)

// defaultActionScope is used when a definition declares no scopes:
// the whole real-time market.
var defaultActionScope = scope.Descriptor{ID: "Market", Type: "market"}

// ActionReport produces one row per recommended action across the
// configured scopes.
type ActionReport struct {
	conn        platform.Connection
	fields      []*field.Field
	scopes      []scope.Descriptor
	filters     *scope.FilterSet
	sortBy      []string
	stopOnError bool
}

// NewActionReport builds the assembler for an actions report
// definition.
func NewActionReport(conn platform.Connection, def *config.Report) (*ActionReport, error) {
	fields, err := def.BuildFields()
	if err != nil {
		return nil, err
	}

	scopes := def.Scopes
	if len(scopes) == 0 {
		scopes = []scope.Descriptor{defaultActionScope}
	}

	var filters *scope.FilterSet
	if len(def.Filters) > 0 {
		filters = scope.NewFilterSet(def.Filters, nil)
	}

	return &ActionReport{
		conn:        conn,
		fields:      fields,
		scopes:      scopes,
		filters:     filters,
		sortBy:      def.SortBy,
		stopOnError: def.StopOnError,
	}, nil
}

// responseFilter narrows the action payload to the property paths the
// fields actually read, in the platform's dotted path form.
func (r *ActionReport) responseFilter() []string {
	var filter []string
	for _, f := range fieldsOfKind(r.fields, field.KindProperty) {
		filter = append(filter, strings.ReplaceAll(f.Value, ":", "."))
	}
	return filter
}

// Apply retrieves actions per scope and assembles the output rows.
func (r *ActionReport) Apply(ctx context.Context) ([]Row, error) {
	respFilter := r.responseFilter()
	rows := make([]map[string]any, 0)

	for _, desc := range r.scopes {
		actions, err := r.scopeActions(ctx, desc, respFilter)
		if err != nil {
			if r.stopOnError {
				return nil, fmt.Errorf("scope %s: %w", desc.ID, err)
			}
			logging.Error("action retrieval failed", "scope", desc.ID, "error", err)
			continue
		}

		for _, action := range actions {
			row := recordRow(r.fields, action)
			if err := computeFields(r.fields, row); err != nil {
				return nil, fmt.Errorf("scope %s: %w", desc.ID, err)
			}
			gapFill(r.fields, row)
			rows = append(rows, row)
		}
	}

	return projectAll(r.fields, rows, r.sortBy), nil
}

// scopeActions resolves one scope descriptor and pulls its actions,
// dispatching on the resolved scope kind.
func (r *ActionReport) scopeActions(ctx context.Context, desc scope.Descriptor, respFilter []string) ([]platform.Record, error) {
	s, err := scope.Resolve(ctx, r.conn, desc, r.stopOnError)
	if err != nil {
		return nil, err
	}

	filters := scope.NewFilterSet(desc.Filters, r.filters)

	req := platform.ActionsRequest{
		UUID:   s.UUID,
		Filter: respFilter,
	}
	if len(filters.Values) > 0 {
		req.Body = filters.Values
	}

	var pager platform.Pager
	switch s.Type {
	case scope.TypeMarket:
		pager = r.conn.GetActions(ctx, req)
	case scope.TypeEntity:
		pager = r.conn.GetEntityActions(ctx, req)
	case scope.TypeGroup:
		pager = r.conn.GetGroupActions(ctx, req)
	case scope.TypeTarget:
		pager = r.conn.GetTargetActions(ctx, req)
	case scope.TypeUnresolved:
		logging.Warn("skipping unresolved scope", "scope", desc.ID)
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown scope type %q for action data", s.Type)
	}

	return platform.Collect(ctx, pager)
}

// recordRow resolves string and property fields against one raw
// record. Missing property paths leave the cell unset for gap fill.
func recordRow(fields []*field.Field, rec platform.Record) map[string]any {
	row := make(map[string]any)

	for _, f := range fields {
		switch f.Kind {
		case field.KindString:
			row[f.ID] = f.Value
		case field.KindProperty:
			v, err := f.Get(rec)
			if err != nil {
				logging.Debug("property path missing", "field", f.ID, "path", f.Value)
				continue
			}
			row[f.ID] = normalize(v)
		}
	}
	return row
}
