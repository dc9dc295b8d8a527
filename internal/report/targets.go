package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/hargabyte/capreport/internal/config"
	"github.com/hargabyte/capreport/internal/field"
	"github.com/hargabyte/capreport/internal/logging"
	"github.com/hargabyte/capreport/internal/platform"
)

// TargetReport produces one row per configured platform target.
type TargetReport struct {
	conn        platform.Connection
	fields      []*field.Field
	sortBy      []string
	stopOnError bool
}

// NewTargetReport builds the assembler for a targets report
// definition.
func NewTargetReport(conn platform.Connection, def *config.Report) (*TargetReport, error) {
	fields, err := def.BuildFields()
	if err != nil {
		return nil, err
	}

	return &TargetReport{
		conn:        conn,
		fields:      fields,
		sortBy:      def.SortBy,
		stopOnError: def.StopOnError,
	}, nil
}

// Apply enumerates targets and assembles the output rows.
func (r *TargetReport) Apply(ctx context.Context) ([]Row, error) {
	var respFilter []string
	for _, f := range fieldsOfKind(r.fields, field.KindProperty) {
		respFilter = append(respFilter, strings.ReplaceAll(f.Value, ":", "."))
	}

	targets, err := platform.Collect(ctx, r.conn.GetTargets(ctx, respFilter))
	if err != nil {
		if r.stopOnError {
			return nil, fmt.Errorf("retrieve targets: %w", err)
		}
		logging.Error("target retrieval incomplete", "error", err)
	}

	rows := make([]map[string]any, 0, len(targets))
	for _, target := range targets {
		row := recordRow(r.fields, target)
		if err := computeFields(r.fields, row); err != nil {
			return nil, err
		}
		gapFill(r.fields, row)
		rows = append(rows, row)
	}

	return projectAll(r.fields, rows, r.sortBy), nil
}
