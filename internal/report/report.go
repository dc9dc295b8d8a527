package report

import (
	"context"
	"fmt"

	"github.com/hargabyte/capreport/internal/config"
	"github.com/hargabyte/capreport/internal/platform"
)

// Assembler generates the rows for one report definition.
type Assembler interface {
	Apply(ctx context.Context) ([]Row, error)
}

// New builds the assembler matching the definition's report kind.
func New(conn platform.Connection, def *config.Report) (Assembler, error) {
	kind, err := def.Kind()
	if err != nil {
		return nil, err
	}

	switch kind {
	case config.ReportCluster, config.ReportGroup:
		return NewGroupReport(conn, def)
	case config.ReportActions:
		return NewActionReport(conn, def)
	case config.ReportTargets:
		return NewTargetReport(conn, def)
	}
	return nil, fmt.Errorf("no assembler for report kind %q", kind)
}
