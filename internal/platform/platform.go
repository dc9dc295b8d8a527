// Package platform defines the connection contract the report engine
// consumes and provides the REST client implementing it. The engine
// treats the platform as an opaque data source: entity search, stats
// retrieval, templates, actions, and targets, all returning loosely
// typed record trees.
package platform

import "context"

// Record is one raw response object from the platform API.
type Record = map[string]any

// Pager iterates a paginated result set. Callers loop Next until
// Complete reports true, concatenating pages.
type Pager interface {
	// Complete reports whether all pages have been consumed.
	Complete() bool

	// Next returns the next page of records.
	Next(ctx context.Context) ([]Record, error)
}

// SearchRequest narrows an entity search. Zero fields are omitted from
// the request.
type SearchRequest struct {
	UUID   string
	Query  string
	Scopes []string
	Types  []string
}

// StatsRequest identifies a batched stats retrieval for one scope.
type StatsRequest struct {
	Scope       []string
	Stats       []string
	RelatedType string
}

// ActionsRequest shapes an action retrieval call.
type ActionsRequest struct {
	UUID   string
	Filter []string
	Body   map[string]any
}

// Connection is the platform surface the report engine depends on.
type Connection interface {
	// Search returns entities matching the request in one shot.
	Search(ctx context.Context, req SearchRequest) ([]Record, error)

	// SearchPaged returns entities matching the request page by page.
	SearchPaged(ctx context.Context, req SearchRequest) Pager

	// GetEntityStats retrieves stat observations for a scope.
	GetEntityStats(ctx context.Context, req StatsRequest) Pager

	// GetTemplateByName returns the named template, or nil when the
	// platform has no template by that name.
	GetTemplateByName(ctx context.Context, name string) (Record, error)

	// GetActions retrieves market-wide actions.
	GetActions(ctx context.Context, req ActionsRequest) Pager

	// GetEntityActions retrieves actions for a single entity.
	GetEntityActions(ctx context.Context, req ActionsRequest) Pager

	// GetGroupActions retrieves actions for a group.
	GetGroupActions(ctx context.Context, req ActionsRequest) Pager

	// GetTargetActions retrieves actions for a target's entities.
	GetTargetActions(ctx context.Context, req ActionsRequest) Pager

	// GetTargets retrieves configured targets.
	GetTargets(ctx context.Context, filter []string) Pager

	// GetMarket, GetEntity, GetGroup, and GetTarget are existence
	// probes used for scope type resolution.
	GetMarket(ctx context.Context, uuid string) (Record, error)
	GetEntity(ctx context.Context, uuid string) (Record, error)
	GetGroup(ctx context.Context, uuid string) (Record, error)
	GetTarget(ctx context.Context, uuid string) (Record, error)
}

// Collect drains a pager into a single slice.
func Collect(ctx context.Context, p Pager) ([]Record, error) {
	var all []Record
	for !p.Complete() {
		page, err := p.Next(ctx)
		if err != nil {
			return all, err
		}
		all = append(all, page...)
	}
	return all, nil
}
