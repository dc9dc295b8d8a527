package report

import (
	"context"
	"strings"

	"github.com/hargabyte/capreport/internal/platform"
)

// slicePager serves fixed pages through the Pager contract.
type slicePager struct {
	pages [][]platform.Record
	pos   int
}

func pagerOf(pages ...[]platform.Record) *slicePager {
	return &slicePager{pages: pages}
}

func (p *slicePager) Complete() bool {
	return p.pos >= len(p.pages)
}

func (p *slicePager) Next(ctx context.Context) ([]platform.Record, error) {
	page := p.pages[p.pos]
	p.pos++
	return page, nil
}

// fakeConn is an in-memory platform connection for assembler tests.
type fakeConn struct {
	entities      map[string]platform.Record
	searchByQuery map[string][]platform.Record
	clusters      []platform.Record
	stats         map[string][]platform.Record
	templates     map[string]platform.Record
	actions       map[string][]platform.Record
	targets       []platform.Record

	groups  map[string]bool
	markets map[string]bool

	statsCalls    []string
	actionMethods []string
	actionReqs    []platform.ActionsRequest
}

func statsKey(group, relatedType string) string {
	return group + "|" + relatedType
}

func (f *fakeConn) Search(ctx context.Context, req platform.SearchRequest) ([]platform.Record, error) {
	if req.UUID != "" {
		if rec, ok := f.entities[req.UUID]; ok {
			return []platform.Record{rec}, nil
		}
		return nil, &platform.StatusError{Code: 404, URL: "/search/" + req.UUID}
	}
	return f.searchByQuery[req.Query], nil
}

func (f *fakeConn) SearchPaged(ctx context.Context, req platform.SearchRequest) platform.Pager {
	if len(req.Types) == 1 && req.Types[0] == "Cluster" {
		return pagerOf(f.clusters)
	}
	return pagerOf()
}

func (f *fakeConn) GetEntityStats(ctx context.Context, req platform.StatsRequest) platform.Pager {
	key := statsKey(strings.Join(req.Scope, ","), req.RelatedType)
	f.statsCalls = append(f.statsCalls, key)
	if recs, ok := f.stats[key]; ok {
		return pagerOf(recs)
	}
	return pagerOf()
}

func (f *fakeConn) GetTemplateByName(ctx context.Context, name string) (platform.Record, error) {
	return f.templates[name], nil
}

func (f *fakeConn) actionPager(method string, req platform.ActionsRequest) platform.Pager {
	f.actionMethods = append(f.actionMethods, method)
	f.actionReqs = append(f.actionReqs, req)
	return pagerOf(f.actions[req.UUID])
}

func (f *fakeConn) GetActions(ctx context.Context, req platform.ActionsRequest) platform.Pager {
	return f.actionPager("market", req)
}

func (f *fakeConn) GetEntityActions(ctx context.Context, req platform.ActionsRequest) platform.Pager {
	return f.actionPager("entity", req)
}

func (f *fakeConn) GetGroupActions(ctx context.Context, req platform.ActionsRequest) platform.Pager {
	return f.actionPager("group", req)
}

func (f *fakeConn) GetTargetActions(ctx context.Context, req platform.ActionsRequest) platform.Pager {
	return f.actionPager("target", req)
}

func (f *fakeConn) GetTargets(ctx context.Context, filter []string) platform.Pager {
	return pagerOf(f.targets)
}

func (f *fakeConn) GetMarket(ctx context.Context, uuid string) (platform.Record, error) {
	if f.markets[uuid] {
		return platform.Record{"uuid": uuid}, nil
	}
	return nil, &platform.StatusError{Code: 400, URL: "/markets/" + uuid}
}

func (f *fakeConn) GetEntity(ctx context.Context, uuid string) (platform.Record, error) {
	if _, ok := f.entities[uuid]; ok {
		return platform.Record{"uuid": uuid}, nil
	}
	return nil, &platform.StatusError{Code: 400, URL: "/entities/" + uuid}
}

func (f *fakeConn) GetGroup(ctx context.Context, uuid string) (platform.Record, error) {
	if f.groups[uuid] {
		return platform.Record{"uuid": uuid}, nil
	}
	return nil, &platform.StatusError{Code: 400, URL: "/groups/" + uuid}
}

func (f *fakeConn) GetTarget(ctx context.Context, uuid string) (platform.Record, error) {
	return nil, &platform.StatusError{Code: 400, URL: "/targets/" + uuid}
}
