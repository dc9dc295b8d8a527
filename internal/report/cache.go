package report

import "github.com/hargabyte/capreport/internal/platform"

// passCache memoizes platform retrievals for one assembly pass. Its
// lifetime is a single Apply call; a fresh pass always starts with a
// fresh cache so reports never see stale data across runs. The
// invariant it protects: the same stats batch is never requested twice
// for the same group within one pass.
type passCache struct {
	property map[string]platform.Record
	template map[string]platform.Record
	// templateTried marks groups whose template lookup already ran, so
	// a template the platform doesn't have is only fetched (and warned
	// about) once per pass.
	templateTried map[string]bool
	stats         map[string]map[string][]platform.Record
}

func newPassCache() *passCache {
	return &passCache{
		property:      make(map[string]platform.Record),
		template:      make(map[string]platform.Record),
		templateTried: make(map[string]bool),
		stats:         make(map[string]map[string][]platform.Record),
	}
}

func (c *passCache) statsFor(group, relatedType string) ([]platform.Record, bool) {
	byType, ok := c.stats[group]
	if !ok {
		return nil, false
	}
	recs, ok := byType[relatedType]
	return recs, ok
}

func (c *passCache) putStats(group, relatedType string, recs []platform.Record) {
	if c.stats[group] == nil {
		c.stats[group] = make(map[string][]platform.Record)
	}
	c.stats[group][relatedType] = recs
}
