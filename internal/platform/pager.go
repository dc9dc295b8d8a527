package platform

import (
	"context"
	"net/url"
)

// restPager walks a cursor-paginated endpoint. The platform returns
// the next page's cursor in a response header; an empty cursor marks
// the final page.
type restPager struct {
	client *Client
	method string
	path   string
	query  url.Values
	body   any

	cursor  string
	started bool
	done    bool
}

func (p *restPager) Complete() bool {
	return p.done
}

func (p *restPager) Next(ctx context.Context) ([]Record, error) {
	if p.done {
		return nil, nil
	}

	q := url.Values{}
	for k, vs := range p.query {
		q[k] = vs
	}
	if p.started && p.cursor != "" {
		q.Set("cursor", p.cursor)
	}

	var page []Record
	cursor, err := p.client.do(ctx, p.method, p.path, q, p.body, &page)
	if err != nil {
		p.done = true
		return nil, err
	}

	p.started = true
	p.cursor = cursor
	if cursor == "" {
		p.done = true
	}
	return page, nil
}
