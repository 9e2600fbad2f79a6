package jira

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

// DefaultPageSize is the page size requested from paginated endpoints.
const DefaultPageSize = 100

// Pager drives one pagination protocol. A Pager is single-use: FetchAll
// calls Params before every request and Advance after every response.
type Pager interface {
	// Params adds the paging parameters for the next request to q.
	Params(q url.Values)
	// Advance consumes one decoded page and reports whether another
	// request is needed. The returned items are appended in order.
	Advance(page gjson.Result) (items []gjson.Result, more bool, warning string)
}

// OffsetPager pages with startAt/maxResults against a declared total.
type OffsetPager struct {
	ItemsKey string
	PageSize int

	fetched int
	total   int
	latched bool
}

func (p *OffsetPager) Params(q url.Values) {
	q.Set("startAt", strconv.Itoa(p.fetched))
	q.Set("maxResults", strconv.Itoa(pageSize(p.PageSize)))
}

func (p *OffsetPager) Advance(page gjson.Result) ([]gjson.Result, bool, string) {
	items := page.Get(p.ItemsKey).Array()
	if !p.latched {
		p.latched = true
		if t := page.Get("total"); t.Exists() {
			p.total = int(t.Int())
		} else {
			p.total = len(items)
		}
	}

	if len(items) == 0 {
		if p.fetched < p.total {
			return nil, false, fmt.Sprintf("got an empty page after %d of %d declared results, keeping partial results", p.fetched, p.total)
		}
		return nil, false, ""
	}

	p.fetched += len(items)
	return items, p.fetched < p.total, ""
}

// Total is the total declared by the first page.
func (p *OffsetPager) Total() int { return p.total }

// CursorPager pages with an opaque nextPageToken. There is no total.
type CursorPager struct {
	ItemsKey string
	PageSize int

	token string
}

func (p *CursorPager) Params(q url.Values) {
	q.Set("maxResults", strconv.Itoa(pageSize(p.PageSize)))
	if p.token != "" {
		q.Set("nextPageToken", p.token)
	} else {
		q.Del("nextPageToken")
	}
}

func (p *CursorPager) Advance(page gjson.Result) ([]gjson.Result, bool, string) {
	items := page.Get(p.ItemsKey).Array()
	p.token = page.Get("nextPageToken").String()
	return items, p.token != "" && len(items) > 0, ""
}

func pageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	return n
}

// Collection is a fully drained result set.
type Collection struct {
	Items    []gjson.Result
	Requests int
	Warnings []string
}

// PageFunc is called after every page with the running item count.
type PageFunc func(fetched int)

// FetchAll drains endpoint with pager. Any request failure aborts the whole
// call; no partial collection is returned alongside an error.
func (c *Client) FetchAll(ctx context.Context, endpoint string, params url.Values, pager Pager, onPage PageFunc) (*Collection, error) {
	col := &Collection{Items: []gjson.Result{}}
	for {
		q := url.Values{}
		for k, v := range params {
			q[k] = append([]string(nil), v...)
		}
		pager.Params(q)

		body, err := c.Get(ctx, endpoint, q)
		col.Requests++
		if err != nil {
			return nil, err
		}
		if !gjson.ValidBytes(body) {
			return nil, fmt.Errorf("invalid JSON from %s", endpoint)
		}

		items, more, warning := pager.Advance(gjson.ParseBytes(body))
		col.Items = append(col.Items, items...)
		if warning != "" {
			c.log.Warnf("%s: %s", endpoint, warning)
			col.Warnings = append(col.Warnings, warning)
		}
		if onPage != nil {
			onPage(len(col.Items))
		}
		if !more {
			return col, nil
		}
	}
}
