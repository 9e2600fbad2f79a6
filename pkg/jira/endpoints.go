package jira

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
)

// SearchIssues returns every issue matching jql, with changelog and
// rendered fields expanded.
func (c *Client) SearchIssues(ctx context.Context, jql string, onPage PageFunc) (*Collection, error) {
	params := url.Values{}
	params.Set("jql", jql)
	params.Set("expand", "changelog,renderedFields")
	params.Set("fields", "*all")
	return c.FetchAll(ctx, "search/jql", params, &CursorPager{ItemsKey: "issues"}, onPage)
}

// IssueComments returns all comments of one issue after waiting the
// configured request delay. Failures that only concern this issue are
// logged and yield an empty slice; authorization failures, exhausted rate
// limiting and cancellation are returned.
func (c *Client) IssueComments(ctx context.Context, key string) ([]gjson.Result, error) {
	if c.requestDelay > 0 {
		t := time.NewTimer(c.requestDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	col, err := c.FetchAll(ctx, "issue/"+url.PathEscape(key)+"/comment", nil, &OffsetPager{ItemsKey: "comments"}, nil)
	if err != nil {
		if IsFatal(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		c.log.Warnf("Could not fetch comments for %s: %v", key, err)
		return []gjson.Result{}, nil
	}
	return col.Items, nil
}

// Myself returns the authenticated account.
func (c *Client) Myself(ctx context.Context) (gjson.Result, error) {
	body, err := c.Get(ctx, "myself", nil)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.ParseBytes(body), nil
}

// Project is an accessible Jira project.
type Project struct {
	Key      string
	Name     string
	Archived bool
}

// Projects lists every project the account can see.
func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	col, err := c.FetchAll(ctx, "project/search", nil, &OffsetPager{ItemsKey: "values"}, nil)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	out := make([]Project, 0, len(col.Items))
	for _, p := range col.Items {
		out = append(out, Project{
			Key:      p.Get("key").String(),
			Name:     p.Get("name").String(),
			Archived: p.Get("archived").Bool(),
		})
	}
	return out, nil
}
