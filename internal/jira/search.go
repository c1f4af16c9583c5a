package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"
)

// searchPageSize is the page size used when walking a full result set.
const searchPageSize = 50

// Search runs a JQL query and returns matching issues in server order.
// max bounds the result count; max <= 0 fetches every match, paginating as
// needed.
func (c *Client) Search(ctx context.Context, jql string, max int) ([]*Issue, error) {
	var issues []*Issue

	startAt := 0
	for {
		pageSize := searchPageSize
		if max > 0 && max-len(issues) < pageSize {
			pageSize = max - len(issues)
		}

		query := url.Values{
			"jql":        {jql},
			"startAt":    {strconv.Itoa(startAt)},
			"maxResults": {strconv.Itoa(pageSize)},
		}
		data, err := c.do(ctx, http.MethodGet, "/rest/api/2/search", query, nil)
		if err != nil {
			return nil, fmt.Errorf("searching %q: %w", jql, err)
		}

		page := gjson.GetBytes(data, "issues").Array()
		for _, r := range page {
			issues = append(issues, ParseIssue(r.Raw))
		}
		total := int(gjson.GetBytes(data, "total").Int())

		if max > 0 && len(issues) >= max {
			return issues[:max], nil
		}
		if len(page) == 0 || len(issues) >= total {
			return issues, nil
		}
		startAt = len(issues)
	}
}
