package wiki

import "context"

// IsValidPath is the bulk path check: every consecutive pair must be an exact,
// case-sensitive title match against the links of the earlier page. Any fetch
// failure makes the path invalid, and an empty path is never valid.
// The hop validator in package validate compares titles loosely instead.
func (c *Client) IsValidPath(ctx context.Context, titles []string) bool {
	if len(titles) == 0 {
		return false
	}
	for i := 0; i < len(titles)-1; i++ {
		links, err := c.PageLinks(ctx, c.URLForTitle(titles[i]))
		if err != nil {
			return false
		}
		found := false
		for _, l := range links {
			if l.Title == titles[i+1] {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
