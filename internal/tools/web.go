package tools

import (
	"context"
	"fmt"
	"strings"
)

func (e *Executor) webFetch(ctx context.Context, c *call) (string, error) {
	page, err := e.fetcher.Fetch(ctx, c.str("url"), seconds(c, "timeout", 0))
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", c.str("url"), err)
	}
	// the page text already opens with the title heading
	var sb strings.Builder
	sb.WriteString("URL: " + page.FinalURL)
	if page.Cached {
		sb.WriteString(" (cached)")
	}
	sb.WriteString("\n\n" + page.Text)
	return sb.String(), nil
}
