package harness

import (
	"regexp"
	"strconv"
	"strings"
)

// metaRefreshTag matches a <meta http-equiv="refresh" content="..."> tag's
// content attribute, case-insensitively. It only matches when http-equiv
// appears before content; a tag with content first is left unchanged.
var metaRefreshTag = regexp.MustCompile(`(?i)(<meta\b[^>]*\bhttp-equiv\s*=\s*['"]?refresh['"]?[^>]*\bcontent\s*=\s*['"])([^'"]*)(['"])`)

// metaRefreshContent splits a refresh content value into its delay and
// optional url= portion.
var metaRefreshContent = regexp.MustCompile(`(?i)^\s*(\d+)?\s*(?:;\s*)?(?:url\s*=\s*(.+?))?\s*$`)

// speedUpMetaRefresh rewrites any meta-refresh delay down to maxDelaySeconds
// so a composed document carrying a long refresh doesn't force the harness
// to wait out that delay before observing the resulting navigation. This
// is a scheduling optimization, not a correctness change: the navigation
// itself is still observed exactly as before.
func speedUpMetaRefresh(html string, maxDelaySeconds int) string {
	lower := strings.ToLower(html)
	if !strings.Contains(lower, "http-equiv") || !strings.Contains(lower, "refresh") {
		return html
	}

	return metaRefreshTag.ReplaceAllStringFunc(html, func(m string) string {
		groups := metaRefreshTag.FindStringSubmatch(m)
		if groups == nil {
			return m
		}
		before, content, after := groups[1], groups[2], groups[3]

		parsed := metaRefreshContent.FindStringSubmatch(content)
		var url string
		if parsed != nil {
			url = trimQuotes(strings.TrimSpace(parsed[2]))
		}

		var newContent string
		if url != "" {
			newContent = strconv.Itoa(maxDelaySeconds) + "; url=" + url
		} else {
			newContent = strconv.Itoa(maxDelaySeconds)
		}
		return before + newContent + after
	})
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
