package harness

import "strings"

// isIgnorableNavigationURL reports whether a top-level navigation target
// should never be treated as evidence of anything: Chromium's internal
// error page, the transient about:blank seen mid-navigation, and
// about:srcdoc (the destination iframe[srcdoc] always navigates to,
// which reflects the subdocument feature working normally, not script
// execution).
func isIgnorableNavigationURL(url string) bool {
	switch {
	case strings.HasPrefix(url, "chrome-error://"):
		return true
	case url == "about:blank":
		return true
	case strings.HasPrefix(url, "about:srcdoc"):
		return true
	default:
		return false
	}
}

// filterNavigationURLsForExecution narrows a list of observed navigation
// targets down to the ones that could plausibly indicate risk: it drops
// ignorable URLs, same-document hash navigations, and, in href context,
// the vector's own expected click target (clicking the rendered link is
// the harness's own probe activity, not a sign the payload did anything
// beyond what the sanitizer already allowed).
func filterNavigationURLsForExecution(urls []string, baseURL string, ctx string, expectedHrefClickURL string) []string {
	out := make([]string, 0, len(urls))
	for _, url := range urls {
		if url == "" || isIgnorableNavigationURL(url) {
			continue
		}
		if strings.HasPrefix(url, baseURL+"#") {
			continue
		}
		if ctx == "href" && expectedHrefClickURL != "" && url == expectedHrefClickURL {
			continue
		}
		out = append(out, url)
	}
	return out
}
