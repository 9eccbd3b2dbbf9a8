package harness

import (
	"fmt"
	"strings"

	"github.com/EmilStenstrom/justhtml-xss-bench/internal/vector"
)

// origin is the harness-controlled synthetic origin every composed
// document is based at, so relative URLs resolve predictably and the
// Network Guard can recognize same-document requests.
const origin = "http://xssbench.local/"

const payloadPlaceholder = "__XSSBENCH_PAYLOAD__"

// templates mirrors the per-context HTML skeletons the original harness
// renders, ported from its template constants (prelude is installed on
// the page as an init script in this port, not inlined into the markup).
var templates = map[vector.PayloadContext]string{
	vector.ContextHTML: `<!doctype html>
<html>
<head>
    <base href="` + origin + `">
</head>
<body>
    <div id="root">` + payloadPlaceholder + `</div>
</body>
</html>`,

	vector.ContextHTMLHead: `<!doctype html>
<html>
<head>
    <base href="` + origin + `">
    ` + payloadPlaceholder + `
</head>
<body>
</body>
</html>`,

	vector.ContextHTMLOuter: `<!doctype html>
<html>
<head>
    <base href="` + origin + `">
</head>
` + payloadPlaceholder + `
</html>`,

	vector.ContextHref: `<!doctype html>
<html>
<head>
    <base href="` + origin + `">
</head>
<body>
    <a id="xssbench-link" href="` + payloadPlaceholder + `">x</a>
</body>
</html>`,

	vector.ContextOnerrorAttr: `<!doctype html>
<html>
<head>
    <base href="` + origin + `">
</head>
<body>
    <img id="xssbench-img" src="nonexistent://x" onerror="` + payloadPlaceholder + `">
</body>
</html>`,

	vector.ContextJS: `<!doctype html>
<html>
<head>
    <base href="` + origin + `">
</head>
<body>
    <script>` + payloadPlaceholder + `</script>
</body>
</html>`,

	vector.ContextJSArg: `<!doctype html>
<html>
<head>
    <base href="` + origin + `">
</head>
<body>
    <script>setTimeout(function(){}, ` + payloadPlaceholder + `);</script>
</body>
</html>`,

	vector.ContextJSString: `<!doctype html>
<html>
<head>
    <base href="` + origin + `">
</head>
<body>
    <script>var __xssbench_str = '` + payloadPlaceholder + `';</script>
</body>
</html>`,

	vector.ContextJSStringDouble: `<!doctype html>
<html>
<head>
    <base href="` + origin + `">
</head>
<body>
    <script>var __xssbench_str = "` + payloadPlaceholder + `";</script>
</body>
</html>`,

	// http_leak renders the payload in both head and body, since a leak
	// vector may be carried by either slot depending on how the sanitizer
	// reorders content; either placement must be observable to the guard.
	vector.ContextHTTPLeak: `<!doctype html>
<html>
<head>
    <base href="` + origin + `">
    ` + payloadPlaceholder + `
</head>
<body>
    <div id="root">` + payloadPlaceholder + `</div>
</body>
</html>`,
}

// Compose renders the per-context HTML skeleton with sanitizedHTML
// substituted at the payload slot(s).
func Compose(ctx vector.PayloadContext, sanitizedHTML string) (string, error) {
	tmpl, ok := templates[ctx]
	if !ok {
		return "", fmt.Errorf("harness: no template for context %q", ctx)
	}
	return strings.ReplaceAll(tmpl, payloadPlaceholder, sanitizedHTML), nil
}
