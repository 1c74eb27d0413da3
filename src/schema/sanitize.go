package schema

import (
	"fmt"
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// sanitizer defines the markup allowed in community-authored free text.
// Documents are signed by their authors, so the server cannot rewrite them;
// text the policy would strip is rejected instead. Markdown formatting
// elements survive the policy, scripts and event handlers do not. Render
// hardening such as nofollow belongs to the viewer, not here, since any
// attribute the policy injects would flag every legitimate link.
var sanitizer = func() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AllowElements("p", "br", "strong", "em", "code", "pre", "blockquote")
	p.AllowElements("ul", "ol", "li")
	p.AllowElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("href").OnElements("a")
	p.RequireParseableURLs(true)
	return p
}()

// RequireSanitary rejects text the sanitization policy would strip content
// from. The policy HTML-escapes bare text such as "a < b", so the sanitized
// output is unescaped before comparing; plain prose with &, < or > passes,
// while stripped elements and attributes leave a real difference behind.
func RequireSanitary(field, s string) error {
	if html.UnescapeString(sanitizer.Sanitize(s)) != s {
		return fmt.Errorf("%w: %s contains disallowed markup", ErrValidation, field)
	}
	return nil
}
