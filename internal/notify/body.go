package notify

import (
	"fmt"
	"html"
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

var bodyPolicy = bluemonday.UGCPolicy()

// buildHTMLBody sanitizes the content and wraps it in a minimal document.
// When a link is present it becomes a header paragraph and the page root
// becomes the document base, so relative URLs in the content resolve.
func buildHTMLBody(subject, content, link string) string {
	content = bodyPolicy.Sanitize(content)

	base := ""
	if link != "" {
		content = fmt.Sprintf("<p><a href=%q>%s</a></p>\n%s", link, html.EscapeString(subject), content)
		base = siteRoot(link)
	}

	head := "<title>" + html.EscapeString(subject) + "</title>"
	if base != "" {
		head += fmt.Sprintf("<base href=%q>", base)
	}

	return "<html><head>" + head + "</head><body>" + content + "</body></html>"
}

// buildTextBody prepends the link so plain-text readers still know where
// the change came from.
func buildTextBody(content, link string) string {
	if link == "" {
		return content
	}
	return link + "\n\n" + content
}

func siteRoot(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}
