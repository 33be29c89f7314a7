package notify

import (
	"strings"
	"testing"
)

func TestBuildHTMLBodySanitizes(t *testing.T) {
	body := buildHTMLBody("Update", `<p>fine</p><script>alert("xss")</script>`, "")

	if strings.Contains(body, "<script>") {
		t.Errorf("script tag survived sanitization:\n%s", body)
	}
	if !strings.Contains(body, "<p>fine</p>") {
		t.Errorf("benign markup was stripped:\n%s", body)
	}
}

func TestBuildHTMLBodyLinksTheSource(t *testing.T) {
	body := buildHTMLBody("[blog] New post", "<p>content</p>", "https://example.com/blog/post-1")

	if !strings.Contains(body, `<a href="https://example.com/blog/post-1">`) {
		t.Errorf("header link missing:\n%s", body)
	}
	if !strings.Contains(body, "[blog] New post</a>") {
		t.Errorf("subject missing from the header link:\n%s", body)
	}
	// Relative URLs in the content resolve against the page root.
	if !strings.Contains(body, `<base href="https://example.com/">`) {
		t.Errorf("base href missing:\n%s", body)
	}
}

func TestBuildHTMLBodyWithoutLink(t *testing.T) {
	body := buildHTMLBody("Update", "<p>content</p>", "")

	if strings.Contains(body, "<base") {
		t.Errorf("base href without a link:\n%s", body)
	}
	if !strings.Contains(body, "<title>Update</title>") {
		t.Errorf("title missing:\n%s", body)
	}
}

func TestBuildHTMLBodyEscapesSubject(t *testing.T) {
	body := buildHTMLBody(`<b>bold</b> & co`, "x", "https://example.com/p")

	if strings.Contains(body, "<b>bold</b>") {
		t.Errorf("subject was not escaped:\n%s", body)
	}
	if !strings.Contains(body, "&lt;b&gt;bold&lt;/b&gt; &amp; co") {
		t.Errorf("escaped subject missing:\n%s", body)
	}
}

func TestBuildTextBody(t *testing.T) {
	tests := []struct {
		name    string
		content string
		link    string
		want    string
	}{
		{name: "with link", content: "diff output", link: "https://example.com", want: "https://example.com\n\ndiff output"},
		{name: "without link", content: "diff output", want: "diff output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildTextBody(tt.content, tt.link); got != tt.want {
				t.Errorf("buildTextBody = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSiteRoot(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{"https://example.com/a/b/c?q=1", "https://example.com/"},
		{"http://example.com:8080/page", "http://example.com:8080/"},
		{"not a url at all://", ""},
		{"/relative/only", ""},
	}

	for _, tt := range tests {
		if got := siteRoot(tt.link); got != tt.want {
			t.Errorf("siteRoot(%q) = %q, want %q", tt.link, got, tt.want)
		}
	}
}
