package source

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// skipped elements never contribute text
var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true, "template": true, "head": true,
}

// block elements end the current line
var block = map[string]bool{
	"p": true, "div": true, "br": true, "tr": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"table": true, "thead": true, "tbody": true, "section": true, "article": true,
	"header": true, "footer": true, "form": true, "fieldset": true, "legend": true,
	"pre": true, "blockquote": true, "dl": true, "dt": true, "dd": true, "hr": true,
	"label": true, "caption": true, "body": true,
}

// HTMLToText renders the visible text of an HTML document one block per line,
// so line-oriented field rules still apply to form markup.
func HTMLToText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var buf strings.Builder

	var walk func(*html.Node, bool)
	walk = func(n *html.Node, pre bool) {
		if n.Type == html.ElementNode {
			if skipped[n.Data] {
				return
			}
			if n.Data == "pre" {
				pre = true
			}
			if block[n.Data] {
				buf.WriteByte('\n')
			}
			if n.Data == "td" || n.Data == "th" {
				buf.WriteByte(' ')
			}
		}

		if n.Type == html.TextNode {
			if pre {
				buf.WriteString(n.Data)
			} else if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				buf.WriteString(text)
				buf.WriteByte(' ')
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, pre)
		}

		if n.Type == html.ElementNode && block[n.Data] {
			buf.WriteByte('\n')
		}
	}
	walk(doc, false)

	lines := strings.Split(buf.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n"), nil
}

// isHTML reports whether a document should be converted from markup
func isHTML(contentType, name string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml") {
		return true
	}
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm")
}
