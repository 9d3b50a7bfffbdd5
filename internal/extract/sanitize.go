package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// htmlTagRe detects real markup. Clinical text is full of bare comparisons
// ("BP <90 mmHg", "onset <4.5hrs") that must never be treated as tags, so
// the gate requires a letter immediately after the bracket.
var htmlTagRe = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// block-level elements that end a logical line when flattened
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"table": true, "ul": true, "ol": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// Flatten strips markup from a model response that came back as HTML,
// preserving line structure so line-level priority statements survive.
// Plain text passes through untouched.
func Flatten(s string) string {
	if !htmlTagRe.MatchString(s) {
		return s
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			// Skip script, style, noscript tags
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteString("\n")
		}
	}
	walk(doc)

	lines := strings.Split(buf.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, strings.TrimSpace(line))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
