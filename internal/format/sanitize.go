package format

import (
	"html/template"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// allowedTags maps rich-text editor output to the attributes kept on it.
var allowedTags = map[string][]string{
	"p": nil, "br": nil, "hr": nil,
	"strong": nil, "b": nil, "em": nil, "i": nil, "u": nil, "s": nil,
	"h2": nil, "h3": nil, "h4": nil,
	"ul": nil, "ol": nil, "li": nil,
	"blockquote": nil, "figure": nil, "figcaption": nil,
	"table": nil, "thead": nil, "tbody": nil, "tr": nil, "th": nil, "td": nil,
	"a": {"href", "title"},
}

// dropWithContent lists elements whose text must not leak through.
var dropWithContent = map[string]bool{"script": true, "style": true, "iframe": true, "object": true}

// SanitizeHTML keeps a small allowlist of formatting markup from the event
// overview and escapes everything else.
func SanitizeHTML(raw string) template.HTML {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(raw))
	skipDepth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return template.HTML(b.String())
			}
			return template.HTML(b.String())

		case html.TextToken:
			if skipDepth == 0 {
				b.WriteString(html.EscapeString(string(z.Text())))
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if dropWithContent[tok.Data] {
				if tt == html.StartTagToken {
					skipDepth++
				}
				continue
			}
			if skipDepth > 0 {
				continue
			}
			attrs, ok := allowedTags[tok.Data]
			if !ok {
				continue
			}
			b.WriteByte('<')
			b.WriteString(tok.Data)
			for _, a := range tok.Attr {
				if !contains(attrs, a.Key) {
					continue
				}
				if a.Key == "href" && !safeURL(a.Val) {
					continue
				}
				b.WriteByte(' ')
				b.WriteString(a.Key)
				b.WriteString(`="`)
				b.WriteString(html.EscapeString(a.Val))
				b.WriteByte('"')
			}
			if tok.Data == "a" {
				b.WriteString(` rel="nofollow noopener" target="_blank"`)
			}
			b.WriteByte('>')

		case html.EndTagToken:
			tok := z.Token()
			if dropWithContent[tok.Data] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if skipDepth > 0 {
				continue
			}
			if _, ok := allowedTags[tok.Data]; ok && !voidTag(tok.Data) {
				b.WriteString("</")
				b.WriteString(tok.Data)
				b.WriteByte('>')
			}
		}
	}
}

func safeURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto", "":
		return u.Scheme != "" || strings.HasPrefix(raw, "/")
	default:
		return false
	}
}

func voidTag(name string) bool {
	return name == "br" || name == "hr"
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
