// Package sanitize cleans untrusted rich text down to a small HTML allowlist.
package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var allowedTags = map[string]bool{
	"p": true, "br": true, "strong": true, "em": true, "u": true,
	"a": true, "ul": true, "ol": true, "li": true,
}

var allowedAttrs = map[string]map[string]bool{
	"a": {"href": true, "title": true, "target": true, "rel": true},
}

// Elements whose content is dropped along with the tag.
var droppedWithContent = map[string]bool{
	"script": true, "style": true, "iframe": true, "object": true, "embed": true,
	"noscript": true, "template": true, "svg": true, "math": true, "frame": true,
	"frameset": true, "applet": true, "noembed": true, "noframes": true,
	"title": true, "textarea": true, "xmp": true, "plaintext": true,
}

var unsafeSchemes = []string{"javascript:", "vbscript:", "data:"}

var (
	handlerPattern  = regexp.MustCompile(`(?i)(on\w+\s*)=`)
	jsSchemePattern = regexp.MustCompile(`(?i)(javascript)\s*:`)
)

// RichText returns html with every tag and attribute outside the allowlist
// removed. The result is stable: RichText(RichText(s)) == RichText(s).
func RichText(input string) string {
	if input == "" {
		return ""
	}

	z := html.NewTokenizer(strings.NewReader(input))
	var b strings.Builder
	b.Grow(len(input))

	// Text between two emitted tags is escaped as one run, so text joined
	// by a dropped tag or comment is neutralized as a whole.
	var pending strings.Builder
	flush := func() {
		if pending.Len() > 0 {
			b.WriteString(escape(pending.String()))
			pending.Reset()
		}
	}

	var skipTag string
	skipDepth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			flush()
			return b.String()

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			pending.Write(z.Text())

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			name := tok.Data
			if skipDepth > 0 {
				if name == skipTag && tt == html.StartTagToken {
					skipDepth++
				}
				continue
			}
			if droppedWithContent[name] {
				if tt == html.StartTagToken {
					skipTag = name
					skipDepth = 1
				}
				continue
			}
			if !allowedTags[name] {
				continue
			}
			flush()
			writeStartTag(&b, name, tok.Attr)

		case html.EndTagToken:
			tok := z.Token()
			name := tok.Data
			if skipDepth > 0 {
				if name == skipTag {
					skipDepth--
				}
				continue
			}
			if !allowedTags[name] || name == "br" {
				continue
			}
			flush()
			b.WriteString("</")
			b.WriteString(name)
			b.WriteByte('>')

		case html.CommentToken, html.DoctypeToken:
		}
	}
}

func writeStartTag(b *strings.Builder, name string, attrs []html.Attribute) {
	b.WriteByte('<')
	b.WriteString(name)

	allowed := allowedAttrs[name]
	seen := make(map[string]bool, len(attrs))
	for _, attr := range attrs {
		key := strings.ToLower(attr.Key)
		if attr.Namespace != "" || !allowed[key] || seen[key] {
			continue
		}
		if key == "href" && !safeURL(attr.Val) {
			continue
		}
		seen[key] = true
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteString(`="`)
		b.WriteString(escape(attr.Val))
		b.WriteByte('"')
	}
	b.WriteByte('>')
}

// safeURL rejects script-capable schemes, ignoring case and any whitespace
// or control characters a browser would skip.
func safeURL(raw string) bool {
	normalized := strings.Map(func(r rune) rune {
		if r <= 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, raw)
	normalized = strings.ToLower(normalized)
	for _, scheme := range unsafeSchemes {
		if strings.HasPrefix(normalized, scheme) {
			return false
		}
	}
	return true
}

func escape(s string) string {
	s = html.EscapeString(s)
	s = handlerPattern.ReplaceAllString(s, "$1&#61;")
	return jsSchemePattern.ReplaceAllString(s, "$1&#58;")
}
