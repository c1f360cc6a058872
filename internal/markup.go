package internal

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"
)

const (
	deletionClass  = "aeo-del"
	insertionClass = "aeo-ins"

	deletionOpen  = `<span class="aeo-del" style="background-color:#fee2e2;color:#dc2626;">`
	insertionOpen = `<span class="aeo-ins" style="background-color:#dcfce7;color:#16a34a;">`
	spanClose     = `</span>`
)

// deletionBackgrounds are the background values that mark a deleted span,
// compared after removing whitespace and lower-casing.
var deletionBackgrounds = []string{"#fee2e2", "rgb(254,226,226)"}

var markupPolicy = newMarkupPolicy()

func newMarkupPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^aeo-(del|ins)$`)).OnElements("span")
	p.AllowStyles("background-color", "color").OnElements("span")
	return p
}

// SanitizeMarkup keeps only diff marker spans and their text
func SanitizeMarkup(markup string) string {
	return markupPolicy.Sanitize(markup)
}

// EscapeText renders plain text as markup
func EscapeText(plain string) string {
	return html.EscapeString(plain)
}

// ExtractPlainText returns the text content of markup with every
// deletion-marked span dropped entirely, so deleted text never reaches the
// cache or the service. Line endings are normalized to LF.
func ExtractPlainText(markup string) string {
	if !strings.ContainsAny(markup, "<&") {
		return normalizeNewlines(markup)
	}

	z := xhtml.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder
	var spans []bool
	dropping := 0
	for {
		switch z.Next() {
		case xhtml.ErrorToken:
			return b.String()
		case xhtml.TextToken:
			if dropping == 0 {
				b.Write(z.Text())
			}
		case xhtml.StartTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "span" {
				continue
			}
			del := hasAttr && isDeletionSpan(z)
			spans = append(spans, del)
			if del {
				dropping++
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			if string(name) != "span" || len(spans) == 0 {
				continue
			}
			if spans[len(spans)-1] {
				dropping--
			}
			spans = spans[:len(spans)-1]
		}
	}
}

func isDeletionSpan(z *xhtml.Tokenizer) bool {
	del := false
	for {
		key, val, more := z.TagAttr()
		switch string(key) {
		case "class":
			for _, c := range strings.Fields(string(val)) {
				if c == deletionClass {
					del = true
				}
			}
		case "style":
			if hasDeletionBackground(string(val)) {
				del = true
			}
		}
		if !more {
			return del
		}
	}
}

func hasDeletionBackground(style string) bool {
	compact := strings.ToLower(strings.Join(strings.Fields(style), ""))
	for _, decl := range strings.Split(compact, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok || (prop != "background-color" && prop != "background") {
			continue
		}
		for _, bg := range deletionBackgrounds {
			if value == bg {
				return true
			}
		}
	}
	return false
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
