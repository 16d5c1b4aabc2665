package extract

import (
    "strings"

    "golang.org/x/net/html"
)

// textEscaper re-encodes the characters that would let decoded text turn back
// into markup.
var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// StripMarkup returns the text of an HTML fragment such as a search snippet.
// Tags are dropped, script/style bodies skipped and whitespace runs collapsed
// to single spaces. Text that was entity-encoded in the fragment stays encoded,
// so the result never contains a live tag.
func StripMarkup(fragment string) string {
    if !strings.ContainsAny(fragment, "<&") {
        return collapseSpaces(strings.TrimSpace(fragment))
    }
    z := html.NewTokenizer(strings.NewReader(fragment))
    var b strings.Builder
    skip := 0
    for {
        tt := z.Next()
        switch tt {
        case html.ErrorToken:
            // io.EOF or malformed input; either way we keep what we have
            return collapseSpaces(strings.TrimSpace(b.String()))
        case html.TextToken:
            if skip == 0 {
                textEscaper.WriteString(&b, string(z.Text()))
            }
        case html.StartTagToken, html.SelfClosingTagToken:
            name, _ := z.TagName()
            switch string(name) {
            case "script", "style", "noscript":
                if tt == html.StartTagToken {
                    skip++
                }
            case "br", "p", "div", "li", "td", "hr":
                b.WriteByte(' ')
            }
        case html.EndTagToken:
            name, _ := z.TagName()
            switch string(name) {
            case "script", "style", "noscript":
                if skip > 0 {
                    skip--
                }
            case "p", "div", "li", "td":
                b.WriteByte(' ')
            }
        }
    }
}

func collapseSpaces(s string) string {
    var b strings.Builder
    lastSpace := false
    for _, r := range s {
        if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\u00a0' {
            if !lastSpace {
                b.WriteByte(' ')
                lastSpace = true
            }
            continue
        }
        b.WriteRune(r)
        lastSpace = false
    }
    return strings.TrimSpace(b.String())
}
