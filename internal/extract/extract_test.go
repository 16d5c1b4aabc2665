package extract

import (
    "strings"
    "testing"
)

func TestStripMarkup_WikipediaSearchMatch(t *testing.T) {
    in := `The <span class="searchmatch">OSPF</span> protocol is a link-state routing protocol`
    got := StripMarkup(in)
    want := "The OSPF protocol is a link-state routing protocol"
    if got != want {
        t.Fatalf("expected %q, got %q", want, got)
    }
}

func TestStripMarkup_KeepsAmpersandEncoded(t *testing.T) {
    got := StripMarkup(`&quot;show ip route&quot; &amp; friends`)
    if got != `"show ip route" &amp; friends` {
        t.Fatalf("unexpected: %q", got)
    }
}

func TestStripMarkup_EscapedTagStaysText(t *testing.T) {
    got := StripMarkup(`see &lt;img src=x onerror=alert(1)&gt; here`)
    want := `see &lt;img src=x onerror=alert(1)&gt; here`
    if got != want {
        t.Fatalf("expected %q, got %q", want, got)
    }
    if strings.Contains(got, "<") {
        t.Fatalf("markup leaked: %q", got)
    }
}

func TestStripMarkup_BareAngleBracketEscaped(t *testing.T) {
    got := StripMarkup(`cost 10 < 20 &amp; more`)
    if got != `cost 10 &lt; 20 &amp; more` {
        t.Fatalf("unexpected: %q", got)
    }
}

func TestStripMarkup_SkipsScriptAndStyle(t *testing.T) {
    got := StripMarkup(`before<script>alert(1)</script><style>b{}</style> after`)
    if got != "before after" {
        t.Fatalf("unexpected: %q", got)
    }
}

func TestStripMarkup_BlockElementsSeparateWords(t *testing.T) {
    got := StripMarkup("<p>first</p><p>second</p>line<br>break")
    if got != "first second line break" {
        t.Fatalf("unexpected: %q", got)
    }
}

func TestStripMarkup_PlainTextPassesThrough(t *testing.T) {
    got := StripMarkup("  subnet   mask\n 255.255.255.0 ")
    if got != "subnet mask 255.255.255.0" {
        t.Fatalf("unexpected: %q", got)
    }
}

func TestStripMarkup_Empty(t *testing.T) {
    if got := StripMarkup(""); got != "" {
        t.Fatalf("expected empty, got %q", got)
    }
}
