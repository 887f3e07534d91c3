package ingest

import "testing"

func TestTextFromHTML(t *testing.T) {
	got, err := TextFromHTML(`<html><head><style>p{}</style></head><body><p>Fix the <b>box</b></p><script>var x;</script><div>write code</div></body></html>`)
	if err != nil {
		t.Fatalf("TextFromHTML: %v", err)
	}
	if got != "Fix the box write code" {
		t.Errorf("TextFromHTML() = %q", got)
	}
}

func TestTextFromHTMLPlainText(t *testing.T) {
	got, err := TextFromHTML("just words")
	if err != nil {
		t.Fatalf("TextFromHTML: %v", err)
	}
	if got != "just words" {
		t.Errorf("TextFromHTML() = %q", got)
	}
}

func TestTextFromHTMLEntitiesAndWhitespace(t *testing.T) {
	got, err := TextFromHTML("<ul>\n  <li>fish &amp;\tchips</li>\n  <li>  tea </li><noscript>enable js</noscript>\n</ul>")
	if err != nil {
		t.Fatalf("TextFromHTML: %v", err)
	}
	if got != "fish & chips tea" {
		t.Errorf("TextFromHTML() = %q", got)
	}
}
