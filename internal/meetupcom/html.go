package meetupcom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText strips the markup from an event description and collapses whitespace.
// The result is cut to max runes with a trailing ellipsis; max <= 0 disables the cut.
func PlainText(html string, max int) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	// Keep paragraph and line breaks as word boundaries
	doc.Find("br, p, li").Each(func(i int, sel *goquery.Selection) {
		sel.AfterHtml(" ")
	})

	text := strings.Join(strings.Fields(doc.Text()), " ")

	runes := []rune(text)
	if max > 0 && len(runes) > max {
		return strings.TrimSpace(string(runes[:max-1])) + "…"
	}
	return text
}
