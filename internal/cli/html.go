package cli

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const summaryLimit = 200

// Summarize reduces an HTML error page to its title and leading text. It
// returns "" when body is not HTML.
func Summarize(body []byte) string {
	if !looksLikeHTML(body) {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	title := collapse(doc.Find("title").First().Text())
	doc.Find("head, script, style").Remove()
	text := collapse(doc.Find("body").Text())
	if text == "" {
		text = collapse(doc.Text())
	}
	text = strings.TrimSpace(strings.TrimPrefix(text, title))

	switch {
	case title == "":
		return truncate(text)
	case text == "":
		return title
	}
	return truncate(title + ": " + text)
}

func looksLikeHTML(body []byte) bool {
	head := bytes.ToLower(bytes.TrimSpace(body))
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.HasPrefix(head, []byte("<!doctype html")) ||
		bytes.Contains(head, []byte("<html")) ||
		bytes.Contains(head, []byte("<body"))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= summaryLimit {
		return s
	}
	return string(r[:summaryLimit]) + "..."
}
