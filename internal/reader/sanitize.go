package reader

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/metcalfc/simplyread/internal/document"
	"github.com/metcalfc/simplyread/internal/errors"
)

var (
	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func contentPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()
	})
	return policy
}

// Sanitize strips third-party markup down to readable content and parses
// the result. Class and data attributes never survive, so loaded content
// cannot pose as a substitution or a term, and ids in the reserved
// simplyread namespace are dropped.
func Sanitize(raw string) (*document.Document, error) {
	clean := contentPolicy().Sanitize(raw)
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(clean))
	if err != nil {
		return nil, errors.Wrap(err, "parse sanitised html")
	}
	gq.Find(`[id^="simplyread"]`).RemoveAttr("id")
	return document.FromNode(gq.Nodes[0]), nil
}

// titleOf returns the <title> of raw HTML, or its first h1.
func titleOf(raw string) string {
	gq, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return ""
	}
	if t := strings.TrimSpace(gq.Find("title").First().Text()); t != "" {
		return strings.Join(strings.Fields(t), " ")
	}
	return strings.Join(strings.Fields(gq.Find("h1").First().Text()), " ")
}

// headingOf returns the first heading of a sanitised document.
func headingOf(doc *document.Document) string {
	for _, n := range doc.Find("h1, h2, h3") {
		if t := strings.Join(strings.Fields(document.TextContent(n)), " "); t != "" {
			return t
		}
	}
	return ""
}
