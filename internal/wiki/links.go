package wiki

import (
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/spachava753/wikibench/internal/models"
)

// contentSelector scopes extraction to the article body.
const contentSelector = "#mw-content-text"

// chromeSelectors match page furniture inside the article body whose links are
// not part of the article text.
var chromeSelectors = []string{
	".navbox",
	".navbox-styles",
	".vertical-navbox",
	".infobox",
	".sidebar",
	".mw-editsection",
	".reflist",
	".references",
	".metadata",
	".catlinks",
}

var errNoContent = errors.New("article body not found")

// extractLinks returns the article links in document order, one entry per title.
func extractLinks(pageURL *url.URL, r io.Reader) ([]models.Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	content := doc.Find(contentSelector).First()
	if content.Length() == 0 {
		return nil, errNoContent
	}
	content.Find(strings.Join(chromeSelectors, ", ")).Remove()

	seen := make(map[string]bool)
	links := []models.Page{}
	content.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.HasPrefix(href, articlePrefix) || strings.ContainsAny(href, ":#") {
			return
		}
		title := TitleFromURL(href)
		if title == "" || seen[title] {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		seen[title] = true
		links = append(links, models.Page{
			Title: title,
			URL:   pageURL.ResolveReference(ref).String(),
		})
	})
	return links, nil
}
