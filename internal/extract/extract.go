// Package extract derives watch items from the site's HTML. Its
// selectors are structure- and attribute-driven rather than pinned to
// presentation class names, which change between site deployments. Two
// card generations are recognized: the older one titles cards with a
// heading element, the current one with a hash-suffixed title class.
package extract

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ymgch/visasq-watch/internal/watch"
)

var (
	// itemPathRe matches the two detail-path families. Query strings
	// and fragments disqualify a link.
	itemPathRe = regexp.MustCompile(`^/(issue|direct-interview)/(\d+)/?$`)

	// currencyRe narrows an icon-derived reward block to the amount or
	// amount range.
	currencyRe = regexp.MustCompile(`[¥￥][0-9,，]+(?:\s*[〜～~]\s*[¥￥]?[0-9,，]+)?`)

	// rangeDashRe splits "08/01 〜 08/20" style spans.
	rangeDashRe = regexp.MustCompile(`[〜～~]`)
)

// ParseItemPath reports the kind and ID encoded in an origin-relative
// detail path. The ID is empty when the path is not a detail page.
func ParseItemPath(path string) (watch.ItemKind, string) {
	m := itemPathRe.FindStringSubmatch(path)
	if m == nil {
		return "", ""
	}
	return watch.ItemKind(m[1]), m[2]
}

// Listing extracts candidate items from listing-page markup. Extraction
// never fails: unparsable markup yields no items, fields whose anchors
// are missing stay empty, and only records without an ID are dropped.
func Listing(body []byte, origin string) []watch.Item {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var items []watch.Item
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		rel := strings.TrimPrefix(a.AttrOr("href", ""), origin)
		kind, id := ParseItemPath(rel)
		if id == "" {
			return
		}
		it := watch.Item{ID: id, Kind: kind, URL: origin + rel}
		fillCard(a, &it)
		items = append(items, it)
	})
	return items
}

// Detail derives an item from a detail page fetched via the sitemap.
// The ID comes from the page URL; false means the URL is not a detail
// path.
func Detail(body []byte, pageURL string) (watch.Item, bool) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return watch.Item{}, false
	}
	kind, id := ParseItemPath(u.Path)
	if id == "" {
		return watch.Item{}, false
	}

	it := watch.Item{ID: id, Kind: kind, URL: pageURL}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return it, true
	}

	it.Title = pageTitle(doc)
	it.Description = metaDescription(doc)
	resolveFields(doc.Selection, &it)
	return it, true
}

// fillCard resolves the display fields of one listing card.
func fillCard(a *goquery.Selection, it *watch.Item) {
	if h3 := a.Find("h3").First(); h3.Length() > 0 {
		// Older generation: heading title, longest paragraph is the
		// summary.
		it.Title = cleanText(h3)
		it.Description = longestParagraph(a)
	} else {
		it.Title = titleByClass(a)
		if org := organizationBlock(a); org != "" {
			it.Organization = org
			// The current cards carry no summary; the organization
			// line stands in so keyword matching still sees it.
			it.Description = org
		}
	}

	it.Labels = cardLabels(a)
	resolveFields(a, it)
}

// longestParagraph picks the paragraph with the most text, the usual
// shape of a card summary.
func longestParagraph(a *goquery.Selection) string {
	best := ""
	a.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := cleanText(p); len(text) > len(best) {
			best = text
		}
	})
	return best
}

// titleByClass finds the first paragraph whose class carries a "title"
// token, the current generation's convention for card headings.
func titleByClass(a *goquery.Selection) string {
	title := ""
	a.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if classContains(p, "title") {
			title = cleanText(p)
			return false
		}
		return true
	})
	return title
}

func organizationBlock(a *goquery.Selection) string {
	if block := a.Find("[qa-content='organization']").First(); block.Length() > 0 {
		return cleanText(block)
	}
	org := ""
	a.Find("div").EachWithBreak(func(_ int, d *goquery.Selection) bool {
		if classContains(d, "organization") {
			org = cleanText(d)
			return false
		}
		return true
	})
	return org
}

// cardLabels collects tag-like markers. A "NEW" marker moves to the
// front no matter where it sat in the card.
func cardLabels(a *goquery.Selection) []string {
	var labels []string
	seen := map[string]bool{}
	a.Find("span, div[qa-label]").Each(func(_ int, s *goquery.Selection) {
		if _, hasQA := s.Attr("qa-label"); !hasQA && !classContains(s, "label") {
			return
		}
		text := cleanText(s)
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		labels = append(labels, text)
	})

	for i, l := range labels {
		if l == "NEW" && i > 0 {
			copy(labels[1:i+1], labels[:i])
			labels[0] = "NEW"
			break
		}
	}
	return labels
}

// resolveFields fills created/due/reward and the layout-specific extras
// from root. Explicit qa-content attributes win; icon-glyph adjacency
// covers cards without them.
func resolveFields(root *goquery.Selection, it *watch.Item) {
	root.Find("li[qa-content]").Each(func(_ int, li *goquery.Selection) {
		text := cleanText(li)
		switch li.AttrOr("qa-content", "") {
		case "created":
			it.Created = strings.TrimSpace(strings.ReplaceAll(text, "作成日:", ""))
		case "due-date":
			it.Due = text
		case "reward":
			it.Reward = text
		case "meeting-time":
			it.MeetingTime = text
		case "headcount":
			it.Headcount = text
		case "location":
			it.Location = text
		}
	})

	root.Find("i[class], span[class], svg[class]").Each(func(_ int, icon *goquery.Selection) {
		cls := strings.ToLower(icon.AttrOr("class", ""))
		text := cleanText(icon.Parent())
		if text == "" {
			return
		}
		switch {
		case it.Due == "" && strings.Contains(cls, "calendar"):
			it.Due = narrowRange(text)
		case it.Reward == "" && containsAny(cls, "yen", "currency", "coin"):
			it.Reward = narrowCurrency(text)
		case it.MeetingTime == "" && containsAny(cls, "clock", "time"):
			it.MeetingTime = text
		case it.Headcount == "" && containsAny(cls, "user", "people", "person"):
			it.Headcount = text
		case it.Location == "" && containsAny(cls, "pin", "map", "location"):
			it.Location = text
		}
	})

	if it.Reward == "" {
		root.Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
			if text := cleanText(li); strings.Contains(text, "¥") {
				it.Reward = text
				return false
			}
			return true
		})
	}
}

// narrowRange keeps the right side of a range span, the side that names
// the deadline.
func narrowRange(text string) string {
	if parts := rangeDashRe.Split(text, 2); len(parts) == 2 {
		return strings.TrimSpace(parts[1])
	}
	return text
}

func narrowCurrency(text string) string {
	if m := currencyRe.FindString(text); m != "" {
		return m
	}
	return text
}

func pageTitle(doc *goquery.Document) string {
	title := doc.Find("title").First().Text()
	if i := strings.IndexAny(title, "|｜"); i >= 0 {
		title = title[:i]
	}
	return strings.TrimSpace(title)
}

func metaDescription(doc *goquery.Document) string {
	if desc := doc.Find("meta[name='description']").AttrOr("content", ""); desc != "" {
		return strings.TrimSpace(desc)
	}
	return strings.TrimSpace(doc.Find("meta[property='og:description']").AttrOr("content", ""))
}

// cleanText collapses whitespace runs so multi-line markup reads as one
// line.
func cleanText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

func classContains(s *goquery.Selection, token string) bool {
	return strings.Contains(strings.ToLower(s.AttrOr("class", "")), token)
}

func containsAny(s string, tokens ...string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}
