package crawl

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const minContentWords = 5

// ExtractText strips non-content markup and returns the readable text of a
// page. A primary content region (main, then article, then body) is preferred
// when present; only elements carrying more than minContentWords words are
// kept, and copyright boilerplate is dropped.
func ExtractText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, footer, header, noscript, aside, form").Remove()

	root := doc.Find("main").First()
	if root.Length() == 0 {
		root = doc.Find("article").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	if root.Length() == 0 {
		root = doc.Selection
	}

	var parts []string
	root.Find("h1, h2, h3, p, li, div, span").Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if len(strings.Fields(text)) > minContentWords && !strings.HasPrefix(text, "©") {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

// ExtractLinks resolves every anchor against baseURL and returns the set of
// http(s) links whose host equals or is a subdomain of domain, fragments
// stripped, sorted for deterministic traversal order.
func ExtractLinks(html, baseURL, domain string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		if !inDomain(abs.Host, domain) {
			return
		}
		abs.Fragment = ""
		seen[abs.String()] = struct{}{}
	})

	links := make([]string, 0, len(seen))
	for link := range seen {
		links = append(links, link)
	}
	sort.Strings(links)
	return links
}

func inDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
