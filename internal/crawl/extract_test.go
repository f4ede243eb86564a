package crawl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractText_StripsNonContentMarkup(t *testing.T) {
	html := `<html><body>
		<nav>home about contact team careers blog press</nav>
		<script>var tracking = "should never appear in output";</script>
		<p>This paragraph carries the actual readable content of the page.</p>
		<footer>all the usual legal footer boilerplate goes down here</footer>
	</body></html>`

	text := ExtractText(html)

	assert.Contains(t, text, "actual readable content")
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "careers")
	assert.NotContains(t, text, "boilerplate")
}

func TestExtractText_PrefersMainRegion(t *testing.T) {
	html := `<html><body>
		<div>Sidebar promo text that happens to be longer than five words.</div>
		<main><p>Primary article body with enough words to pass the filter.</p></main>
	</body></html>`

	text := ExtractText(html)

	assert.Contains(t, text, "Primary article body")
	assert.NotContains(t, text, "Sidebar promo")
}

func TestExtractText_DropsShortAndCopyrightFragments(t *testing.T) {
	html := `<html><body>
		<p>ok</p>
		<p>© 2024 Example Corp and its affiliated companies worldwide</p>
		<p>A sufficiently long sentence that should definitely survive extraction here.</p>
	</body></html>`

	text := ExtractText(html)

	assert.Contains(t, text, "survive extraction")
	assert.NotContains(t, text, "ok ")
	assert.NotContains(t, text, "©")
}

func TestExtractText_CollapsesWhitespace(t *testing.T) {
	html := "<html><body><p>spaced    out\n\twords   that   should   collapse   neatly</p></body></html>"

	assert.Equal(t, "spaced out words that should collapse neatly", ExtractText(html))
}

func TestExtractLinks_ResolvesAndFilters(t *testing.T) {
	html := `<html><body>
		<a href="/docs/intro">relative</a>
		<a href="https://example.com/pricing#plans">fragment</a>
		<a href="https://sub.example.com/page">subdomain</a>
		<a href="https://other.org/elsewhere">external</a>
		<a href="mailto:team@example.com">mail</a>
		<a href="/docs/intro">duplicate</a>
	</body></html>`

	links := ExtractLinks(html, "https://example.com/start", "example.com")

	assert.Equal(t, []string{
		"https://example.com/docs/intro",
		"https://example.com/pricing",
		"https://sub.example.com/page",
	}, links)
}

func TestExtractLinks_InvalidBase(t *testing.T) {
	assert.Nil(t, ExtractLinks("<a href='/x'>x</a>", "://bad", "example.com"))
}
