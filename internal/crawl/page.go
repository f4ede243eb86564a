package crawl

// Page is one successfully fetched and cleaned document. Immutable after creation.
type Page struct {
	URL     string `json:"url"`
	Content string `json:"content"`
}
