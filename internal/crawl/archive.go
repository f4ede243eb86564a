package crawl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Archive persists crawl results as write-once JSON documents keyed by domain
// and epoch timestamp. Nothing in this process reads them back.
type Archive struct {
	dir string
}

func NewArchive(dir string) *Archive {
	return &Archive{dir: dir}
}

func (a *Archive) SavePages(domain string, pages []Page) (string, error) {
	if err := os.MkdirAll(a.dir, 0o750); err != nil {
		return "", err
	}

	if pages == nil {
		pages = []Page{}
	}
	data, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(a.dir, fmt.Sprintf("crawled_%s_%d.json", domain, time.Now().Unix()))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
