package extract

import (
	"bytes"
	"context"

	"github.com/PuerkitoBio/goquery"

	"resumatch/internal/errors"
)

// HTMLExtractor returns the visible text of an HTML résumé.
type HTMLExtractor struct{}

func (HTMLExtractor) Extract(_ context.Context, data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeInvalidFormat, "cannot parse html document", err)
	}

	doc.Find("script, style, noscript, template").Remove()
	// block elements end a line so adjacent words do not run together
	doc.Find("p, div, li, br, h1, h2, h3, h4, h5, h6, tr, section, article, header, footer").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return normalizeText(root.Text()), nil
}
