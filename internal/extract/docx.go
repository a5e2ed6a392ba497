package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"resumatch/internal/errors"
)

const docxBody = "word/document.xml"

// DOCXExtractor reads paragraph text from an Office Open XML document.
// Paragraphs are joined by newlines; empty paragraphs are dropped.
type DOCXExtractor struct{}

func (DOCXExtractor) Extract(_ context.Context, data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeInvalidFormat, "document is not a valid docx archive", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", errors.NewExtractionError(errors.ErrCodeInvalidFormat, "docx archive has no "+docxBody, nil)
	}

	rc, err := body.Open()
	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed, "cannot open docx body", err)
	}
	defer func() { _ = rc.Close() }()

	paragraphs, err := docxParagraphs(rc)
	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed, "malformed docx body", err)
	}
	return strings.Join(paragraphs, "\n"), nil
}

// docxParagraphs walks the WordprocessingML token stream. Text lives in
// w:t elements; w:tab and w:br become whitespace inside a paragraph.
func docxParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if text := current.String(); strings.TrimSpace(text) != "" {
					paragraphs = append(paragraphs, text)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}
