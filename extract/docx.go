package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// docx files are zip archives; the document body lives in word/document.xml.
const docxDocumentPath = "word/document.xml"

// extractDOCX pulls paragraph text out of a .docx archive. Formatting,
// tables and headers are flattened to plain paragraphs.
func extractDOCX(data []byte) (*Result, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	var document *zip.File
	for _, f := range archive.File {
		if f.Name == docxDocumentPath {
			document = f
			break
		}
	}
	if document == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedDocument, docxDocumentPath)
	}

	rc, err := document.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	defer rc.Close()

	text, err := docxParagraphs(rc)
	if err != nil {
		return nil, err
	}

	return &Result{Text: text}, nil
}

// docxParagraphs streams the document XML, collecting <w:t> runs and
// inserting newlines at paragraph boundaries (<w:p>).
func docxParagraphs(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var out strings.Builder
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				out.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				out.Write(t)
			}
		}
	}

	return strings.TrimSpace(out.String()), nil
}
