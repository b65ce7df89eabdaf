// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package extract

import (
	"context"
	"fmt"
	"strings"
)

// Page holds the text of one page of a paginated document.
type Page struct {
	// Number is the 1-based page number.
	Number int
	Text   string
}

// Result is the outcome of text extraction.
type Result struct {
	// Text is the full extracted text.
	Text string

	// Pages holds per-page text for paginated formats (PDF). Empty for flat
	// formats, where the whole document counts as one page.
	Pages []Page

	// WordCount is the number of whitespace-separated words in Text.
	WordCount int

	// PageCount is the number of pages; 1 for flat formats.
	PageCount int
}

// Extract extracts plain text from raw file content. fileType is the
// lowercase extension without the dot ("pdf", "docx", "txt", "md", "csv").
// Returns ErrUnsupportedType for anything else and ErrEmptyDocument when the
// file yields no text.
func Extract(ctx context.Context, data []byte, fileType string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *Result
	var err error
	switch strings.ToLower(fileType) {
	case "pdf":
		result, err = extractPDF(ctx, data)
	case "docx":
		result, err = extractDOCX(data)
	case "txt", "md", "markdown", "csv":
		result, err = extractPlain(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, fileType)
	}
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(result.Text) == "" {
		return nil, ErrEmptyDocument
	}

	result.WordCount = len(strings.Fields(result.Text))
	if result.PageCount == 0 {
		result.PageCount = 1
	}
	return result, nil
}

// extractPlain treats the content as UTF-8 text.
func extractPlain(data []byte) (*Result, error) {
	return &Result{Text: string(data)}, nil
}
