// Package extract converts uploaded document files into plain text for
// chunking and embedding.
//
// Supported formats: PDF (with per-page text), DOCX, and flat text formats
// (txt, md, csv). PDF pages that fail to decode are skipped; a document that
// yields no text at all is rejected with ErrEmptyDocument.
package extract
