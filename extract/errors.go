package extract

import (
	"errors"
	"fmt"
)

// ErrExtraction is the umbrella for extraction failures. The finer
// sentinels below wrap it, so errors.Is(err, ErrExtraction) matches any of
// them.
var ErrExtraction = errors.New("extraction failed")

var (
	// ErrUnsupportedType indicates the file type has no extractor.
	ErrUnsupportedType = fmt.Errorf("%w: unsupported file type", ErrExtraction)

	// ErrEmptyDocument indicates extraction produced no text.
	ErrEmptyDocument = fmt.Errorf("%w: document contains no extractable text", ErrExtraction)

	// ErrMalformedDocument indicates the file could not be parsed.
	ErrMalformedDocument = fmt.Errorf("%w: malformed document", ErrExtraction)
)
