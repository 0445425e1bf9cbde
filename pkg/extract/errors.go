package extract

import "fmt"

// ParseError reports that an expected structural marker was not found in a
// source document. Callers always recover it locally into an empty or
// default entity; the pipeline never aborts over malformed-but-present
// input.
type ParseError struct {
	Source string // which extractor: "hymn", "scripture", "song"
	Marker string // the structural marker that was missing
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s extractor: expected %s not found", e.Source, e.Marker)
}
