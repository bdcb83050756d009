package domain

// DefaultEntityType is used when an input line leaves the type field blank
const DefaultEntityType = "restaurant"

// CandidateRecord is one parsed input line before any external resolution
type CandidateRecord struct {
	LineNumber   int    `json:"lineNumber"`
	RawText      string `json:"rawText"`
	Name         string `json:"name"`
	EntityType   string `json:"entityType"`
	LocationHint string `json:"locationHint"`
	TagsRaw      string `json:"tagsRaw"`
}

// ParseError records an input line that could not become a CandidateRecord
type ParseError struct {
	LineNumber int    `json:"lineNumber"`
	RawText    string `json:"rawText"`
	Reason     string `json:"reason"`
}

// ReferenceItem is an already-known entity supplied by the caller for duplicate checks
type ReferenceItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

// DuplicateRef points at the record a candidate duplicates.
// Exactly one of LineNumber (in-batch) or ReferenceID (reference set) is set.
type DuplicateRef struct {
	LineNumber  int    `json:"lineNumber,omitempty"`
	ReferenceID string `json:"referenceId,omitempty"`
	Name        string `json:"name"`
}

// AnnotatedCandidate is a candidate after the duplicate check
type AnnotatedCandidate struct {
	CandidateRecord
	DuplicateOf *DuplicateRef `json:"duplicateOf,omitempty"`
}

// IsDuplicate reports whether the candidate was flagged as a duplicate
func (c AnnotatedCandidate) IsDuplicate() bool {
	return c.DuplicateOf != nil
}
