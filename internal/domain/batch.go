package domain

import "time"

// ItemOutcome is the terminal (or pre-submission) state of one input line.
// Transitions are strictly forward: an item stops at the first stage that fails.
type ItemOutcome string

const (
	OutcomeParseFailed        ItemOutcome = "parsed-failed"
	OutcomeDuplicateSkipped   ItemOutcome = "duplicate-skipped"
	OutcomeResolveFailed      ItemOutcome = "resolve-failed"
	OutcomeAddressFailed      ItemOutcome = "address-failed"
	OutcomeNeighborhoodFailed ItemOutcome = "neighborhood-failed"
	OutcomeProcessed          ItemOutcome = "processed"
	OutcomeSubmitFailed       ItemOutcome = "submit-failed"
	OutcomeSubmitted          ItemOutcome = "submitted"
	OutcomeError              ItemOutcome = "error"
)

// Stage names the pipeline step an item reached
type Stage string

const (
	StageParse        Stage = "parse"
	StageDuplicate    Stage = "duplicate-check"
	StageResolve      Stage = "resolve"
	StageAddress      Stage = "normalize-address"
	StageNeighborhood Stage = "resolve-neighborhood"
	StageBuild        Stage = "build"
	StageSubmit       Stage = "submit"
)

// ProcessedItem is a fully resolved candidate ready for submission
type ProcessedItem struct {
	CandidateRecord
	PlaceID          string            `json:"placeId"`
	FormattedAddress string            `json:"formattedAddress"`
	Address          NormalizedAddress `json:"address"`
	Neighborhood     NeighborhoodInfo  `json:"neighborhood"`
	Tags             []string          `json:"tags"`
}

// SubmitItem is the wire shape of one item sent to the bulk endpoint
type SubmitItem struct {
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	PlaceID        string   `json:"placeId"`
	Address        string   `json:"address"`
	NeighborhoodID string   `json:"neighborhoodId"`
	Tags           []string `json:"tags"`
}

// SubmitRequest is the body posted to the bulk endpoint
type SubmitRequest struct {
	Items []SubmitItem `json:"items"`
}

// SubmitItemStatus is optional per-item detail returned by the bulk endpoint
type SubmitItemStatus struct {
	Index   int    `json:"index"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SubmitResponse is the bulk endpoint's reply. Success is a pointer so that an
// absent indicator can be told apart from an explicit false.
type SubmitResponse struct {
	Success *bool              `json:"success"`
	Added   int                `json:"added"`
	Errors  int                `json:"errors"`
	Message string             `json:"message,omitempty"`
	Results []SubmitItemStatus `json:"results,omitempty"`
}

// ItemSubmitResult is the submission verdict for one item
type ItemSubmitResult struct {
	LineNumber int    `json:"lineNumber"`
	Submitted  bool   `json:"submitted"`
	Reason     string `json:"reason,omitempty"`
}

// BatchSubmitResult summarises a single bulk submission call
type BatchSubmitResult struct {
	AddedCount     int                `json:"addedCount"`
	ErrorCount     int                `json:"errorCount"`
	PerItemResults []ItemSubmitResult `json:"perItemResults"`
}

// ItemReport is the audit record for one input line
type ItemReport struct {
	LineNumber           int           `json:"lineNumber"`
	RawText              string        `json:"rawText"`
	Name                 string        `json:"name,omitempty"`
	Outcome              ItemOutcome   `json:"outcome"`
	Stage                Stage         `json:"stage"`
	Reason               string        `json:"reason,omitempty"`
	DuplicateOf          *DuplicateRef `json:"duplicateOf,omitempty"`
	ResolveStatus        ResolveStatus `json:"resolveStatus,omitempty"`
	PlaceID              string        `json:"placeId,omitempty"`
	AlternativePlaceIDs  []string      `json:"alternativePlaceIds,omitempty"`
	PostalCode           string        `json:"postalCode,omitempty"`
	NeighborhoodID       string        `json:"neighborhoodId,omitempty"`
	NeighborhoodFallback bool          `json:"neighborhoodFallback,omitempty"`
}

// StageFailures counts items that halted at each failing stage
type StageFailures struct {
	Parse        int `json:"parse"`
	Resolve      int `json:"resolve"`
	Address      int `json:"address"`
	Neighborhood int `json:"neighborhood"`
	Submit       int `json:"submit"`
	Error        int `json:"error"`
}

// BatchReport aggregates a whole pipeline run. It is not modified after Run returns.
type BatchReport struct {
	RunID               string        `json:"runId"`
	StartedAt           time.Time     `json:"startedAt"`
	FinishedAt          time.Time     `json:"finishedAt"`
	TotalLines          int           `json:"total"`
	ParsedCount         int           `json:"parsed"`
	DuplicateCount      int           `json:"duplicates"`
	SkippedDuplicates   int           `json:"skippedDuplicates"`
	ProcessedCount      int           `json:"processed"`
	SubmittedCount      int           `json:"submitted"`
	Failures            StageFailures `json:"failures"`
	SubmissionAttempted bool          `json:"submissionAttempted"`
	SubmissionError     string        `json:"submissionError,omitempty"`
	ServerAdded         int           `json:"serverAdded"`
	ServerErrors        int           `json:"serverErrors"`
	Items               []ItemReport  `json:"items"`
}

// CountOutcome returns how many items ended with the given outcome
func (r *BatchReport) CountOutcome(outcome ItemOutcome) int {
	n := 0
	for _, item := range r.Items {
		if item.Outcome == outcome {
			n++
		}
	}
	return n
}
