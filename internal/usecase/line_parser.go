package usecase

import (
	"strings"

	"github.com/platepicker/backend/internal/domain"
)

const (
	// maxFields is name, type, location, tags; anything after is discarded
	maxFields = 4

	reasonMissingName = "missing name"
)

// fieldDelimiters are checked in order; the first one present in a line wins
var fieldDelimiters = []string{"|", ";"}

// SplitLines splits raw bulk-add text into lines, tolerating CRLF endings
func SplitLines(rawText string) []string {
	if rawText == "" {
		return nil
	}
	lines := strings.Split(rawText, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// ParseText parses raw bulk-add text. See Parse.
func ParseText(rawText string) ([]domain.CandidateRecord, []domain.ParseError) {
	return Parse(SplitLines(rawText))
}

// Parse turns input lines into candidate records. Blank lines are skipped but
// still count toward line numbers. Every other line yields exactly one
// candidate or one parse error.
func Parse(lines []string) ([]domain.CandidateRecord, []domain.ParseError) {
	var candidates []domain.CandidateRecord
	var parseErrors []domain.ParseError

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		record, ok := parseLine(i+1, line)
		if !ok {
			parseErrors = append(parseErrors, domain.ParseError{
				LineNumber: i + 1,
				RawText:    line,
				Reason:     reasonMissingName,
			})
			continue
		}
		candidates = append(candidates, record)
	}

	return candidates, parseErrors
}

func parseLine(lineNumber int, line string) (domain.CandidateRecord, bool) {
	fields := splitFields(line)

	record := domain.CandidateRecord{
		LineNumber:   lineNumber,
		RawText:      line,
		Name:         fields[0],
		EntityType:   fields[1],
		LocationHint: fields[2],
		TagsRaw:      fields[3],
	}
	if record.Name == "" {
		return domain.CandidateRecord{}, false
	}
	if record.EntityType == "" {
		record.EntityType = domain.DefaultEntityType
	}
	return record, true
}

// splitFields always returns exactly maxFields trimmed fields
func splitFields(line string) [maxFields]string {
	parts := []string{line}
	for _, delim := range fieldDelimiters {
		if strings.Contains(line, delim) {
			parts = strings.Split(line, delim)
			break
		}
	}

	var fields [maxFields]string
	for i := 0; i < maxFields && i < len(parts); i++ {
		fields[i] = strings.TrimSpace(parts[i])
	}
	return fields
}
