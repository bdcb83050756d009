package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"

	"github.com/platepicker/backend/internal/domain"
)

// minFuzzyNameLength keeps short names ("Ono", "Lupa") from fuzzy-matching each other
const minFuzzyNameLength = 5

// DuplicateDetectorConfig holds configuration for duplicate detection
type DuplicateDetectorConfig struct {
	// FoldAccents makes "Café Lalo" and "Cafe Lalo" the same name
	FoldAccents bool
	// FuzzyMaxDistance allows names within this edit distance to match. 0 disables fuzzy matching.
	FuzzyMaxDistance int
}

// DuplicateDetector flags candidates that likely describe an entity already
// seen earlier in the batch or present in the caller's reference set
type DuplicateDetector struct {
	foldAccents      bool
	fuzzyMaxDistance int
}

// NewDuplicateDetector creates a new duplicate detector
func NewDuplicateDetector(config DuplicateDetectorConfig) *DuplicateDetector {
	dist := config.FuzzyMaxDistance
	if dist < 0 {
		dist = 0
	}
	return &DuplicateDetector{
		foldAccents:      config.FoldAccents,
		fuzzyMaxDistance: dist,
	}
}

// entityKey identifies a name within a city
type entityKey struct {
	name string
	city string
}

type seenEntity struct {
	key entityKey
	ref domain.DuplicateRef
}

// Detect annotates each candidate with what it duplicates, if anything.
// Reference matches win over in-batch matches; in-batch duplicates always
// point at the first occurrence.
func (d *DuplicateDetector) Detect(candidates []domain.CandidateRecord, reference []domain.ReferenceItem) []domain.AnnotatedCandidate {
	// cases.Caser is stateful, so each call gets its own
	folder := cases.Fold()

	refs := make([]seenEntity, 0, len(reference))
	for _, item := range reference {
		if strings.TrimSpace(item.Name) == "" {
			continue
		}
		refs = append(refs, seenEntity{
			key: d.key(folder, item.Name, item.Location),
			ref: domain.DuplicateRef{ReferenceID: item.ID, Name: item.Name},
		})
	}

	var firsts []seenEntity
	out := make([]domain.AnnotatedCandidate, len(candidates))

	for i, c := range candidates {
		out[i] = domain.AnnotatedCandidate{CandidateRecord: c}
		key := d.key(folder, c.Name, c.LocationHint)

		if ref, ok := d.find(refs, key); ok {
			out[i].DuplicateOf = &ref
		} else if ref, ok := d.find(firsts, key); ok {
			out[i].DuplicateOf = &ref
		}

		if _, ok := d.find(firsts, key); !ok {
			firsts = append(firsts, seenEntity{
				key: key,
				ref: domain.DuplicateRef{LineNumber: c.LineNumber, Name: c.Name},
			})
		}
	}

	return out
}

// find returns the first seen entity matching key
func (d *DuplicateDetector) find(seen []seenEntity, key entityKey) (domain.DuplicateRef, bool) {
	for _, s := range seen {
		if d.matches(s.key, key) {
			return s.ref, true
		}
	}
	return domain.DuplicateRef{}, false
}

func (d *DuplicateDetector) matches(a, b entityKey) bool {
	if a.city != b.city {
		return false
	}
	if a.name == b.name {
		return true
	}
	if d.fuzzyMaxDistance == 0 {
		return false
	}
	if utf8.RuneCountInString(a.name) < minFuzzyNameLength || utf8.RuneCountInString(b.name) < minFuzzyNameLength {
		return false
	}
	return levenshtein.ComputeDistance(a.name, b.name) <= d.fuzzyMaxDistance
}

func (d *DuplicateDetector) key(folder cases.Caser, name, location string) entityKey {
	return entityKey{
		name: d.normalize(folder, name),
		city: d.normalize(folder, cityComponent(location)),
	}
}

func (d *DuplicateDetector) normalize(folder cases.Caser, s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if d.foldAccents {
		s = unidecode.Unidecode(s)
	}
	return folder.String(s)
}

// cityComponent is the part of a location hint before the first comma,
// so "New York, NY" and "new york" name the same city
func cityComponent(location string) string {
	if idx := strings.Index(location, ","); idx >= 0 {
		location = location[:idx]
	}
	return strings.TrimSpace(location)
}

// DuplicatePolicy decides whether a flagged duplicate stops before resolution
type DuplicatePolicy interface {
	Skip(candidate domain.AnnotatedCandidate) bool
}

// DuplicatePolicyFunc adapts a function to the DuplicatePolicy interface
type DuplicatePolicyFunc func(candidate domain.AnnotatedCandidate) bool

func (f DuplicatePolicyFunc) Skip(candidate domain.AnnotatedCandidate) bool {
	return f(candidate)
}

var (
	// AnnotateDuplicates reports duplicates but lets every item proceed
	AnnotateDuplicates DuplicatePolicy = DuplicatePolicyFunc(func(domain.AnnotatedCandidate) bool { return false })

	// SkipDuplicates stops flagged duplicates before place resolution
	SkipDuplicates DuplicatePolicy = DuplicatePolicyFunc(func(c domain.AnnotatedCandidate) bool { return c.IsDuplicate() })
)

// ParseDuplicatePolicy maps a configured policy name to a DuplicatePolicy
func ParseDuplicatePolicy(name string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "annotate":
		return AnnotateDuplicates, nil
	case "skip":
		return SkipDuplicates, nil
	default:
		return nil, fmt.Errorf("%w: unknown duplicate policy %q", domain.ErrInvalidRequest, name)
	}
}
