package places

import (
	"encoding/json"
	"fmt"

	"github.com/platepicker/backend/internal/domain"
)

// matchListKeys are the equivalent keys the autocomplete list may arrive under, in priority order
var matchListKeys = []string{"predictions", "results"}

// wireMatch accepts both camelCase and snake_case identifiers
type wireMatch struct {
	PlaceID     string `json:"placeId"`
	LegacyID    string `json:"place_id"`
	Description string `json:"description"`
}

func (m wireMatch) toDomain() domain.PlaceMatch {
	id := m.PlaceID
	if id == "" {
		id = m.LegacyID
	}
	return domain.PlaceMatch{PlaceID: id, Description: m.Description}
}

// decodeMatches extracts the match list from an autocomplete body.
// A key whose list holds no usable match falls through to the next key;
// a body without any usable list decodes to an empty list.
func decodeMatches(body []byte) ([]domain.PlaceMatch, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decoding autocomplete response: %v", domain.ErrPlacesAPIFailure, err)
	}

	for _, key := range matchListKeys {
		raw, ok := envelope[key]
		if !ok || string(raw) == "null" {
			continue
		}

		var wire []wireMatch
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, fmt.Errorf("%w: decoding %q list: %v", domain.ErrPlacesAPIFailure, key, err)
		}

		matches := make([]domain.PlaceMatch, 0, len(wire))
		for _, w := range wire {
			m := w.toDomain()
			if m.PlaceID == "" {
				continue
			}
			matches = append(matches, m)
		}
		if len(matches) > 0 {
			return matches, nil
		}
	}

	return nil, nil
}

// decodeDetails reads a place-details body. The payload may be bare or wrapped
// in a "result" object; a top-level zipcode applies to the wrapped payload too.
func decodeDetails(body []byte) (*domain.RawPlaceDetails, error) {
	var envelope struct {
		domain.RawPlaceDetails
		Result *domain.RawPlaceDetails `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: decoding details response: %v", domain.ErrPlacesAPIFailure, err)
	}

	if envelope.Result == nil {
		details := envelope.RawPlaceDetails
		return &details, nil
	}

	details := *envelope.Result
	if details.Zipcode == "" {
		details.Zipcode = envelope.Zipcode
	}
	return &details, nil
}
