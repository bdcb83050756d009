package usecase

import (
	"strings"

	"github.com/platepicker/backend/internal/domain"
)

// addressShape recognises one upstream address layout
type addressShape struct {
	name   string
	detect func(details *domain.RawPlaceDetails) (bool, domain.NormalizedAddress)
}

// addressShapes are tried in priority order
var addressShapes = []addressShape{
	{name: "structured", detect: detectStructuredAddress},
	{name: "typed-components", detect: detectTypedComponents},
	{name: "formatted-with-zipcode", detect: detectFormattedWithZipcode},
}

// componentFields maps an address_components type to the field it fills
var componentFields = map[string]func(*domain.NormalizedAddress) *string{
	"street_number":               func(a *domain.NormalizedAddress) *string { return &a.StreetNumber },
	"route":                       func(a *domain.NormalizedAddress) *string { return &a.Street },
	"locality":                    func(a *domain.NormalizedAddress) *string { return &a.City },
	"administrative_area_level_1": func(a *domain.NormalizedAddress) *string { return &a.State },
	"postal_code":                 func(a *domain.NormalizedAddress) *string { return &a.PostalCode },
	"country":                     func(a *domain.NormalizedAddress) *string { return &a.Country },
}

// AddressNormalizer extracts a canonical address from place-details payloads
type AddressNormalizer struct{}

// NewAddressNormalizer creates a new address normalizer
func NewAddressNormalizer() *AddressNormalizer {
	return &AddressNormalizer{}
}

// Normalize returns the address from the first shape that yields a postal code.
// A shape that is present but lacks a postal code falls through to the next.
func (n *AddressNormalizer) Normalize(details *domain.RawPlaceDetails) (domain.NormalizedAddress, error) {
	if details == nil {
		return domain.NormalizedAddress{}, domain.ErrPostalCodeNotFound
	}

	for _, shape := range addressShapes {
		ok, addr := shape.detect(details)
		if ok && addr.PostalCode != "" {
			return addr, nil
		}
	}

	return domain.NormalizedAddress{}, domain.ErrPostalCodeNotFound
}

func detectStructuredAddress(details *domain.RawPlaceDetails) (bool, domain.NormalizedAddress) {
	if details.AddressComponents == nil {
		return false, domain.NormalizedAddress{}
	}
	addr := *details.AddressComponents
	addr.PostalCode = strings.TrimSpace(addr.PostalCode)
	return true, addr
}

func detectTypedComponents(details *domain.RawPlaceDetails) (bool, domain.NormalizedAddress) {
	if len(details.LegacyComponents) == 0 {
		return false, domain.NormalizedAddress{}
	}

	var addr domain.NormalizedAddress
	for _, entry := range details.LegacyComponents {
		value := strings.TrimSpace(entry.LongName)
		if value == "" {
			value = strings.TrimSpace(entry.ShortName)
		}
		if value == "" {
			continue
		}

		for _, typ := range entry.Types {
			field, ok := componentFields[typ]
			if !ok {
				continue
			}
			if target := field(&addr); *target == "" {
				*target = value
			}
			break
		}
	}
	return true, addr
}

// detectFormattedWithZipcode is the degraded mode: no free-text parsing,
// only an explicitly supplied zipcode is taken
func detectFormattedWithZipcode(details *domain.RawPlaceDetails) (bool, domain.NormalizedAddress) {
	zip := strings.TrimSpace(details.Zipcode)
	if zip == "" {
		return false, domain.NormalizedAddress{}
	}
	return true, domain.NormalizedAddress{PostalCode: zip}
}

// FormatAddress returns the payload's formatted address, or one composed
// from the normalized components when the payload had none
func FormatAddress(details *domain.RawPlaceDetails, addr domain.NormalizedAddress) string {
	if details != nil {
		if formatted := strings.TrimSpace(details.Formatted()); formatted != "" {
			return formatted
		}
	}

	street := strings.TrimSpace(addr.StreetNumber + " " + addr.Street)
	stateZip := strings.TrimSpace(addr.State + " " + addr.PostalCode)

	var parts []string
	for _, p := range []string{street, addr.City, stateZip, addr.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
