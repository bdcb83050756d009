package domain

// ResolveStatus classifies the outcome of a place lookup
type ResolveStatus string

const (
	ResolveSingle   ResolveStatus = "single"
	ResolveMultiple ResolveStatus = "multiple"
	ResolveError    ResolveStatus = "error"
)

// PlaceMatch is one autocomplete suggestion from the places directory
type PlaceMatch struct {
	PlaceID     string `json:"placeId"`
	Description string `json:"description"`
}

// ResolvedPlace is the result of resolving one candidate against the places directory.
// Candidates keeps every returned match in ranked order so a later manual override
// can pick something other than the auto-selected first entry.
type ResolvedPlace struct {
	Status      ResolveStatus `json:"status"`
	PlaceID     string        `json:"placeId,omitempty"`
	Candidates  []PlaceMatch  `json:"candidates,omitempty"`
	ErrorDetail string        `json:"errorDetail,omitempty"`
	Attempts    int           `json:"attempts"`
}

// AddressComponentEntry is one typed entry of the legacy address_components array
type AddressComponentEntry struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

// RawPlaceDetails is the place-details payload as returned upstream.
// Exactly which fields are populated depends on the provider's response shape.
type RawPlaceDetails struct {
	PlaceID                string                  `json:"place_id,omitempty"`
	Name                   string                  `json:"name,omitempty"`
	FormattedAddress       string                  `json:"formattedAddress,omitempty"`
	LegacyFormattedAddress string                  `json:"formatted_address,omitempty"`
	AddressComponents      *NormalizedAddress      `json:"addressComponents,omitempty"`
	LegacyComponents       []AddressComponentEntry `json:"address_components,omitempty"`
	Zipcode                string                  `json:"zipcode,omitempty"`
}

// Formatted returns whichever formatted address variant the payload carried
func (d *RawPlaceDetails) Formatted() string {
	if d.FormattedAddress != "" {
		return d.FormattedAddress
	}
	return d.LegacyFormattedAddress
}

// NormalizedAddress is the canonical address structure extracted from place details
type NormalizedAddress struct {
	StreetNumber string `json:"streetNumber,omitempty"`
	Street       string `json:"street,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
	Country      string `json:"country,omitempty"`
}

// NeighborhoodInfo is a named sub-city region keyed by postal code
type NeighborhoodInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
}
