package types

// Address is a resolved shipping address. Formatted is the single-line form
// stored on users.address and copied onto orders at checkout.
type Address struct {
	Formatted  string  `json:"formatted"`
	Line1      string  `json:"line1"`
	Line2      *string `json:"line2,omitempty"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
}
