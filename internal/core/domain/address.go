package domain

// Address is a postal address as the carrier expects it. Nothing here is
// validated; malformed addresses are rejected carrier-side.
type Address struct {
	Name         string   `json:"name" yaml:"name"`
	BusinessName string   `json:"business_name,omitempty" yaml:"business_name"`
	Lines        []string `json:"lines" yaml:"lines"`
	Suburb       string   `json:"suburb" yaml:"suburb"`
	State        string   `json:"state" yaml:"state"`
	Postcode     string   `json:"postcode" yaml:"postcode"`
	Country      string   `json:"country" yaml:"country"`
	Phone        string   `json:"phone,omitempty" yaml:"phone"`
	Email        string   `json:"email,omitempty" yaml:"email"`
}
