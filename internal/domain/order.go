package domain

// Order is the flattened shipping order sent to the order collaborator.
// ShoeIDs[i] and Sizes[i] describe the same ordered item.
type Order struct {
	OrderID             string   `json:"OrderId"`
	FullName            string   `json:"FullName"`
	EmailAddress        string   `json:"EmailAddress,omitempty"`
	PhoneNumber         string   `json:"PhoneNumber"`
	StreetAddress       string   `json:"StreetAddress"`
	AddressLine2        string   `json:"AddressLine2,omitempty"`
	CityTown            string   `json:"CityTown"`
	StateProvinceRegion string   `json:"StateProvinceRegion,omitempty"`
	PostCode            string   `json:"PostCode"`
	Country             string   `json:"Country"`
	ShoeIDs             []string `json:"ShoeId"`
	Sizes               []string `json:"Size"`
}
