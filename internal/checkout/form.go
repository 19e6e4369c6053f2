package checkout

import (
	"fmt"
	"net/mail"
	"strings"
)

// ShippingForm is the customer's delivery details. Email, AddressLine2 and
// State are optional.
type ShippingForm struct {
	FullName      string `json:"fullName"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone"`
	StreetAddress string `json:"streetAddress"`
	AddressLine2  string `json:"addressLine2,omitempty"`
	City          string `json:"city"`
	State         string `json:"state,omitempty"`
	PostalCode    string `json:"postalCode"`
	Country       string `json:"country"`
}

// Normalize returns a copy with every value trimmed.
func (f ShippingForm) Normalize() ShippingForm {
	return ShippingForm{
		FullName:      strings.TrimSpace(f.FullName),
		Email:         strings.TrimSpace(f.Email),
		Phone:         strings.TrimSpace(f.Phone),
		StreetAddress: strings.TrimSpace(f.StreetAddress),
		AddressLine2:  strings.TrimSpace(f.AddressLine2),
		City:          strings.TrimSpace(f.City),
		State:         strings.TrimSpace(f.State),
		PostalCode:    strings.TrimSpace(f.PostalCode),
		Country:       strings.TrimSpace(f.Country),
	}
}

// Validate checks a normalized form. The error wraps ErrInvalidForm and
// names the offending fields.
func (f ShippingForm) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"fullName", f.FullName},
		{"phone", f.Phone},
		{"streetAddress", f.StreetAddress},
		{"city", f.City},
		{"postalCode", f.PostalCode},
		{"country", f.Country},
	}

	var problems []string
	for _, r := range required {
		if r.value == "" {
			problems = append(problems, r.name+" is required")
		}
	}
	if f.Email != "" {
		if addr, err := mail.ParseAddress(f.Email); err != nil || addr.Address != f.Email {
			problems = append(problems, "email is not a valid address")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidForm, strings.Join(problems, "; "))
	}
	return nil
}
