package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Price is a decimal amount in source currency units, kept as the text it
// arrived as.
type Price string

// Decimal parses the price. Malformed prices count as zero.
func (p Price) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(string(p))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// UnmarshalJSON accepts both "139.99" and 139.99.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Price(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("price must be a string or a number: %w", err)
	}
	*p = Price(n.String())
	return nil
}

type Product struct {
	ID             string   `json:"ShoeId"`
	Brand          string   `json:"Brand"`
	Model          string   `json:"Model"`
	Price          Price    `json:"Price"`
	Image          string   `json:"Image"`
	AvailableSizes []string `json:"AvailableSizes"`
}

// DefaultSize is the size preselected for the product, empty when none is offered.
func (p Product) DefaultSize() string {
	if len(p.AvailableSizes) == 0 {
		return ""
	}
	return p.AvailableSizes[0]
}

func (p Product) OffersSize(size string) bool {
	for _, s := range p.AvailableSizes {
		if s == size {
			return true
		}
	}
	return false
}
