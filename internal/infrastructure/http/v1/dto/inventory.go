package dto

import (
	"labcore/internal/core/types"
)

// DefaultLotResponse reports the outcome of a lot selection probe.
type DefaultLotResponse struct {
	Owner   string `json:"owner"`
	Product string `json:"product"`
	Lot     string `json:"lot,omitempty"`
	Found   bool   `json:"found"`
}

// SummaryResponse is a product's aggregate stock.
type SummaryResponse struct {
	Owner    string         `json:"owner"`
	Product  string         `json:"product"`
	Units    types.Quantity `json:"units"`
	Quantity types.Quantity `json:"quantity"`
}
