package domain

import "time"

// Producer is one directory entry of the cooperative's producer register.
type Producer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	RouteCode string `json:"route_code"`

	// SinglePerSession restricts the producer to one delivery per session
	// per calendar day.
	SinglePerSession bool `json:"single_per_session"`

	Active bool `json:"active"`
}

// Route is a collection route / centre code.
type Route struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// SessionWindow describes when a delivery session opens and closes, as local
// wall-clock times ("05:30", "12:00").
type SessionWindow struct {
	Session Session `json:"session"`
	Opens   string  `json:"opens"`
	Closes  string  `json:"closes"`
}

// PricedItem is a store item sellable against a producer account.
type PricedItem struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Active    bool    `json:"active"`
}

// ReferenceDataset names one refreshable lookup dataset.
type ReferenceDataset string

const (
	DatasetProducers ReferenceDataset = "producers"
	DatasetRoutes    ReferenceDataset = "routes"
	DatasetSessions  ReferenceDataset = "sessions"
	DatasetItems     ReferenceDataset = "items"
)

// RefreshResult reports which datasets a refresh touched.
type RefreshResult struct {
	Refreshed []ReferenceDataset `json:"refreshed"`
	Failed    []ReferenceDataset `json:"failed"`
	At        time.Time          `json:"at"`
}
