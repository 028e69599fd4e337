package model

import "time"

// Product is a tracked product page together with its baseline price.
type Product struct {
	URL        string    `json:"url"`
	Name       string    `json:"name"`
	Price      string    `json:"price"` // canonical decimal string, may be unparseable
	ObservedAt time.Time `json:"observed_at"`
}

// Quote is the remote price API's answer for a single product URL.
type Quote struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
}
