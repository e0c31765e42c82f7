// Package entity defines the domain models for the symbollist feature.
package entity

// Symbol is a tradable security: its ticker code, display name, market
// and position in the default listing.
type Symbol struct {
	Code     string
	Name     string
	Market   string
	IsActive bool
	SortKey  int
}
