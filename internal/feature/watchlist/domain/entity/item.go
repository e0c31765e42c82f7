package entity

import "time"

// Item is one symbol a user follows.
type Item struct {
	Symbol  string
	AddedAt time.Time
}
