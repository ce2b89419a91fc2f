package models

import "time"

// InventorySnapshot represents the aggregated dashboard counters stored in MongoDB.
type InventorySnapshot struct {
	Date      time.Time      `bson:"date" json:"date"`
	Total     int            `bson:"total" json:"total"`
	Installed int            `bson:"installed" json:"installed"`
	Available int            `bson:"available" json:"available"`
	Repair    int            `bson:"repair" json:"repair"`
	ByBranch  map[string]int `bson:"by_branch" json:"by_branch"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
}
