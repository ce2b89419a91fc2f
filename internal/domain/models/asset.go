package models

import (
	"errors"
	"strings"
	"time"
)

// ErrAssetNotFound is returned by stores when no asset carries the requested tag.
var ErrAssetNotFound = errors.New("asset not found")

// ErrDuplicateTag is returned by stores when an insert would reuse an issued tag.
var ErrDuplicateTag = errors.New("asset tag already issued")

// TimestampLayout is the second-precision layout used for last_update and history rows.
const TimestampLayout = "2006-01-02T15:04:05"

// Status enumerates the lifecycle states an asset can be in.
type Status string

const (
	StatusAvailable Status = "available"
	StatusInstalled Status = "installed"
	StatusRepair    Status = "repair"
)

// ParseStatus normalizes free-form status input, defaulting to available.
func ParseStatus(value string) Status {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(StatusInstalled):
		return StatusInstalled
	case string(StatusRepair), "replace", "repair/replace":
		return StatusRepair
	default:
		return StatusAvailable
	}
}

// AssetColumns is the canonical column order shared by every storage backend.
var AssetColumns = []string{
	"id", "asset_tag", "name", "category", "serial_no", "vendor", "purchase_date",
	"warranty_expiry", "status", "branch", "location", "assigned_to",
	"installed_date", "notes", "last_update",
}

// Asset is one tracked piece of IT equipment (PC, router, printer...).
type Asset struct {
	ID             string `json:"id" bson:"id"`
	AssetTag       string `json:"asset_tag" bson:"asset_tag"`
	Name           string `json:"name" bson:"name"`
	Category       string `json:"category" bson:"category"`
	SerialNo       string `json:"serial_no" bson:"serial_no"`
	Vendor         string `json:"vendor" bson:"vendor"`
	PurchaseDate   string `json:"purchase_date" bson:"purchase_date"`
	WarrantyExpiry string `json:"warranty_expiry" bson:"warranty_expiry"`
	Status         Status `json:"status" bson:"status"`
	Branch         string `json:"branch" bson:"branch"`
	Location       string `json:"location" bson:"location"`
	AssignedTo     string `json:"assigned_to" bson:"assigned_to"`
	InstalledDate  string `json:"installed_date" bson:"installed_date"`
	Notes          string `json:"notes" bson:"notes"`
	LastUpdate     string `json:"last_update" bson:"last_update"`
}

// Values returns the asset fields in AssetColumns order.
func (a Asset) Values() []string {
	return []string{
		a.ID, a.AssetTag, a.Name, a.Category, a.SerialNo, a.Vendor, a.PurchaseDate,
		a.WarrantyExpiry, string(a.Status), a.Branch, a.Location, a.AssignedTo,
		a.InstalledDate, a.Notes, a.LastUpdate,
	}
}

// AssetFromValues is the inverse of Values. Missing trailing cells become empty strings.
func AssetFromValues(values []string) Asset {
	cell := func(i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	}
	return Asset{
		ID:             cell(0),
		AssetTag:       cell(1),
		Name:           cell(2),
		Category:       cell(3),
		SerialNo:       cell(4),
		Vendor:         cell(5),
		PurchaseDate:   cell(6),
		WarrantyExpiry: cell(7),
		Status:         Status(cell(8)),
		Branch:         cell(9),
		Location:       cell(10),
		AssignedTo:     cell(11),
		InstalledDate:  cell(12),
		Notes:          cell(13),
		LastUpdate:     cell(14),
	}
}

// Label projects the asset onto the three fields printed on a label.
func (a Asset) Label() LabelRecord {
	return LabelRecord{AssetTag: a.AssetTag, Name: a.Name, Branch: a.Branch}
}

// Touch stamps LastUpdate with the provided instant.
func (a *Asset) Touch(now time.Time) {
	a.LastUpdate = now.Format(TimestampLayout)
}
