package models

// LabelRecord is the read-only projection of an asset rendered on a printed label.
type LabelRecord struct {
	AssetTag string `json:"asset_tag"`
	Name     string `json:"name"`
	Branch   string `json:"branch"`
}
