package models

// HistoryAction enumerates the change kinds written to the history log.
type HistoryAction string

const (
	ActionAdd    HistoryAction = "ADD"
	ActionUpdate HistoryAction = "UPDATE"
	ActionDelete HistoryAction = "DEL"
)

// HistoryColumns is the column order of the append-only history log.
var HistoryColumns = []string{"ts", "user", "action", "asset_tag", "branch", "note"}

// HistoryEntry is one append-only change record.
type HistoryEntry struct {
	TS       string        `json:"ts" bson:"ts"`
	User     string        `json:"user" bson:"user"`
	Action   HistoryAction `json:"action" bson:"action"`
	AssetTag string        `json:"asset_tag" bson:"asset_tag"`
	Branch   string        `json:"branch" bson:"branch"`
	Note     string        `json:"note" bson:"note"`
}

// Values returns the entry fields in HistoryColumns order.
func (h HistoryEntry) Values() []string {
	return []string{h.TS, h.User, string(h.Action), h.AssetTag, h.Branch, h.Note}
}

// HistoryFromValues is the inverse of Values.
func HistoryFromValues(values []string) HistoryEntry {
	cell := func(i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	}
	return HistoryEntry{
		TS:       cell(0),
		User:     cell(1),
		Action:   HistoryAction(cell(2)),
		AssetTag: cell(3),
		Branch:   cell(4),
		Note:     cell(5),
	}
}
