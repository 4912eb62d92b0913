package version

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the fixed, local-naive timestamp format resource
// version records use on disk: "YYYY-MM-DD HH:MM:SS.mmm".
const TimestampLayout = "2006-01-02 15:04:05.000"

// ResourceVersion records when the bundled resource pack (game data,
// not the Engine binary) was last updated, plus opaque activity/gacha
// sub-records the core never interprets.
type ResourceVersion struct {
	LastUpdated string          `json:"last_updated"`
	Activity    json.RawMessage `json:"activity,omitempty"`
	Gacha       json.RawMessage `json:"gacha,omitempty"`
}

// ParsedTime parses LastUpdated per TimestampLayout.
func (r ResourceVersion) ParsedTime() (time.Time, error) {
	t, err := time.ParseInLocation(TimestampLayout, r.LastUpdated, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("version: parse resource timestamp %q: %w", r.LastUpdated, err)
	}
	return t, nil
}

// Equal compares by LastUpdated string equality, per §3.
func (r ResourceVersion) Equal(other ResourceVersion) bool {
	return r.LastUpdated == other.LastUpdated
}

// Before reports whether r predates other by parsed timestamp.
func (r ResourceVersion) Before(other ResourceVersion) (bool, error) {
	rt, err := r.ParsedTime()
	if err != nil {
		return false, err
	}
	ot, err := other.ParsedTime()
	if err != nil {
		return false, err
	}
	return rt.Before(ot), nil
}
