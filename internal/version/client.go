// Package version implements the Version Store: load/save of client and
// resource version records, and the semver/timestamp comparisons the
// Update Orchestrator uses to decide whether an update is needed.
package version

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/semver"
)

// Channel names the update channel a ClientVersion was published on, or
// requested against.
type Channel string

const (
	ChannelNightly Channel = "nightly"
	ChannelBeta    Channel = "beta"
	ChannelStable  Channel = "stable"
)

// ClientVersion is the tagged union {Nightly|Beta|Stable}(version) |
// Unknown. Unknown means no version file exists yet (fresh install) and
// disables OTA, per §3.
type ClientVersion struct {
	Channel Channel // zero value "" means Unknown
	Raw     string  // e.g. "v5.13.1", including the leading "v"
}

// Unknown is the zero ClientVersion: no version recorded yet.
var Unknown = ClientVersion{}

// IsUnknown reports whether no version has been recorded.
func (c ClientVersion) IsUnknown() bool {
	return c.Channel == ""
}

func (c ClientVersion) String() string {
	if c.IsUnknown() {
		return "unknown"
	}
	return fmt.Sprintf("%s(%s)", c.Channel, c.Raw)
}

// Semver parses Raw as a semantic version, stripping the leading "v".
func (c ClientVersion) Semver() (*semver.Version, error) {
	if c.IsUnknown() {
		return nil, fmt.Errorf("version: cannot parse Unknown as semver")
	}
	return semver.NewVersion(strings.TrimPrefix(c.Raw, "v"))
}

// AtLeast reports whether c is semver-greater-or-equal to target. Unknown
// is never at-least anything: the caller is expected to treat Unknown as
// "always needs updating".
func (c ClientVersion) AtLeast(target ClientVersion) (bool, error) {
	if c.IsUnknown() {
		return false, nil
	}
	cv, err := c.Semver()
	if err != nil {
		return false, err
	}
	tv, err := target.Semver()
	if err != nil {
		return false, err
	}
	return cv.Compare(tv) >= 0, nil
}

// MarshalJSON writes the Rust-serde-compatible tagged-union shape: a
// single-key object {"Nightly":"v..."} for a known channel, or the bare
// string "Unknown" for the zero value — matching how maa-updater's own
// ClientVersion enum serializes via serde.
func (c ClientVersion) MarshalJSON() ([]byte, error) {
	if c.IsUnknown() {
		return json.Marshal("Unknown")
	}
	tag := strings.ToUpper(string(c.Channel[:1])) + string(c.Channel[1:])
	return json.Marshal(map[string]string{tag: c.Raw})
}

// UnmarshalJSON reads either shape MarshalJSON writes: the bare string
// "Unknown", or a single-key object naming the channel.
func (c *ClientVersion) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		if strings.ToLower(tag) != "unknown" {
			return fmt.Errorf("version: unrecognized bare client version tag %q", tag)
		}
		*c = Unknown
		return nil
	}

	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("version: decode client version: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("version: client version object must have exactly one key, got %d", len(obj))
	}
	for tag, raw := range obj {
		switch strings.ToLower(tag) {
		case "nightly":
			*c = ClientVersion{Channel: ChannelNightly, Raw: raw}
		case "beta":
			*c = ClientVersion{Channel: ChannelBeta, Raw: raw}
		case "stable":
			*c = ClientVersion{Channel: ChannelStable, Raw: raw}
		default:
			return fmt.Errorf("version: unrecognized client version tag %q", tag)
		}
	}
	return nil
}
