package version

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientVersionJSONRoundTrip(t *testing.T) {
	cv := ClientVersion{Channel: ChannelNightly, Raw: "v5.14.0-beta.3.d026.ga1d49556d"}
	data, err := json.Marshal(cv)
	require.NoError(t, err)

	var out ClientVersion
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, cv, out)
}

func TestClientVersionMarshalsAsRustStyleTaggedUnion(t *testing.T) {
	cv := ClientVersion{Channel: ChannelNightly, Raw: "v5.14.0"}
	data, err := json.Marshal(cv)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Nightly":"v5.14.0"}`, string(data))

	data, err = json.Marshal(Unknown)
	require.NoError(t, err)
	assert.Equal(t, `"Unknown"`, string(data))
}

func TestUnknownClientVersionRoundTrip(t *testing.T) {
	data, err := json.Marshal(Unknown)
	require.NoError(t, err)

	var out ClientVersion
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, out.IsUnknown())
}

func TestAtLeastComparesBySemver(t *testing.T) {
	current := ClientVersion{Channel: ChannelStable, Raw: "v5.13.1"}
	target := ClientVersion{Channel: ChannelStable, Raw: "v5.13.1"}
	ok, err := current.AtLeast(target)
	require.NoError(t, err)
	assert.True(t, ok)

	older := ClientVersion{Channel: ChannelStable, Raw: "v5.12.0"}
	ok, err = older.AtLeast(target)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUnknownIsNeverAtLeast(t *testing.T) {
	ok, err := Unknown.AtLeast(ClientVersion{Channel: ChannelStable, Raw: "v5.13.1"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResourceVersionEqualityAndOrdering(t *testing.T) {
	a := ResourceVersion{LastUpdated: "2026-01-01 00:00:00.000"}
	b := ResourceVersion{LastUpdated: "2026-01-02 00:00:00.000"}

	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(a))

	before, err := a.Before(b)
	require.NoError(t, err)
	assert.True(t, before)
}

func TestStoreLoadMissingFilesYieldsUnknownDefaults(t *testing.T) {
	s := NewStore(t.TempDir())
	v, err := s.Load()
	require.NoError(t, err)
	assert.True(t, v.Client.IsUnknown())
	assert.Empty(t, v.Resource.LastUpdated)
}

func TestStoreSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	cv := ClientVersion{Channel: ChannelStable, Raw: "v5.13.1"}
	require.NoError(t, s.SaveClient(cv))

	rv := ResourceVersion{LastUpdated: "2026-01-01 00:00:00.000"}
	require.NoError(t, s.SaveResource(rv))

	v, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, cv, v.Client)
	assert.Equal(t, rv, v.Resource)

	assert.FileExists(t, filepath.Join(dir, "client_version.json"))
	assert.FileExists(t, filepath.Join(dir, "resource", "version.json"))
}
