package config

// AdbSettings configures how the Engine connects to a device: the adb
// binary path, connection address, and optional emulator-specific
// extras (MuMu player in particular needs an extra handshake beyond
// the plain adb connect).
type AdbSettings struct {
	AdbPath string     `json:"adb_path"`
	Address string     `json:"address"`
	Extras  *ExtraAdb  `json:"extras,omitempty"`
}

// ExtraAdb carries per-emulator connection extras. Only MuMu is
// populated today; other emulators connect with bare AdbSettings.
type ExtraAdb struct {
	MuMu *MuMuExtras `json:"mumu,omitempty"`
}

// MuMuExtras mirrors the handshake fields MuMu's headless adb bridge
// expects in ConnectionExtras: an instance index and optional display id.
type MuMuExtras struct {
	Index      int  `json:"index"`
	DisplayID  *int `json:"display_id,omitempty"`
}

// DefaultAdbSettings returns the zero-config connection used when no
// settings file exists yet.
func DefaultAdbSettings() AdbSettings {
	return AdbSettings{
		AdbPath: "adb",
		Address: "127.0.0.1:5555",
	}
}
