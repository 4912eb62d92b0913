package updater

import (
	"fmt"
	"runtime"
)

// Suffix returns the platform-specific archive suffix per §4.3: one of
// win-x64.zip, win-arm64.zip, macos-runtime-universal.zip, or
// linux-<arch>.tar.gz.
func Suffix() (string, error) {
	switch runtime.GOOS {
	case "windows":
		switch runtime.GOARCH {
		case "amd64":
			return "win-x64.zip", nil
		case "arm64":
			return "win-arm64.zip", nil
		default:
			return "", fmt.Errorf("updater: unsupported windows arch %q", runtime.GOARCH)
		}
	case "darwin":
		return "macos-runtime-universal.zip", nil
	case "linux":
		return fmt.Sprintf("linux-%s.tar.gz", runtime.GOARCH), nil
	default:
		return "", fmt.Errorf("updater: unsupported platform %q", runtime.GOOS)
	}
}

// IsArchiveZip reports whether Suffix's output is a zip archive (true
// for Windows/macOS) versus tar.gz (Linux).
func IsArchiveZip(suffix string) bool {
	return runtime.GOOS == "windows" || runtime.GOOS == "darwin"
}

// SupportsOTA reports whether the running platform is eligible for the
// incremental OTA path. Per §4.3 step 4, OTA is Windows x86_64 only.
func SupportsOTA() bool {
	return runtime.GOOS == "windows" && runtime.GOARCH == "amd64"
}

const (
	// ClientArchivePrefix names the full client archive, e.g. "MAA-v5.13.1-win-x64.zip".
	ClientArchivePrefix = "MAA-"
	// OTAArchivePrefix names the incremental client archive, e.g.
	// "MAAComponent-OTA-v5.13.0_v5.13.1-win-x64.zip".
	OTAArchivePrefix = "MAAComponent-OTA-"
)

// FullAssetName builds the exact-match asset name for the full archive.
func FullAssetName(targetVersion, suffix string) string {
	return fmt.Sprintf("%s%s-%s", ClientArchivePrefix, targetVersion, suffix)
}

// OTAAssetName builds the exact-match asset name for the incremental
// archive between current and target versions.
func OTAAssetName(currentVersion, targetVersion, suffix string) string {
	return fmt.Sprintf("%s%s_%s-%s", OTAArchivePrefix, currentVersion, targetVersion, suffix)
}
