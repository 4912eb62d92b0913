package updater

import (
	"fmt"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
)

// diskSpaceBuffer is held back above the archive's reported size so a
// near-full volume doesn't fail mid-extraction.
const diskSpaceBuffer = 100 * 1024 * 1024

// checkDiskSpace verifies dst's volume has room for an archive of the
// given size plus diskSpaceBuffer headroom.
func checkDiskSpace(dst string, size int64) error {
	usage, err := disk.Usage(filepath.Dir(dst))
	if err != nil {
		return fmt.Errorf("updater: check disk space: %w", err)
	}
	if int64(usage.Free) < size+diskSpaceBuffer {
		return fmt.Errorf("updater: disk full: need %d bytes, have %d free", size+diskSpaceBuffer, usage.Free)
	}
	return nil
}
