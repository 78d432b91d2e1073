package codec

import (
	"fmt"
	"log/slog"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Throttle refuses new work while the host is short on memory or on disk
// space at the destination. Zero thresholds disable the matching check.
type Throttle struct {
	MinFreeMem  int64
	MinFreeDisk int64
	Log         *slog.Logger
}

// Check verifies that the system has enough free resources to write into dir.
// Probe failures are logged and do not block work.
func (t *Throttle) Check(dir string) error {
	if t == nil {
		return nil
	}

	if t.MinFreeMem > 0 {
		vm, err := mem.VirtualMemory()
		if err != nil {
			t.warn("could not get memory usage", err)
		} else if vm.Available < uint64(t.MinFreeMem) {
			return fmt.Errorf("not enough free memory. Available: %d, Required: %d", vm.Available, t.MinFreeMem)
		}
	}

	if t.MinFreeDisk > 0 {
		d, err := disk.Usage(dir)
		if err != nil {
			t.warn("could not get disk usage for "+dir, err)
		} else if d.Free < uint64(t.MinFreeDisk) {
			return fmt.Errorf("not enough free disk space. Available: %d, Required: %d", d.Free, t.MinFreeDisk)
		}
	}
	return nil
}

func (t *Throttle) warn(msg string, err error) {
	if t.Log != nil {
		t.Log.Warn(msg, "error", err)
	}
}
