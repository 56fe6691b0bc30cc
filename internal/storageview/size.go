package storageview

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MinPartitionSize is the smallest partition or logical volume
	// the console will create.
	MinPartitionSize = 4 * 1024 * 1024

	// PartitionAlignment is the block boundary partition sizes are
	// aligned down to when a request consumes the whole device.
	PartitionAlignment = 4 * 1024 * 1024

	// PartitionTableExtraSpace is reserved for the partition table
	// when the first partition on a disk takes all remaining space.
	PartitionTableExtraSpace = 3 * 1024 * 1024

	// PrepPartitionSize is additionally reserved on ppc64el for the
	// bootloader partition.
	PrepPartitionSize = 8 * 1024 * 1024
)

// Size units are powers of 1000 to match what the console displays.
var sizeUnits = map[string]int64{
	"MB": 1000 * 1000,
	"GB": 1000 * 1000 * 1000,
	"TB": 1000 * 1000 * 1000 * 1000,
}

// SizeParams describes the device a size request is validated against.
type SizeParams struct {
	// AvailableSize is the exact free byte count on the device.
	AvailableSize int64
	// HasPartitions is true when the device already carries a
	// partition, in which case the table overhead was already paid.
	HasPartitions bool
	// Architecture gates the extra ppc64el bootloader reservation.
	// Only the prefix up to "/" is significant ("ppc64el/generic").
	Architecture string
	// MinSize overrides MinPartitionSize when non-zero (logical
	// volumes use the same floor, RAID spares may differ).
	MinSize int64
}

// ParseSize validates a user-entered quantity and unit against a
// device and converts it to an exact byte count.
//
// The quantity must be a positive decimal number and the unit one of
// MB, GB or TB. Displayed sizes are rounded for humans, so a request
// may exceed the true available byte count by up to a twentieth of the
// entered unit and still validate; beyond that it is rejected. A
// request that consumes all remaining space is clamped to the
// available size minus reserved overhead and aligned down to the
// partition alignment; anything smaller passes through exactly as
// entered.
func ParseSize(quantity, unit string, p SizeParams) (int64, bool) {
	mult, ok := sizeUnits[unit]
	if !ok {
		return 0, false
	}
	q, err := strconv.ParseFloat(strings.TrimSpace(quantity), 64)
	if err != nil || q <= 0 {
		return 0, false
	}
	bytes := int64(q * float64(mult))

	minSize := p.MinSize
	if minSize == 0 {
		minSize = MinPartitionSize
	}
	if bytes < minSize {
		return 0, false
	}

	tolerance := mult / 20
	if bytes > p.AvailableSize+tolerance {
		return 0, false
	}

	usable := p.AvailableSize
	if !p.HasPartitions {
		usable -= PartitionTableExtraSpace
		if archName(p.Architecture) == "ppc64el" {
			usable -= PrepPartitionSize
		}
	}
	if bytes >= usable {
		bytes = alignDown(usable, PartitionAlignment)
	}
	if bytes < minSize {
		return 0, false
	}
	return bytes, true
}

func alignDown(size, alignment int64) int64 {
	if size <= 0 {
		return 0
	}
	return size - (size % alignment)
}

func archName(arch string) string {
	if i := strings.IndexByte(arch, '/'); i >= 0 {
		return arch[:i]
	}
	return arch
}

// HumanSize renders a byte count the way the console displays sizes:
// power-of-1000 units with one decimal.
func HumanSize(bytes int64) string {
	switch {
	case bytes >= sizeUnits["TB"]:
		return fmt.Sprintf("%.1f TB", float64(bytes)/float64(sizeUnits["TB"]))
	case bytes >= sizeUnits["GB"]:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(sizeUnits["GB"]))
	case bytes >= sizeUnits["MB"]:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(sizeUnits["MB"]))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
