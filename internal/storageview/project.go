// Package storageview projects raw block-device records into the four
// row collections rendered by the storage page of the console:
// mounted filesystems, cache sets, available devices and used devices.
// The projection is a pure function; transient per-row UI state
// (selection flags, open edit forms) is carried forward across
// re-projections through the previous result.
package storageview

// mounted reports whether fs is formatted and mounted. The sentinel
// mount point "none" counts as mounted (swap and friends).
func mounted(fs *Filesystem) bool {
	return fs != nil && fs.FSType != "" && fs.MountPoint != ""
}

// unmountedFormatted reports whether fs is formatted but not mounted.
func unmountedFormatted(fs *Filesystem) bool {
	return fs != nil && fs.FSType != "" && fs.MountPoint == ""
}

// Project classifies every device and partition in devices into
// exactly one row collection, withholds draft-claimed devices from the
// available collection, and copies transient state forward from prev
// for rows whose source identity is unchanged.
//
// Project does not mutate devices, draft or prev.
func Project(devices []BlockDevice, draft *Draft, prev *ProjectionResult) ProjectionResult {
	res := ProjectionResult{
		Filesystems: []*FilesystemRow{},
		CacheSets:   []*CacheSetRow{},
		Available:   []*AvailableRow{},
		Used:        []*UsedRow{},
	}

	claimed := claimedRefs(draft)

	for i := range devices {
		d := &devices[i]
		switch {
		case mounted(d.Filesystem):
			res.Filesystems = append(res.Filesystems, deviceFilesystemRow(d))
		case d.Type == DeviceTypeCacheSet:
			res.CacheSets = append(res.CacheSets, cacheSetRow(d))
		default:
			if av := deviceAvailableRow(d); av != nil {
				if !claimed[av.Ref()] {
					res.Available = append(res.Available, av)
				}
			} else {
				res.Used = append(res.Used, deviceUsedRow(d))
			}
		}
		// Partitions classify independently of their parent's row, so
		// even a malformed record with a device-level mounted
		// filesystem never drops them.
		for j := range d.Partitions {
			p := &d.Partitions[j]
			switch {
			case mounted(p.Filesystem):
				res.Filesystems = append(res.Filesystems, partitionFilesystemRow(d, p))
			case p.Filesystem == nil && p.UsedFor != "":
				res.Used = append(res.Used, partitionUsedRow(d, p))
			default:
				av := partitionAvailableRow(d, p)
				if !claimed[av.Ref()] {
					res.Available = append(res.Available, av)
				}
			}
		}
	}

	if prev != nil {
		carryForward(&res, prev)
	}
	return res
}

// deviceAvailableRow builds the available row for a top-level device,
// or returns nil when the device is fully consumed. A device is
// available while it still has room for a partition, or while it
// carries a formatted-but-unmounted filesystem that could be mounted.
func deviceAvailableRow(d *BlockDevice) *AvailableRow {
	if !unmountedFormatted(d.Filesystem) && d.AvailableSize < MinPartitionSize {
		return nil
	}
	row := &AvailableRow{
		BlockID:         d.ID,
		Name:            d.Name,
		Type:            string(d.Type),
		ParentType:      d.ParentType,
		Size:            d.Size,
		AvailableSize:   d.AvailableSize,
		UsedSize:        d.UsedSize,
		HasPartitions:   len(d.Partitions) > 0,
		IsBoot:          d.IsBoot,
		Tags:            d.Tags,
		TestStatus:      d.TestStatus,
		FirmwareVersion: d.FirmwareVersion,
		Device:          d,
	}
	if d.Filesystem != nil {
		row.FSType = d.Filesystem.FSType
		row.MountPoint = d.Filesystem.MountPoint
	}
	return row
}

func partitionAvailableRow(d *BlockDevice, p *Partition) *AvailableRow {
	row := &AvailableRow{
		BlockID:       d.ID,
		PartitionID:   p.ID,
		Name:          p.Name,
		Type:          p.Type,
		Size:          p.Size,
		AvailableSize: p.Size,
		HasPartitions: true,
		Device:        d,
		Partition:     p,
	}
	if p.Filesystem != nil {
		row.FSType = p.Filesystem.FSType
		row.MountPoint = p.Filesystem.MountPoint
	}
	return row
}

func deviceFilesystemRow(d *BlockDevice) *FilesystemRow {
	return &FilesystemRow{
		BlockID:      d.ID,
		FilesystemID: d.Filesystem.ID,
		Name:         d.Name,
		Size:         d.Size,
		FSType:       d.Filesystem.FSType,
		MountPoint:   d.Filesystem.MountPoint,
		MountOptions: d.Filesystem.MountOptions,
		Device:       d,
	}
}

func partitionFilesystemRow(d *BlockDevice, p *Partition) *FilesystemRow {
	return &FilesystemRow{
		BlockID:      d.ID,
		PartitionID:  p.ID,
		FilesystemID: p.Filesystem.ID,
		Name:         p.Name,
		Size:         p.Size,
		FSType:       p.Filesystem.FSType,
		MountPoint:   p.Filesystem.MountPoint,
		MountOptions: p.Filesystem.MountOptions,
		Device:       d,
		Partition:    p,
	}
}

func cacheSetRow(d *BlockDevice) *CacheSetRow {
	return &CacheSetRow{
		CacheSetID: d.ID,
		Name:       d.Name,
		Size:       d.Size,
		UsedBy:     d.UsedFor,
		Device:     d,
	}
}

func deviceUsedRow(d *BlockDevice) *UsedRow {
	return &UsedRow{
		BlockID:       d.ID,
		Name:          d.Name,
		Type:          string(d.Type),
		Size:          d.Size,
		HasPartitions: len(d.Partitions) > 0,
		UsedFor:       d.UsedFor,
		Device:        d,
	}
}

func partitionUsedRow(d *BlockDevice, p *Partition) *UsedRow {
	return &UsedRow{
		BlockID:     d.ID,
		PartitionID: p.ID,
		Name:        p.Name,
		Type:        p.Type,
		Size:        p.Size,
		UsedFor:     p.UsedFor,
		Device:      d,
		Partition:   p,
	}
}

func claimedRefs(draft *Draft) map[DeviceRef]bool {
	refs := map[DeviceRef]bool{}
	if draft == nil {
		return refs
	}
	if draft.Device != nil {
		refs[*draft.Device] = true
	}
	for _, r := range draft.Devices {
		refs[r] = true
	}
	return refs
}

// carryForward copies Selected and Options from prev rows onto new
// rows with the same source identity. The Options map reference itself
// is preserved so an open edit form keeps its backing object.
func carryForward(res, prev *ProjectionResult) {
	prevFS := make(map[DeviceRef]*FilesystemRow, len(prev.Filesystems))
	for _, r := range prev.Filesystems {
		prevFS[r.Ref()] = r
	}
	for _, r := range res.Filesystems {
		if old, ok := prevFS[r.Ref()]; ok {
			r.Selected = old.Selected
		}
	}

	prevCS := make(map[int64]*CacheSetRow, len(prev.CacheSets))
	for _, r := range prev.CacheSets {
		prevCS[r.CacheSetID] = r
	}
	for _, r := range res.CacheSets {
		if old, ok := prevCS[r.CacheSetID]; ok {
			r.Selected = old.Selected
		}
	}

	prevAv := make(map[DeviceRef]*AvailableRow, len(prev.Available))
	for _, r := range prev.Available {
		prevAv[r.Ref()] = r
	}
	for _, r := range res.Available {
		if old, ok := prevAv[r.Ref()]; ok {
			r.Selected = old.Selected
			r.Options = old.Options
		}
	}
}
