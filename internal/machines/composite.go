package machines

import (
	"fmt"
	"strings"

	"ironview/backend/ivd/internal/storageview"
)

// Composite device creation: RAID arrays, volume groups, bcache and
// cache sets. While one of these forms is open, the draft claims its
// member devices so they disappear from the available collection; the
// claim is released when the form is confirmed or cancelled.

// SetDraft installs the in-progress composite-device form for a
// machine. The re-projection is passive: filtering claimed rows may
// drop a section to mode none but never escalates.
func (m *Manager) SetDraft(id string, draft *storageview.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vs, ok := m.views[id]
	if !ok {
		return ErrNotFound
	}
	vs.draft = draft
	m.reprojectLocked(id, false)
	return nil
}

// ClearDraft cancels the in-progress form.
func (m *Manager) ClearDraft(id string) error {
	return m.SetDraft(id, nil)
}

// checkClaim verifies a member is claimable without mutating it, so
// multi-member forms fail atomically before any member is marked.
func (m *Manager) checkClaim(mc *Machine, ref storageview.DeviceRef) error {
	d, err := m.findDevice(mc, ref.BlockID)
	if err != nil {
		return err
	}
	if ref.PartitionID != 0 {
		p, err := findPartition(d, ref.PartitionID)
		if err != nil {
			return err
		}
		if p.Filesystem != nil || p.UsedFor != "" {
			return ErrDeviceInUse
		}
		return nil
	}
	if d.Filesystem != nil || len(d.Partitions) > 0 || d.UsedFor != "" {
		return ErrDeviceInUse
	}
	return nil
}

// claim marks a member device or partition as consumed by a composite
// device.
func (m *Manager) claim(mc *Machine, ref storageview.DeviceRef, usedFor string) (name string, size int64, err error) {
	d, err := m.findDevice(mc, ref.BlockID)
	if err != nil {
		return "", 0, err
	}
	if ref.PartitionID != 0 {
		p, err := findPartition(d, ref.PartitionID)
		if err != nil {
			return "", 0, err
		}
		if p.Filesystem != nil || p.UsedFor != "" {
			return "", 0, ErrDeviceInUse
		}
		p.UsedFor = usedFor
		return p.Name, p.Size, nil
	}
	if d.Filesystem != nil || len(d.Partitions) > 0 || d.UsedFor != "" {
		return "", 0, ErrDeviceInUse
	}
	d.UsedFor = usedFor
	d.AvailableSize = 0
	d.UsedSize = d.Size
	return d.Name, d.Size, nil
}

// CreateCacheSet turns one available device or partition into a bcache
// cache set.
func (m *Manager) CreateCacheSet(id string, ref storageview.DeviceRef) error {
	return m.mutate(id, "cacheset.create", func(mc *Machine) (string, error) {
		name, size, err := m.claim(mc, ref, "bcache cache")
		if err != nil {
			return "", err
		}
		cs := storageview.BlockDevice{
			ID:   m.nextDeviceID(),
			Name: fmt.Sprintf("cache%d", countType(mc, storageview.DeviceTypeCacheSet)),
			Type: storageview.DeviceTypeCacheSet,
			Size: size,
		}
		mc.Devices = append(mc.Devices, cs)
		clearDraftLocked(m, id)
		return fmt.Sprintf("%s over %s", cs.Name, name), nil
	})
}

// CreateRAID assembles a RAID array out of two or more claimed
// devices. level is one of raid-0/raid-1/raid-5/raid-6/raid-10.
func (m *Manager) CreateRAID(id, name, level string, members []storageview.DeviceRef) error {
	return m.mutate(id, "raid.create", func(mc *Machine) (string, error) {
		min := 2
		switch level {
		case "raid-5":
			min = 3
		case "raid-6", "raid-10":
			min = 4
		case "raid-0", "raid-1":
		default:
			return "", ErrDeviceInUse
		}
		if len(members) < min {
			return "", ErrNotEnoughDevices
		}
		if storageview.IsNameInvalid(name, "", deviceNames(mc)) || name == "" {
			return "", ErrNameTaken
		}
		for _, ref := range members {
			if err := m.checkClaim(mc, ref); err != nil {
				return "", err
			}
		}
		sizes := make([]int64, 0, len(members))
		for _, ref := range members {
			_, size, err := m.claim(mc, ref, level+" member")
			if err != nil {
				return "", err
			}
			sizes = append(sizes, size)
		}
		raid := storageview.BlockDevice{
			ID:            m.nextDeviceID(),
			Name:          name,
			Type:          storageview.DeviceTypeVirtual,
			ParentType:    level,
			Size:          raidSize(level, sizes),
			AvailableSize: raidSize(level, sizes),
		}
		mc.Devices = append(mc.Devices, raid)
		clearDraftLocked(m, id)
		return fmt.Sprintf("%s %s (%d members)", level, name, len(members)), nil
	})
}

// CreateVolumeGroup pools claimed devices into an LVM volume group.
func (m *Manager) CreateVolumeGroup(id, name string, members []storageview.DeviceRef) error {
	return m.mutate(id, "volume-group.create", func(mc *Machine) (string, error) {
		if len(members) == 0 {
			return "", ErrNotEnoughDevices
		}
		if storageview.IsNameInvalid(name, "", deviceNames(mc)) || name == "" {
			return "", ErrNameTaken
		}
		for _, ref := range members {
			if err := m.checkClaim(mc, ref); err != nil {
				return "", err
			}
		}
		var total int64
		for _, ref := range members {
			_, size, err := m.claim(mc, ref, "lvm-pv")
			if err != nil {
				return "", err
			}
			total += size
		}
		vg := storageview.BlockDevice{
			ID:            m.nextDeviceID(),
			Name:          name,
			Type:          storageview.DeviceTypeVolumeGroup,
			Size:          total,
			AvailableSize: total,
		}
		mc.Devices = append(mc.Devices, vg)
		clearDraftLocked(m, id)
		return fmt.Sprintf("%s %s", name, storageview.HumanSize(total)), nil
	})
}

// CreateLogicalVolume carves a logical volume out of a volume group's
// free extent. Volume groups carry no partition table, so the size is
// validated without table overhead.
func (m *Manager) CreateLogicalVolume(id string, vgID int64, name, quantity, unit string) error {
	return m.mutate(id, "logical-volume.create", func(mc *Machine) (string, error) {
		vg, err := m.findDevice(mc, vgID)
		if err != nil {
			return "", err
		}
		if vg.Type != storageview.DeviceTypeVolumeGroup {
			return "", ErrDeviceNotFound
		}
		full := vg.Name + "-" + name
		if name == "" || storageview.IsNameInvalid(full, "", deviceNames(mc)) {
			return "", ErrNameTaken
		}
		bytes, ok := storageview.ParseSize(quantity, unit, storageview.SizeParams{
			AvailableSize: vg.AvailableSize,
			HasPartitions: true,
			Architecture:  mc.Architecture,
		})
		if !ok {
			return "", ErrInvalidSize
		}
		lv := storageview.BlockDevice{
			ID:            m.nextDeviceID(),
			Name:          full,
			Type:          storageview.DeviceTypeVirtual,
			ParentType:    string(storageview.DeviceTypeVolumeGroup),
			Size:          bytes,
			AvailableSize: bytes,
		}
		vg.AvailableSize -= bytes
		vg.UsedSize += bytes
		mc.Devices = append(mc.Devices, lv)
		return fmt.Sprintf("%s %s", full, storageview.HumanSize(bytes)), nil
	})
}

// CreateBcache layers a cache set over a claimed backing device.
func (m *Manager) CreateBcache(id, name string, backing storageview.DeviceRef, cacheSetID int64, cacheMode string) error {
	return m.mutate(id, "bcache.create", func(mc *Machine) (string, error) {
		cs, err := m.findDevice(mc, cacheSetID)
		if err != nil {
			return "", err
		}
		if cs.Type != storageview.DeviceTypeCacheSet {
			return "", ErrDeviceNotFound
		}
		if name == "" || storageview.IsNameInvalid(name, "", deviceNames(mc)) {
			return "", ErrNameTaken
		}
		backingName, size, err := m.claim(mc, backing, "bcache backing")
		if err != nil {
			return "", err
		}
		cs.UsedFor = appendUse(cs.UsedFor, name)
		bc := storageview.BlockDevice{
			ID:            m.nextDeviceID(),
			Name:          name,
			Type:          storageview.DeviceTypeVirtual,
			ParentType:    "bcache",
			Size:          size,
			AvailableSize: size,
			Tags:          []string{cacheMode},
		}
		mc.Devices = append(mc.Devices, bc)
		clearDraftLocked(m, id)
		return fmt.Sprintf("%s over %s", name, backingName), nil
	})
}

// clearDraftLocked drops the draft after a composite form confirms.
// Caller holds the write lock via mutate.
func clearDraftLocked(m *Manager, id string) {
	if vs, ok := m.views[id]; ok {
		vs.draft = nil
	}
}

func countType(mc *Machine, t storageview.DeviceType) int {
	n := 0
	for i := range mc.Devices {
		if mc.Devices[i].Type == t {
			n++
		}
	}
	return n
}

func raidSize(level string, sizes []int64) int64 {
	if len(sizes) == 0 {
		return 0
	}
	min, sum := sizes[0], int64(0)
	for _, s := range sizes {
		if s < min {
			min = s
		}
		sum += s
	}
	n := int64(len(sizes))
	switch level {
	case "raid-0":
		return sum
	case "raid-1":
		return min
	case "raid-5":
		return min * (n - 1)
	case "raid-6":
		return min * (n - 2)
	case "raid-10":
		return min * n / 2
	default:
		return 0
	}
}

func appendUse(existing, use string) string {
	if existing == "" {
		return use
	}
	return strings.Join([]string{existing, use}, ", ")
}
