package machines

import (
	"fmt"

	"ironview/backend/ivd/internal/storageview"
)

// The confirm actions of the storage page. Every operation mutates the
// machine's raw device list, records an event, passively re-projects
// the storage view and notifies subscribers. Validation failures come
// back as sentinel errors; the HTTP layer maps them to 4xx responses.

func (m *Manager) findDevice(mc *Machine, blockID int64) (*storageview.BlockDevice, error) {
	for i := range mc.Devices {
		if mc.Devices[i].ID == blockID {
			return &mc.Devices[i], nil
		}
	}
	return nil, ErrDeviceNotFound
}

func findPartition(d *storageview.BlockDevice, partitionID int64) (*storageview.Partition, error) {
	for i := range d.Partitions {
		if d.Partitions[i].ID == partitionID {
			return &d.Partitions[i], nil
		}
	}
	return nil, ErrPartitionNotFound
}

// filesystemOf resolves the filesystem slot a ref points at: the
// partition's when PartitionID is set, the device's otherwise.
func filesystemOf(d *storageview.BlockDevice, ref storageview.DeviceRef) (**storageview.Filesystem, error) {
	if ref.PartitionID != 0 {
		p, err := findPartition(d, ref.PartitionID)
		if err != nil {
			return nil, err
		}
		return &p.Filesystem, nil
	}
	return &d.Filesystem, nil
}

// mutate runs fn against the machine under the write lock, then
// re-projects and notifies. fn returns the event detail to record.
func (m *Manager) mutate(id, op string, fn func(mc *Machine) (string, error)) error {
	m.mu.Lock()
	mc, ok := m.machines[id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	detail, err := fn(mc)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	mc.UpdatedAt = nowUTC()
	m.reprojectLocked(id, false)
	m.mu.Unlock()

	m.events.Append(id, op, detail)
	m.logger.Info().Str("machine", id).Str("op", op).Str("detail", detail).Msg("storage op")
	m.notify(id)
	return nil
}

// CreatePartition validates the entered size against the device and
// carves a new partition out of its free space.
func (m *Manager) CreatePartition(id string, blockID int64, quantity, unit string) error {
	return m.mutate(id, "partition.create", func(mc *Machine) (string, error) {
		d, err := m.findDevice(mc, blockID)
		if err != nil {
			return "", err
		}
		if d.Type == storageview.DeviceTypeCacheSet || d.Type == storageview.DeviceTypeVolumeGroup {
			return "", ErrDeviceInUse
		}
		bytes, ok := storageview.ParseSize(quantity, unit, storageview.SizeParams{
			AvailableSize: d.AvailableSize,
			HasPartitions: len(d.Partitions) > 0,
			Architecture:  mc.Architecture,
		})
		if !ok {
			return "", ErrInvalidSize
		}
		p := storageview.Partition{
			ID:   m.nextDeviceID(),
			Name: fmt.Sprintf("%s-part%d", d.Name, len(d.Partitions)+1),
			Type: string(storageview.DeviceTypePartition),
			Size: bytes,
		}
		d.Partitions = append(d.Partitions, p)
		d.AvailableSize -= bytes
		d.UsedSize += bytes
		return fmt.Sprintf("%s %s", p.Name, storageview.HumanSize(bytes)), nil
	})
}

// DeletePartition removes a partition and returns its space to the
// parent device.
func (m *Manager) DeletePartition(id string, blockID, partitionID int64) error {
	return m.mutate(id, "partition.delete", func(mc *Machine) (string, error) {
		d, err := m.findDevice(mc, blockID)
		if err != nil {
			return "", err
		}
		for i := range d.Partitions {
			if d.Partitions[i].ID != partitionID {
				continue
			}
			name, size := d.Partitions[i].Name, d.Partitions[i].Size
			d.Partitions = append(d.Partitions[:i], d.Partitions[i+1:]...)
			d.AvailableSize += size
			d.UsedSize -= size
			return name, nil
		}
		return "", ErrPartitionNotFound
	})
}

// Format puts a fresh, unmounted filesystem on a device or partition.
func (m *Manager) Format(id string, ref storageview.DeviceRef, fstype string) error {
	return m.mutate(id, "filesystem.format", func(mc *Machine) (string, error) {
		d, err := m.findDevice(mc, ref.BlockID)
		if err != nil {
			return "", err
		}
		if fstype == "" {
			return "", ErrNoFilesystem
		}
		if ref.PartitionID == 0 && len(d.Partitions) > 0 {
			return "", ErrDeviceInUse
		}
		slot, err := filesystemOf(d, ref)
		if err != nil {
			return "", err
		}
		*slot = &storageview.Filesystem{ID: m.nextDeviceID(), FSType: fstype}
		if ref.PartitionID == 0 {
			d.AvailableSize = 0
		}
		return fstype, nil
	})
}

// Mount gives an existing filesystem a mount point. The sentinel
// "none" is accepted for mountable-but-unmounted types such as swap.
func (m *Manager) Mount(id string, ref storageview.DeviceRef, mountPoint, options string) error {
	return m.mutate(id, "filesystem.mount", func(mc *Machine) (string, error) {
		if mountPoint == "" || storageview.IsMountPointInvalid(mountPoint) {
			return "", ErrInvalidMountPoint
		}
		d, err := m.findDevice(mc, ref.BlockID)
		if err != nil {
			return "", err
		}
		slot, err := filesystemOf(d, ref)
		if err != nil {
			return "", err
		}
		if *slot == nil {
			return "", ErrNoFilesystem
		}
		(*slot).MountPoint = mountPoint
		(*slot).MountOptions = options
		return mountPoint, nil
	})
}

// Unmount clears the mount point but keeps the filesystem.
func (m *Manager) Unmount(id string, ref storageview.DeviceRef) error {
	return m.mutate(id, "filesystem.unmount", func(mc *Machine) (string, error) {
		d, err := m.findDevice(mc, ref.BlockID)
		if err != nil {
			return "", err
		}
		slot, err := filesystemOf(d, ref)
		if err != nil {
			return "", err
		}
		if *slot == nil {
			return "", ErrNoFilesystem
		}
		mp := (*slot).MountPoint
		(*slot).MountPoint = ""
		(*slot).MountOptions = ""
		return mp, nil
	})
}

// DeleteFilesystem removes the filesystem, leaving the device or
// partition unformatted.
func (m *Manager) DeleteFilesystem(id string, ref storageview.DeviceRef) error {
	return m.mutate(id, "filesystem.delete", func(mc *Machine) (string, error) {
		d, err := m.findDevice(mc, ref.BlockID)
		if err != nil {
			return "", err
		}
		slot, err := filesystemOf(d, ref)
		if err != nil {
			return "", err
		}
		if *slot == nil {
			return "", ErrNoFilesystem
		}
		fstype := (*slot).FSType
		*slot = nil
		if ref.PartitionID == 0 && len(d.Partitions) == 0 {
			d.AvailableSize = d.Size
		}
		return fstype, nil
	})
}

// DeleteDevice removes a composite device (RAID, volume group, bcache,
// cache set) from the machine. Physical disks cannot be deleted.
func (m *Manager) DeleteDevice(id string, blockID int64) error {
	return m.mutate(id, "device.delete", func(mc *Machine) (string, error) {
		for i := range mc.Devices {
			d := &mc.Devices[i]
			if d.ID != blockID {
				continue
			}
			if d.Type == storageview.DeviceTypePhysical {
				return "", ErrDeviceInUse
			}
			name := d.Name
			mc.Devices = append(mc.Devices[:i], mc.Devices[i+1:]...)
			return name, nil
		}
		return "", ErrDeviceNotFound
	})
}

// Rename changes a device or partition name after checking it against
// every other name on the machine.
func (m *Manager) Rename(id string, ref storageview.DeviceRef, newName string) error {
	return m.mutate(id, "device.rename", func(mc *Machine) (string, error) {
		if newName == "" {
			return "", ErrNameTaken
		}
		d, err := m.findDevice(mc, ref.BlockID)
		if err != nil {
			return "", err
		}
		current := d.Name
		var target *string = &d.Name
		if ref.PartitionID != 0 {
			p, err := findPartition(d, ref.PartitionID)
			if err != nil {
				return "", err
			}
			current = p.Name
			target = &p.Name
		}
		if storageview.IsNameInvalid(newName, current, deviceNames(mc)) {
			return "", ErrNameTaken
		}
		*target = newName
		return fmt.Sprintf("%s -> %s", current, newName), nil
	})
}

// SetBootDisk marks one physical disk as the boot disk.
func (m *Manager) SetBootDisk(id string, blockID int64) error {
	return m.mutate(id, "disk.set-boot", func(mc *Machine) (string, error) {
		target, err := m.findDevice(mc, blockID)
		if err != nil {
			return "", err
		}
		if target.Type != storageview.DeviceTypePhysical {
			return "", ErrDeviceInUse
		}
		for i := range mc.Devices {
			mc.Devices[i].IsBoot = false
		}
		target.IsBoot = true
		return target.Name, nil
	})
}

// UpdateTags replaces the tag set on a device.
func (m *Manager) UpdateTags(id string, blockID int64, tags []string) error {
	return m.mutate(id, "disk.tags", func(mc *Machine) (string, error) {
		d, err := m.findDevice(mc, blockID)
		if err != nil {
			return "", err
		}
		d.Tags = tags
		return d.Name, nil
	})
}

func deviceNames(mc *Machine) []string {
	names := []string{}
	for i := range mc.Devices {
		names = append(names, mc.Devices[i].Name)
		for j := range mc.Devices[i].Partitions {
			names = append(names, mc.Devices[i].Partitions[j].Name)
		}
	}
	return names
}
