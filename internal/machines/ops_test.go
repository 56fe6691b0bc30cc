package machines

import (
	"errors"
	"testing"

	"ironview/backend/ivd/internal/storageview"
)

func TestCreatePartition(t *testing.T) {
	m := newTestManager()
	mc := m.Create("rack-01", "amd64/generic", testDevices())

	if err := m.CreatePartition(mc.ID, 1, "100", "GB"); err != nil {
		t.Fatalf("create partition: %v", err)
	}
	got, _ := m.Get(mc.ID)
	sda := got.Devices[0]
	if len(sda.Partitions) != 1 {
		t.Fatalf("partition count: %d", len(sda.Partitions))
	}
	if sda.Partitions[0].Size != 100_000_000_000 {
		t.Fatalf("exact byte size: %d", sda.Partitions[0].Size)
	}
	if sda.AvailableSize != 400_000_000_000 {
		t.Fatalf("available size not reduced: %d", sda.AvailableSize)
	}

	// The new partition shows up as an available row.
	res, _, _ := m.Projection(mc.ID)
	found := false
	for _, r := range res.Available {
		if r.BlockID == 1 && r.PartitionID == sda.Partitions[0].ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("new partition missing from available rows")
	}
}

func TestCreatePartitionInvalidSize(t *testing.T) {
	m := newTestManager()
	mc := m.Create("rack-01", "amd64/generic", testDevices())

	cases := []struct{ quantity, unit string }{
		{"", "GB"},
		{"abc", "GB"},
		{"9000", "GB"},
		{"1", "MB"},
	}
	for _, c := range cases {
		err := m.CreatePartition(mc.ID, 1, c.quantity, c.unit)
		if !errors.Is(err, ErrInvalidSize) {
			t.Fatalf("CreatePartition(%q %q) = %v, want ErrInvalidSize", c.quantity, c.unit, err)
		}
	}
}

func TestDeletePartitionReturnsSpace(t *testing.T) {
	m := newTestManager()
	mc := m.Create("rack-01", "amd64/generic", testDevices())
	if err := m.CreatePartition(mc.ID, 1, "100", "GB"); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, _ := m.Get(mc.ID)
	partID := got.Devices[0].Partitions[0].ID

	if err := m.DeletePartition(mc.ID, 1, partID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ = m.Get(mc.ID)
	if got.Devices[0].AvailableSize != 500_000_000_000 {
		t.Fatalf("space not returned: %d", got.Devices[0].AvailableSize)
	}
	if err := m.DeletePartition(mc.ID, 1, partID); !errors.Is(err, ErrPartitionNotFound) {
		t.Fatalf("double delete: %v", err)
	}
}

func TestFormatMountUnmountCycle(t *testing.T) {
	m := newTestManager()
	mc := m.Create("rack-01", "amd64/generic", testDevices())
	ref := storageview.DeviceRef{BlockID: 2}

	if err := m.Format(mc.ID, ref, "ext4"); err != nil {
		t.Fatalf("format: %v", err)
	}
	res, _, _ := m.Projection(mc.ID)
	var row *storageview.AvailableRow
	for _, r := range res.Available {
		if r.BlockID == 2 {
			row = r
		}
	}
	if row == nil || !storageview.HasUnmountedFilesystem(row.FSType, row.MountPoint) {
		t.Fatalf("formatted device should be available and mountable: %+v", row)
	}

	if err := m.Mount(mc.ID, ref, "relative/path", ""); !errors.Is(err, ErrInvalidMountPoint) {
		t.Fatalf("bad mount point accepted: %v", err)
	}
	if err := m.Mount(mc.ID, ref, "/srv/data", "noatime"); err != nil {
		t.Fatalf("mount: %v", err)
	}
	res, _, _ = m.Projection(mc.ID)
	if len(res.Filesystems) != 1 || res.Filesystems[0].MountPoint != "/srv/data" {
		t.Fatalf("mounted filesystem row missing: %+v", res.Filesystems)
	}

	if err := m.Unmount(mc.ID, ref); err != nil {
		t.Fatalf("unmount: %v", err)
	}
	res, _, _ = m.Projection(mc.ID)
	if len(res.Filesystems) != 0 {
		t.Fatalf("filesystem row should disappear after unmount")
	}

	if err := m.DeleteFilesystem(mc.ID, ref); err != nil {
		t.Fatalf("delete filesystem: %v", err)
	}
	got, _ := m.Get(mc.ID)
	if got.Devices[1].Filesystem != nil {
		t.Fatalf("filesystem not removed")
	}
	if got.Devices[1].AvailableSize != got.Devices[1].Size {
		t.Fatalf("space not reclaimed after filesystem delete")
	}
}

func TestMountSwapWithNoneSentinel(t *testing.T) {
	m := newTestManager()
	mc := m.Create("rack-01", "amd64/generic", testDevices())
	ref := storageview.DeviceRef{BlockID: 3}

	if err := m.Format(mc.ID, ref, "swap"); err != nil {
		t.Fatalf("format: %v", err)
	}
	if err := m.Mount(mc.ID, ref, "none", ""); err != nil {
		t.Fatalf("mount none: %v", err)
	}
	res, _, _ := m.Projection(mc.ID)
	if len(res.Filesystems) != 1 || res.Filesystems[0].MountPoint != "none" {
		t.Fatalf("swap should appear as a filesystem row: %+v", res.Filesystems)
	}
}

func TestRenameRejectsCollision(t *testing.T) {
	m := newTestManager()
	mc := m.Create("rack-01", "amd64/generic", testDevices())

	if err := m.Rename(mc.ID, storageview.DeviceRef{BlockID: 1}, "sdb"); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("collision accepted: %v", err)
	}
	// Keeping the current name is not a collision.
	if err := m.Rename(mc.ID, storageview.DeviceRef{BlockID: 1}, "sda"); err != nil {
		t.Fatalf("own name rejected: %v", err)
	}
	if err := m.Rename(mc.ID, storageview.DeviceRef{BlockID: 1}, "data0"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, _ := m.Get(mc.ID)
	if got.Devices[0].Name != "data0" {
		t.Fatalf("rename not applied: %s", got.Devices[0].Name)
	}
}

func TestSetBootDiskIsExclusive(t *testing.T) {
	m := newTestManager()
	mc := m.Create("rack-01", "amd64/generic", testDevices())

	if err := m.SetBootDisk(mc.ID, 1); err != nil {
		t.Fatalf("set boot: %v", err)
	}
	if err := m.SetBootDisk(mc.ID, 2); err != nil {
		t.Fatalf("set boot: %v", err)
	}
	got, _ := m.Get(mc.ID)
	if got.Devices[0].IsBoot || !got.Devices[1].IsBoot {
		t.Fatalf("boot flag not exclusive: %+v %+v", got.Devices[0].IsBoot, got.Devices[1].IsBoot)
	}
}

func TestDeleteDeviceOnlyComposite(t *testing.T) {
	m := newTestManager()
	mc := m.Create("rack-01", "amd64/generic", testDevices())

	if err := m.DeleteDevice(mc.ID, 1); !errors.Is(err, ErrDeviceInUse) {
		t.Fatalf("physical disk delete should fail: %v", err)
	}
	if err := m.CreateVolumeGroup(mc.ID, "vg0", []storageview.DeviceRef{{BlockID: 3}}); err != nil {
		t.Fatalf("create vg: %v", err)
	}
	got, _ := m.Get(mc.ID)
	vgID := got.Devices[len(got.Devices)-1].ID
	if err := m.DeleteDevice(mc.ID, vgID); err != nil {
		t.Fatalf("delete vg: %v", err)
	}
}
