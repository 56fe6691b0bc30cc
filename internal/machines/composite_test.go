package machines

import (
	"errors"
	"testing"

	"ironview/backend/ivd/internal/storageview"
)

func TestDraftClaimsDevices(t *testing.T) {
	m := newTestManager()
	mc := m.Create("rack-01", "amd64/generic", testDevices())

	draft := &storageview.Draft{
		Mode: "raid",
		Devices: []storageview.DeviceRef{
			{BlockID: 1},
			{BlockID: 2},
		},
	}
	if err := m.SetDraft(mc.ID, draft); err != nil {
		t.Fatalf("set draft: %v", err)
	}
	res, _, _ := m.Projection(mc.ID)
	if len(res.Available) != 1 || res.Available[0].BlockID != 3 {
		t.Fatalf("draft-claimed devices still available: %+v", res.Available)
	}

	if err := m.ClearDraft(mc.ID); err != nil {
		t.Fatalf("clear draft: %v", err)
	}
	res, _, _ = m.Projection(mc.ID)
	if len(res.Available) != 3 {
		t.Fatalf("devices not released after draft cancel: %d", len(res.Available))
	}
}

func TestCreateRAID(t *testing.T) {
	m := newTestManager()
	mc := m.Create("rack-01", "amd64/generic", testDevices())
	members := []storageview.DeviceRef{{BlockID: 1}, {BlockID: 2}}

	if err := m.CreateRAID(mc.ID, "md0", "raid-1", members); err != nil {
		t.Fatalf("create raid: %v", err)
	}
	got, _ := m.Get(mc.ID)
	raid := got.Devices[len(got.Devices)-1]
	if raid.ParentType != "raid-1" || raid.Size != 500_000_000_000 {
		t.Fatalf("unexpected raid device: %+v", raid)
	}

	res, _, _ := m.Projection(mc.ID)
	refs := map[int64]bool{}
	for _, r := range res.Available {
		refs[r.BlockID] = true
	}
	if refs[1] || refs[2] {
		t.Fatalf("raid members should no longer be available")
	}
	if !refs[raid.ID] {
		t.Fatalf("new raid device should be available")
	}
	used := map[int64]string{}
	for _, r := range res.Used {
		used[r.BlockID] = r.UsedFor
	}
	if used[1] != "raid-1 member" || used[2] != "raid-1 member" {
		t.Fatalf("members not marked used: %v", used)
	}
}

func TestCreateRAIDMemberCounts(t *testing.T) {
	m := newTestManager()
	mc := m.Create("rack-01", "amd64/generic", testDevices())

	err := m.CreateRAID(mc.ID, "md0", "raid-5", []storageview.DeviceRef{{BlockID: 1}, {BlockID: 2}})
	if !errors.Is(err, ErrNotEnoughDevices) {
		t.Fatalf("raid-5 with 2 members: %v", err)
	}
	// Nothing may have been claimed by the failed attempt.
	res, _, _ := m.Projection(mc.ID)
	if len(res.Available) != 3 {
		t.Fatalf("failed raid claimed devices: %d available", len(res.Available))
	}
}

func TestRaidSize(t *testing.T) {
	sizes := []int64{100, 200, 300}
	cases := []struct {
		level string
		want  int64
	}{
		{"raid-0", 600},
		{"raid-1", 100},
		{"raid-5", 200},
		{"raid-6", 100},
	}
	for _, c := range cases {
		if got := raidSize(c.level, sizes); got != c.want {
			t.Fatalf("raidSize(%s) = %d, want %d", c.level, got, c.want)
		}
	}
	if got := raidSize("raid-10", []int64{100, 100, 100, 100}); got != 200 {
		t.Fatalf("raidSize(raid-10) = %d", got)
	}
}

func TestVolumeGroupAndLogicalVolume(t *testing.T) {
	m := newTestManager()
	mc := m.Create("rack-01", "amd64/generic", testDevices())

	if err := m.CreateVolumeGroup(mc.ID, "vg0", []storageview.DeviceRef{{BlockID: 1}, {BlockID: 2}}); err != nil {
		t.Fatalf("create vg: %v", err)
	}
	got, _ := m.Get(mc.ID)
	vg := got.Devices[len(got.Devices)-1]
	if vg.Type != storageview.DeviceTypeVolumeGroup || vg.Size != 1_000_000_000_000 {
		t.Fatalf("unexpected vg: %+v", vg)
	}

	if err := m.CreateLogicalVolume(mc.ID, vg.ID, "root", "400", "GB"); err != nil {
		t.Fatalf("create lv: %v", err)
	}
	got, _ = m.Get(mc.ID)
	lv := got.Devices[len(got.Devices)-1]
	if lv.Name != "vg0-root" || lv.Size != 400_000_000_000 {
		t.Fatalf("unexpected lv: %+v", lv)
	}
	vgAfter, _ := m.findDevice(got, vg.ID)
	if vgAfter.AvailableSize != 600_000_000_000 {
		t.Fatalf("vg free extent: %d", vgAfter.AvailableSize)
	}

	// Oversized logical volume is rejected.
	err := m.CreateLogicalVolume(mc.ID, vg.ID, "big", "700", "GB")
	if !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("oversized lv: %v", err)
	}

	// A volume group with no free extent projects as used.
	if err := m.CreateLogicalVolume(mc.ID, vg.ID, "rest", "600", "GB"); err != nil {
		t.Fatalf("fill vg: %v", err)
	}
	res, _, _ := m.Projection(mc.ID)
	for _, r := range res.Available {
		if r.BlockID == vg.ID {
			t.Fatalf("full vg should not be available")
		}
	}
}

func TestCacheSetAndBcache(t *testing.T) {
	m := newTestManager()
	mc := m.Create("rack-01", "amd64/generic", testDevices())

	if err := m.CreateCacheSet(mc.ID, storageview.DeviceRef{BlockID: 3}); err != nil {
		t.Fatalf("create cache set: %v", err)
	}
	res, _, _ := m.Projection(mc.ID)
	if len(res.CacheSets) != 1 {
		t.Fatalf("cache set row missing: %+v", res.CacheSets)
	}
	csID := res.CacheSets[0].CacheSetID

	if err := m.CreateBcache(mc.ID, "bcache0", storageview.DeviceRef{BlockID: 1}, csID, "writeback"); err != nil {
		t.Fatalf("create bcache: %v", err)
	}
	res, _, _ = m.Projection(mc.ID)
	found := false
	for _, r := range res.Available {
		if r.Name == "bcache0" && r.ParentType == "bcache" {
			found = true
		}
		if r.BlockID == 1 {
			t.Fatalf("backing device should no longer be available")
		}
	}
	if !found {
		t.Fatalf("bcache device missing from available rows")
	}
}

func TestCompositeRejectsBusyMembers(t *testing.T) {
	m := newTestManager()
	mc := m.Create("rack-01", "amd64/generic", testDevices())

	if err := m.Format(mc.ID, storageview.DeviceRef{BlockID: 1}, "ext4"); err != nil {
		t.Fatalf("format: %v", err)
	}
	err := m.CreateVolumeGroup(mc.ID, "vg0", []storageview.DeviceRef{{BlockID: 1}})
	if !errors.Is(err, ErrDeviceInUse) {
		t.Fatalf("formatted member accepted: %v", err)
	}
}
