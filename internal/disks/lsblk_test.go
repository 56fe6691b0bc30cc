package disks

import (
	"testing"

	"ironview/backend/ivd/internal/storageview"
)

func TestParseDevices(t *testing.T) {
	raw := `{
	  "blockdevices": [
	    {"name": "sda", "path": "/dev/sda", "size": 500000000000, "type": "disk", "rota": false,
	     "children": [
	       {"name": "sda1", "path": "/dev/sda1", "size": 100000000000, "type": "part",
	        "fstype": "ext4", "mountpoint": "/"},
	       {"name": "sda2", "path": "/dev/sda2", "size": 8000000000, "type": "part",
	        "fstype": "swap", "mountpoint": null}
	     ]},
	    {"name": "sdb", "path": "/dev/sdb", "size": "1000000000000", "type": "disk", "rota": true},
	    {"name": "sr0", "path": "/dev/sr0", "size": 0, "type": "rom"}
	  ]
	}`
	devices, err := parseDevices([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("expected 2 disks, got %d", len(devices))
	}

	sda := devices[0]
	if sda.Name != "sda" || sda.Type != storageview.DeviceTypePhysical {
		t.Fatalf("unexpected sda: %+v", sda)
	}
	if len(sda.Partitions) != 2 {
		t.Fatalf("sda partitions: %d", len(sda.Partitions))
	}
	if got := sda.Partitions[0].Filesystem; got == nil || got.MountPoint != "/" {
		t.Fatalf("sda1 filesystem: %+v", got)
	}
	// Unmounted swap gets the "none" sentinel so it projects as a
	// filesystem row, not an available one.
	if got := sda.Partitions[1].Filesystem; got == nil || got.MountPoint != "none" {
		t.Fatalf("sda2 filesystem: %+v", got)
	}
	if sda.AvailableSize != 500000000000-108000000000 {
		t.Fatalf("sda available: %d", sda.AvailableSize)
	}
	if len(sda.Tags) != 1 || sda.Tags[0] != "ssd" {
		t.Fatalf("sda tags: %v", sda.Tags)
	}

	// String sizes are tolerated.
	if devices[1].Size != 1000000000000 {
		t.Fatalf("sdb size: %d", devices[1].Size)
	}
	if devices[1].Tags[0] != "rotary" {
		t.Fatalf("sdb tags: %v", devices[1].Tags)
	}
}

func TestParseDevicesMalformed(t *testing.T) {
	if _, err := parseDevices([]byte("not json")); err == nil {
		t.Fatalf("malformed output accepted")
	}
	devices, err := parseDevices([]byte(`{"blockdevices": []}`))
	if err != nil || len(devices) != 0 {
		t.Fatalf("empty tree: %v %d", err, len(devices))
	}
}

func TestProjectionOfCollectedDevices(t *testing.T) {
	raw := `{
	  "blockdevices": [
	    {"name": "sda", "size": 500000000000, "type": "disk",
	     "children": [
	       {"name": "sda1", "size": 100000000000, "type": "part",
	        "fstype": "ext4", "mountpoint": "/"}
	     ]}
	  ]
	}`
	devices, err := parseDevices([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res := storageview.Project(devices, nil, nil)
	if len(res.Filesystems) != 1 || len(res.Available) != 1 {
		t.Fatalf("collected host does not project cleanly: %+v", res)
	}
}
