// Package disks discovers the local host's block devices and shapes
// them into the raw records the storage view projector consumes, so a
// dev instance always has one real machine to look at.
package disks

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"ironview/backend/ivd/internal/storageview"
	"ironview/backend/ivd/pkg/shell"
)

type lsblkJSON struct {
	Blockdevices []lsblkDevice `json:"blockdevices"`
}

type lsblkDevice struct {
	Name       string        `json:"name"`
	Path       string        `json:"path"`
	Size       any           `json:"size"`
	Type       string        `json:"type"`
	Mountpoint *string       `json:"mountpoint"`
	FSType     string        `json:"fstype"`
	Serial     string        `json:"serial"`
	Rota       *bool         `json:"rota"`
	Children   []lsblkDevice `json:"children"`
}

// sizeToBytes tolerates lsblk emitting sizes as numbers or strings.
func sizeToBytes(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

// Collect shells out to lsblk and maps disks and their partitions into
// storage view records. Virtual and composite devices on the host are
// left out; the local machine is seeded with physical topology only.
func Collect(ctx context.Context) ([]storageview.BlockDevice, error) {
	if !shell.Available("lsblk") {
		return nil, errors.New("lsblk not found on PATH")
	}
	args := []string{"-J", "-b", "-o", "NAME,PATH,SIZE,TYPE,MOUNTPOINT,FSTYPE,SERIAL,ROTA"}
	out, err := shell.Output(ctx, 5*time.Second, "lsblk", args...)
	if err != nil {
		return nil, err
	}
	return parseDevices(out)
}

func parseDevices(out []byte) ([]storageview.BlockDevice, error) {
	var tree lsblkJSON
	if err := json.Unmarshal(out, &tree); err != nil {
		return nil, err
	}

	devices := []storageview.BlockDevice{}
	var nextID int64 = 1
	for _, d := range tree.Blockdevices {
		if d.Type != "disk" {
			continue
		}
		dev := storageview.BlockDevice{
			ID:   nextID,
			Name: d.Name,
			Type: storageview.DeviceTypePhysical,
			Size: sizeToBytes(d.Size),
			Tags: diskTags(d),
		}
		nextID++
		dev.Filesystem = filesystemOf(nextID, d)
		if dev.Filesystem != nil {
			nextID++
		}

		var used int64
		for _, c := range d.Children {
			if c.Type != "part" {
				continue
			}
			p := storageview.Partition{
				ID:   nextID,
				Name: c.Name,
				Path: c.Path,
				Type: string(storageview.DeviceTypePartition),
				Size: sizeToBytes(c.Size),
			}
			nextID++
			p.Filesystem = filesystemOf(nextID, c)
			if p.Filesystem != nil {
				nextID++
			}
			used += p.Size
			dev.Partitions = append(dev.Partitions, p)
		}
		dev.UsedSize = used
		if dev.Filesystem == nil {
			if free := dev.Size - used; free > 0 {
				dev.AvailableSize = free
			}
		}
		devices = append(devices, dev)
	}
	return devices, nil
}

func filesystemOf(id int64, d lsblkDevice) *storageview.Filesystem {
	if d.FSType == "" {
		return nil
	}
	fs := &storageview.Filesystem{ID: id, FSType: d.FSType}
	if d.Mountpoint != nil {
		fs.MountPoint = *d.Mountpoint
	}
	if fs.MountPoint == "" && d.FSType == "swap" {
		fs.MountPoint = "none"
	}
	return fs
}

func diskTags(d lsblkDevice) []string {
	if d.Rota == nil {
		return nil
	}
	if *d.Rota {
		return []string{"rotary"}
	}
	return []string{"ssd"}
}
