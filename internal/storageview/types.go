package storageview

// DeviceType is the kind of a raw block device record.
type DeviceType string

const (
	DeviceTypePhysical    DeviceType = "physical"
	DeviceTypeVirtual     DeviceType = "virtual"
	DeviceTypeVolumeGroup DeviceType = "lvm-vg"
	DeviceTypeCacheSet    DeviceType = "cache-set"
	DeviceTypePartition   DeviceType = "partition"
)

// Filesystem describes the formatting of a device or partition.
// An empty FSType means unformatted. MountPoint may be empty (not
// mounted) or the sentinel "none" (mountable type intentionally left
// unmounted, e.g. swap).
type Filesystem struct {
	ID           int64  `json:"id"`
	FSType       string `json:"fstype"`
	MountPoint   string `json:"mount_point"`
	MountOptions string `json:"mount_options,omitempty"`
}

// Partition is a slice of its parent block device. Partitions do not
// nest.
type Partition struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Path       string      `json:"path,omitempty"`
	Type       string      `json:"type"`
	Size       int64       `json:"size"`
	Filesystem *Filesystem `json:"filesystem,omitempty"`
	UsedFor    string      `json:"used_for,omitempty"`
}

// BlockDevice is a raw device record as delivered by the machine
// inventory: a physical disk, a virtual device (RAID member, logical
// volume, bcache) or a cache set. The record is owned by the backend;
// the projector treats it as read-only input.
type BlockDevice struct {
	ID              int64       `json:"id"`
	Name            string      `json:"name"`
	Type            DeviceType  `json:"type"`
	ParentType      string      `json:"parent_type,omitempty"`
	Size            int64       `json:"size"`
	AvailableSize   int64       `json:"available_size"`
	UsedSize        int64       `json:"used_size"`
	IsBoot          bool        `json:"is_boot,omitempty"`
	Tags            []string    `json:"tags,omitempty"`
	Filesystem      *Filesystem `json:"filesystem,omitempty"`
	Partitions      []Partition `json:"partitions,omitempty"`
	UsedFor         string      `json:"used_for,omitempty"`
	TestStatus      int         `json:"test_status,omitempty"`
	FirmwareVersion string      `json:"firmware_version,omitempty"`
}

// DeviceRef identifies a device or partition independent of the row
// objects built from it. PartitionID is zero for device-level rows.
type DeviceRef struct {
	BlockID     int64 `json:"block_id"`
	PartitionID int64 `json:"partition_id,omitempty"`
}

// FilesystemRow is one formatted and mounted filesystem.
type FilesystemRow struct {
	BlockID      int64  `json:"block_id"`
	PartitionID  int64  `json:"partition_id,omitempty"`
	FilesystemID int64  `json:"filesystem_id"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	FSType       string `json:"fstype"`
	MountPoint   string `json:"mount_point"`
	MountOptions string `json:"mount_options,omitempty"`
	Selected     bool   `json:"selected"`

	// Back-references to the source records; exactly one of
	// Partition may be nil.
	Device    *BlockDevice `json:"-"`
	Partition *Partition   `json:"-"`
}

// CacheSetRow is one cache-set device.
type CacheSetRow struct {
	CacheSetID int64  `json:"cache_set_id"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	UsedBy     string `json:"used_by,omitempty"`
	Selected   bool   `json:"selected"`

	Device *BlockDevice `json:"-"`
}

// AvailableRow is a device or partition eligible for formatting,
// partitioning, mounting, or composition into a RAID, volume group or
// bcache. Options is free-form scratch space for an in-progress edit
// form bound to the row; the map itself is carried forward across
// re-projections so open forms keep their backing object.
type AvailableRow struct {
	BlockID         int64          `json:"block_id"`
	PartitionID     int64          `json:"partition_id,omitempty"`
	Name            string         `json:"name"`
	Type            string         `json:"type"`
	ParentType      string         `json:"parent_type,omitempty"`
	Size            int64          `json:"size"`
	AvailableSize   int64          `json:"available_size"`
	UsedSize        int64          `json:"used_size"`
	HasPartitions   bool           `json:"has_partitions"`
	FSType          string         `json:"fstype,omitempty"`
	MountPoint      string         `json:"mount_point,omitempty"`
	IsBoot          bool           `json:"is_boot,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
	TestStatus      int            `json:"test_status,omitempty"`
	FirmwareVersion string         `json:"firmware_version,omitempty"`
	Selected        bool           `json:"selected"`
	Options         map[string]any `json:"options,omitempty"`

	Device    *BlockDevice `json:"-"`
	Partition *Partition   `json:"-"`
}

// UsedRow is a device fully consumed by child partitions or by a
// composite device. Read-only summary, no transient state.
type UsedRow struct {
	BlockID       int64  `json:"block_id"`
	PartitionID   int64  `json:"partition_id,omitempty"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Size          int64  `json:"size"`
	HasPartitions bool   `json:"has_partitions"`
	UsedFor       string `json:"used_for,omitempty"`

	Device    *BlockDevice `json:"-"`
	Partition *Partition   `json:"-"`
}

// Draft is the in-progress composite-device creation form. Devices it
// references are claimed and withheld from the available collection
// until the form is confirmed or cancelled.
type Draft struct {
	Mode    string      `json:"mode,omitempty"`
	Device  *DeviceRef  `json:"device,omitempty"`
	Devices []DeviceRef `json:"devices,omitempty"`
}

// ProjectionResult is the strict partition of the input device set
// into the four row collections. Each collection preserves input
// traversal order: top-level devices in list order, a device's own row
// (when it has one) immediately followed by its partitions' rows.
type ProjectionResult struct {
	Filesystems []*FilesystemRow `json:"filesystems"`
	CacheSets   []*CacheSetRow   `json:"cachesets"`
	Available   []*AvailableRow  `json:"available"`
	Used        []*UsedRow       `json:"used"`
}

// Ref returns the source identity of the row.
func (r *FilesystemRow) Ref() DeviceRef { return DeviceRef{r.BlockID, r.PartitionID} }

// Ref returns the source identity of the row.
func (r *AvailableRow) Ref() DeviceRef { return DeviceRef{r.BlockID, r.PartitionID} }

// Ref returns the source identity of the row.
func (r *UsedRow) Ref() DeviceRef { return DeviceRef{r.BlockID, r.PartitionID} }
