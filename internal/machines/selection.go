package machines

import (
	"errors"

	"ironview/backend/ivd/internal/storageview"
)

// Storage page sections.
const (
	SectionFilesystems = "filesystems"
	SectionCacheSets   = "cachesets"
	SectionAvailable   = "available"
)

var ErrRowNotFound = errors.New("row not found")

// ToggleSelection flips a row's selection flag and recomputes the
// section's mode. This is an interactive change, so the recompute is
// forced and may escalate the mode.
func (m *Manager) ToggleSelection(id, section string, ref storageview.DeviceRef) (SelectionModes, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	vs, ok := m.views[id]
	if !ok {
		return SelectionModes{}, ErrNotFound
	}

	switch section {
	case SectionFilesystems:
		for _, r := range vs.projection.Filesystems {
			if r.Ref() == ref {
				storageview.ToggleFilesystem(r)
				vs.modes.Filesystems = storageview.NextMode(vs.modes.Filesystems,
					len(storageview.SelectedFilesystems(vs.projection.Filesystems)), true)
				return vs.modes, nil
			}
		}
	case SectionCacheSets:
		for _, r := range vs.projection.CacheSets {
			if r.CacheSetID == ref.BlockID {
				storageview.ToggleCacheSet(r)
				vs.modes.CacheSets = storageview.NextMode(vs.modes.CacheSets,
					len(storageview.SelectedCacheSets(vs.projection.CacheSets)), true)
				return vs.modes, nil
			}
		}
	case SectionAvailable:
		for _, r := range vs.projection.Available {
			if r.Ref() == ref {
				storageview.ToggleAvailable(r)
				vs.modes.Available = storageview.NextMode(vs.modes.Available,
					len(storageview.SelectedAvailable(vs.projection.Available)), true)
				return vs.modes, nil
			}
		}
	}
	return SelectionModes{}, ErrRowNotFound
}

// SetRowOptions attaches an edit-form scratch object to an available
// row. The object survives re-projections of the same source identity.
func (m *Manager) SetRowOptions(id string, ref storageview.DeviceRef, options map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vs, ok := m.views[id]
	if !ok {
		return ErrNotFound
	}
	for _, r := range vs.projection.Available {
		if r.Ref() == ref {
			r.Options = options
			return nil
		}
	}
	return ErrRowNotFound
}
