package storageview

// SelectionMode tracks whether the storage page has a pending bulk
// action: no rows selected, exactly one, or several.
type SelectionMode string

const (
	ModeNone   SelectionMode = "none"
	ModeSingle SelectionMode = "single"
	ModeMulti  SelectionMode = "multi"
)

// SelectedAvailable returns the available rows with Selected set,
// preserving order.
func SelectedAvailable(rows []*AvailableRow) []*AvailableRow {
	out := []*AvailableRow{}
	for _, r := range rows {
		if r.Selected {
			out = append(out, r)
		}
	}
	return out
}

// SelectedFilesystems returns the filesystem rows with Selected set,
// preserving order.
func SelectedFilesystems(rows []*FilesystemRow) []*FilesystemRow {
	out := []*FilesystemRow{}
	for _, r := range rows {
		if r.Selected {
			out = append(out, r)
		}
	}
	return out
}

// SelectedCacheSets returns the cache-set rows with Selected set,
// preserving order.
func SelectedCacheSets(rows []*CacheSetRow) []*CacheSetRow {
	out := []*CacheSetRow{}
	for _, r := range rows {
		if r.Selected {
			out = append(out, r)
		}
	}
	return out
}

// ToggleAvailable flips the selection flag on a single available row.
func ToggleAvailable(row *AvailableRow) { row.Selected = !row.Selected }

// ToggleFilesystem flips the selection flag on a single filesystem row.
func ToggleFilesystem(row *FilesystemRow) { row.Selected = !row.Selected }

// ToggleCacheSet flips the selection flag on a single cache-set row.
func ToggleCacheSet(row *CacheSetRow) { row.Selected = !row.Selected }

// NextMode recomputes the selection mode from the number of selected
// rows. Escalating to single or multi only happens when force is set,
// which interactive selection changes assert; a passive recompute
// after an unrelated data refresh leaves a single/multi mode alone.
// Dropping to none when the selection count reaches zero always
// happens, forced or not, so the page falls out of an action-pending
// state when the underlying rows disappear.
func NextMode(current SelectionMode, selectedCount int, force bool) SelectionMode {
	if selectedCount == 0 {
		return ModeNone
	}
	if !force {
		if current == "" {
			return ModeNone
		}
		return current
	}
	if selectedCount == 1 {
		return ModeSingle
	}
	return ModeMulti
}
