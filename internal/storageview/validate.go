package storageview

import "strings"

// HasUnmountedFilesystem reports whether the row carries a formatted
// filesystem that is not mounted anywhere. The "none" sentinel counts
// as mounted.
func HasUnmountedFilesystem(fstype, mountPoint string) bool {
	return fstype != "" && mountPoint == ""
}

// IsMountPointInvalid reports whether a user-entered mount point is
// unusable. Empty input and the sentinel "none" are fine (the form is
// simply incomplete or requests no mount); anything else must be an
// absolute path.
func IsMountPointInvalid(value string) bool {
	if value == "" || value == "none" {
		return false
	}
	return !strings.HasPrefix(value, "/")
}

// IsNameInvalid reports whether candidate collides with another
// existing name. The row's own current name never counts as a
// collision so an edit form can be confirmed without renaming.
func IsNameInvalid(candidate, current string, existing []string) bool {
	for _, name := range existing {
		if name == current {
			continue
		}
		if name == candidate {
			return true
		}
	}
	return false
}
