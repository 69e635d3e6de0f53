//go:build !darwin

package platform

// RequestDiskAccess reports whether the process may read the whole disk.
// Only macOS gates this behind a privacy setting.
func RequestDiskAccess() (bool, error) {
	return true, nil
}

// OpenPrivacySettings is a no-op outside macOS.
func OpenPrivacySettings() error {
	return nil
}
