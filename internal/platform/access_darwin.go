package platform

import (
	"os"
	"os/exec"

	"github.com/pkg/errors"
)

const privacySettingsURL = "x-apple.systempreferences:com.apple.preference.security?Privacy_AllFiles"

// protectedPaths are readable only with Full Disk Access.
var protectedPaths = []string{
	"/Library/Application Support/com.apple.TCC",
	"/Users",
	"/System",
}

// RequestDiskAccess reports whether Full Disk Access has been granted. When it
// has not, the caller should explain the situation and may call
// OpenPrivacySettings.
func RequestDiskAccess() (bool, error) {
	for _, p := range protectedPaths {
		if _, err := os.Stat(p); err == nil {
			return true, nil
		}
	}
	return false, nil
}

// OpenPrivacySettings opens the Full Disk Access pane.
func OpenPrivacySettings() error {
	return errors.Wrap(exec.Command("open", privacySettingsURL).Start(), "unable to open privacy settings")
}
