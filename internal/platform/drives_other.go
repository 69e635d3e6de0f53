//go:build !linux && !darwin && !windows

package platform

func systemDrives() ([]Drive, error) {
	return []Drive{{Path: "/"}}, nil
}
