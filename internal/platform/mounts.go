package platform

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// pseudoFilesystems never hold user data.
var pseudoFilesystems = map[string]bool{
	"autofs":      true,
	"binfmt_misc": true,
	"bpf":         true,
	"cgroup":      true,
	"cgroup2":     true,
	"configfs":    true,
	"debugfs":     true,
	"devpts":      true,
	"devtmpfs":    true,
	"fusectl":     true,
	"hugetlbfs":   true,
	"mqueue":      true,
	"nsfs":        true,
	"proc":        true,
	"pstore":      true,
	"rpc_pipefs":  true,
	"securityfs":  true,
	"sysfs":       true,
	"tmpfs":       true,
	"tracefs":     true,
}

type mountEntry struct {
	device string
	path   string
	fsType string
}

// parseMounts reads a mount table in fstab format. Pseudo filesystems are
// dropped and each mount point is reported once.
func parseMounts(r io.Reader) ([]mountEntry, error) {
	var mounts []mountEntry
	seen := make(map[string]bool)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 {
			continue
		}
		m := mountEntry{
			device: unescapeMount(fields[0]),
			path:   unescapeMount(fields[1]),
			fsType: fields[2],
		}
		if pseudoFilesystems[m.fsType] || seen[m.path] {
			continue
		}
		seen[m.path] = true
		mounts = append(mounts, m)
	}
	return mounts, sc.Err()
}

// unescapeMount decodes the octal escapes (\040 for space) used by the
// kernel in mount tables.
func unescapeMount(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+4 <= len(s) {
			if v, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(v))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
