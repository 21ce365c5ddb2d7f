package session

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// SweepOrphans kills marked Chromium processes whose session is no longer
// owned by any controller. Browsers launched here carry a mark argument in
// their command line, so a marked process whose mark is absent from live
// belongs to a crashed or leaked session. Only works on Linux; elsewhere it is
// a no-op.
func SweepOrphans(live map[string]bool) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return
	}

	killed := 0
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}

		cmdline, err := os.ReadFile(filepath.Join("/proc", entry.Name(), "cmdline"))
		if err != nil {
			continue
		}

		mark := markFromCmdline(cmdline)
		if mark == "" || live[mark] {
			continue
		}

		if err := syscall.Kill(pid, syscall.SIGKILL); err == nil {
			killed++
		}
	}

	if killed > 0 {
		log.Printf("🔄 Orphan sweep killed %d leaked browser processes", killed)
	}
}

// markFromCmdline pulls the session mark out of a NUL-separated /proc cmdline.
func markFromCmdline(cmdline []byte) string {
	for _, arg := range bytes.Split(cmdline, []byte{0}) {
		s := string(arg)
		if strings.HasPrefix(s, markPrefix) {
			return strings.TrimPrefix(s, markPrefix)
		}
	}
	return ""
}
