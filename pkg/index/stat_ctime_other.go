//go:build unix && !linux

package index

import "syscall"

// statCTime reports 0 where the ctime field name differs by platform; the
// caller keeps the modification time instead.
func statCTime(*syscall.Stat_t) int64 {
	return 0
}
