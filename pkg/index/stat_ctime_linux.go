//go:build linux

package index

import "syscall"

func statCTime(st *syscall.Stat_t) int64 {
	return int64(st.Ctim.Sec)
}
