//go:build unix

package index

import (
	"os"
	"syscall"
)

func fillStat(e *Entry, info os.FileInfo) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	e.UID = st.Uid
	e.GID = st.Gid
	e.Dev = uint64(st.Dev)
	e.Ino = uint64(st.Ino)
	if ct := statCTime(st); ct != 0 {
		e.CTime = ct
	}
}
