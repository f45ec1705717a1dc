package diff

import (
	"fmt"
	"io"
	"strconv"

	"github.com/odvcencio/minigit/pkg/object"
)

// Part identifies a piece of rendered output for styling.
type Part int

const (
	PartFileHeader Part = iota
	PartHunkHeader
	PartContext
	PartAdded
	PartRemoved
)

// Styler decorates one rendered line. It must not add or remove lines.
type Styler func(part Part, line string) string

// FormatOptions configures Format.
type FormatOptions struct {
	Style Styler
}

const zeroShort = "0000000"

// Format writes a unified-diff rendering of res to w.
func Format(w io.Writer, res *Result, opts FormatOptions) error {
	style := opts.Style
	if style == nil {
		style = func(_ Part, line string) string { return line }
	}
	for i := range res.Files {
		if err := formatFile(w, &res.Files[i], style); err != nil {
			return err
		}
	}
	return nil
}

func formatFile(w io.Writer, fd *FileDiff, style Styler) error {
	mode := modeString(fd.Mode)
	header := []string{fmt.Sprintf("diff --git a/%s b/%s", fd.Path, fd.Path)}
	switch fd.Change {
	case Added:
		header = append(header,
			"new file mode "+mode,
			fmt.Sprintf("index %s..%s %s", zeroShort, fd.NewHash.Short(), mode),
			"--- /dev/null",
			"+++ b/"+fd.Path,
		)
	case Deleted:
		header = append(header,
			"deleted file mode "+mode,
			fmt.Sprintf("index %s..%s %s", fd.OldHash.Short(), zeroShort, mode),
			"--- a/"+fd.Path,
			"+++ /dev/null",
		)
	case Modified:
		header = append(header,
			fmt.Sprintf("index %s..%s %s", fd.OldHash.Short(), fd.NewHash.Short(), mode),
			"--- a/"+fd.Path,
			"+++ b/"+fd.Path,
		)
	}
	for _, line := range header {
		if _, err := fmt.Fprintln(w, style(PartFileHeader, line)); err != nil {
			return err
		}
	}

	if fd.Binary {
		if _, err := fmt.Fprintln(w, "Binary files differ"); err != nil {
			return err
		}
	}
	for _, c := range fd.Chunks {
		hunk := fmt.Sprintf("@@ -%d,%d +%d,%d @@", c.OldStart, c.OldCount, c.NewStart, c.NewCount)
		if _, err := fmt.Fprintln(w, style(PartHunkHeader, hunk)); err != nil {
			return err
		}
		for _, l := range c.Lines {
			var text string
			var part Part
			switch l.Kind {
			case LineAdded:
				text, part = "+"+l.Content, PartAdded
			case LineRemoved:
				text, part = "-"+l.Content, PartRemoved
			default:
				text, part = " "+l.Content, PartContext
			}
			if _, err := fmt.Fprintln(w, style(part, text)); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func modeString(m object.FileMode) string {
	if m == 0 {
		m = object.ModeRegular
	}
	return strconv.FormatUint(uint64(m), 8)
}
