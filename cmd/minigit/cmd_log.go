package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/odvcencio/minigit/pkg/object"
	"github.com/odvcencio/minigit/pkg/repo"
	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	var oneline bool
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show first-parent commit history from HEAD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			res, err := r.Log(limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(res.Entries) == 0 {
				fmt.Fprintln(out, "no commits yet")
				return nil
			}

			branchName, _ := r.CurrentBranch()
			headHash := res.Entries[0].Hash
			now := time.Now()
			for _, entry := range res.Entries {
				decoration := buildDecoration(entry.Hash, headHash, branchName)
				if oneline {
					writeOneline(out, entry, decoration)
				} else {
					writeEntry(out, entry, decoration, now)
				}
			}
			if res.HasMore {
				fmt.Fprintf(out, "... older commits omitted (use -n to show more)\n")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of commits to show (0 for all)")

	return cmd
}

func writeOneline(out io.Writer, entry repo.LogEntry, decoration string) {
	subject := firstLine(entry.Commit.Message)
	if decoration != "" {
		fmt.Fprintf(out, "%s %s %s\n", entry.Hash.Short(), decoration, subject)
		return
	}
	fmt.Fprintf(out, "%s %s\n", entry.Hash.Short(), subject)
}

func writeEntry(out io.Writer, entry repo.LogEntry, decoration string, now time.Time) {
	c := entry.Commit
	if decoration != "" {
		fmt.Fprintf(out, "commit %s %s\n", entry.Hash, decoration)
	} else {
		fmt.Fprintf(out, "commit %s\n", entry.Hash)
	}
	if len(c.Parents) > 1 {
		parents := make([]string, len(c.Parents))
		for i, p := range c.Parents {
			parents[i] = p.Short()
		}
		fmt.Fprintf(out, "Merge:  %s\n", strings.Join(parents, " "))
	}
	fmt.Fprintf(out, "Author: %s <%s>\n", c.Author.Name, c.Author.Email)
	when := time.Unix(c.Author.Timestamp, 0)
	fmt.Fprintf(out, "Date:   %s (%s)\n", when.Format("2006-01-02 15:04:05 -0700"), humanize.RelTime(when, now, "ago", "from now"))
	fmt.Fprintln(out)
	for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
		fmt.Fprintf(out, "    %s\n", line)
	}
	fmt.Fprintln(out)
}

// buildDecoration returns "(HEAD -> main)" for the commit HEAD points at,
// "(HEAD)" when detached, and "" for every other commit.
func buildDecoration(commitHash, headHash object.Hash, branchName string) string {
	if commitHash != headHash {
		return ""
	}
	if branchName != "" {
		return "(HEAD -> " + branchName + ")"
	}
	return "(HEAD)"
}
