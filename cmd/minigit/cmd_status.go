package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			st, err := r.Status()
			if err != nil {
				return err
			}
			head, born, err := r.Refs.ResolveHead()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case st.Branch == "":
				fmt.Fprintf(out, "HEAD detached at %s\n", head.Short())
			case !born:
				fmt.Fprintf(out, "on %s (no commits yet)\n", st.Branch)
			default:
				fmt.Fprintf(out, "on %s\n", st.Branch)
			}

			if st.Clean() {
				fmt.Fprintln(out, "nothing to commit, working tree clean")
				return nil
			}
			writeStatusSection(out, "staged:", []statusGroup{
				{"new", st.StagedNew},
				{"modified", st.StagedModified},
				{"deleted", st.StagedDeleted},
			})
			writeStatusSection(out, "unstaged:", []statusGroup{
				{"modified", st.Modified},
				{"deleted", st.Deleted},
			})
			writeStatusSection(out, "untracked:", []statusGroup{
				{"", st.Untracked},
			})
			return nil
		},
	}
}

type statusGroup struct {
	label string
	paths []string
}

func writeStatusSection(out io.Writer, title string, groups []statusGroup) {
	total := 0
	for _, g := range groups {
		total += len(g.paths)
	}
	if total == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, title)
	for _, g := range groups {
		for _, p := range g.paths {
			if g.label == "" {
				fmt.Fprintf(out, "  %s\n", p)
			} else {
				fmt.Fprintf(out, "  %-9s %s\n", g.label+":", p)
			}
		}
	}
}
