package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset [paths...]",
		Short: "Unstage paths, restoring their index entries to HEAD",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			var paths []string
			if len(args) > 0 {
				paths = args
			}
			changed, err := r.Reset(paths)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range changed {
				fmt.Fprintf(out, "unstaged %s\n", p)
			}
			return nil
		},
	}
}
