package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "add <paths...>",
		Short: "Stage files for the next commit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			res, err := r.Add(args)
			if err != nil {
				return err
			}
			if !verbose {
				return nil
			}
			out := cmd.OutOrStdout()
			for _, e := range res.Staged {
				fmt.Fprintf(out, "add '%s'\n", e.Path)
			}
			for _, p := range res.Removed {
				fmt.Fprintf(out, "remove '%s'\n", p)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "list", "l", false, "list staged and removed paths")

	return cmd
}
