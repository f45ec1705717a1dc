package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckoutCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "checkout <branch|commit>",
		Short: "Replace the working tree and index with a branch or commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			if err := r.Checkout(args[0], force); err != nil {
				return err
			}
			branch, err := r.CurrentBranch()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if branch == "" {
				fmt.Fprintf(out, "HEAD is now detached at %s\n", args[0])
			} else {
				fmt.Fprintf(out, "switched to branch '%s'\n", branch)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "discard local changes to tracked files")

	return cmd
}
