package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBranchCmd() *cobra.Command {
	var deleteBranch string
	var switchBranch bool

	cmd := &cobra.Command{
		Use:   "branch [name [start]]",
		Short: "List, create, delete or switch branches",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if deleteBranch != "" {
				if err := r.DeleteBranch(deleteBranch); err != nil {
					return err
				}
				fmt.Fprintf(out, "deleted branch '%s'\n", deleteBranch)
				return nil
			}

			if switchBranch {
				if len(args) != 1 {
					return fmt.Errorf("--switch takes exactly one branch name")
				}
				if err := r.SwitchBranch(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(out, "HEAD now tracks '%s'\n", args[0])
				return nil
			}

			if len(args) > 0 {
				start := ""
				if len(args) == 2 {
					start = args[1]
				}
				target, err := resolveRevision(r, start)
				if err != nil {
					return err
				}
				return r.CreateBranch(args[0], target)
			}

			branches, err := r.ListBranches()
			if err != nil {
				return err
			}
			current, err := r.CurrentBranch()
			if err != nil {
				return err
			}
			for _, b := range branches {
				marker := " "
				if b.Name == current {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s %s\n", marker, b.Name, b.Hash.Short())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&deleteBranch, "delete", "d", "", "delete the named branch")
	cmd.Flags().BoolVarP(&switchBranch, "switch", "s", false, "point HEAD at the branch without touching files")

	return cmd
}
