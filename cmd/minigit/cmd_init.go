package main

import (
	"fmt"

	"github.com/odvcencio/minigit/pkg/repo"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	var branch string

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			r, err := repo.Init(path, repo.InitOptions{Branch: branch})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "initialized empty repository in %s\n", r.MetaDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&branch, "branch", "b", "", "name of the initial branch (default: main)")

	return cmd
}
