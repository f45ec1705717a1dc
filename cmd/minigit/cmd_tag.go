package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTagCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "tag [name [target]]",
		Short: "List tags or create one",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			if len(args) > 0 {
				rev := ""
				if len(args) == 2 {
					rev = args[1]
				}
				target, err := resolveRevision(r, rev)
				if err != nil {
					return err
				}
				return r.CreateTag(args[0], target, force)
			}

			tags, err := r.ListTags()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range tags {
				fmt.Fprintf(out, "%s %s\n", t.Name, t.Hash.Short())
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing tag")

	return cmd
}
