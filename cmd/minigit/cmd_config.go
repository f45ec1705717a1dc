package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit repository config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			cfg, err := r.ReadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user.name=%s\n", cfg.User.Name)
			fmt.Fprintf(out, "user.email=%s\n", cfg.User.Email)
			fmt.Fprintf(out, "core.default_branch=%s\n", cfg.Core.DefaultBranch)
			names := make([]string, 0, len(cfg.Remotes))
			for name := range cfg.Remotes {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "remotes.%s.url=%s\n", name, cfg.Remotes[name].URL)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "user <name> <email>",
		Short: "Set the commit identity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			return r.SetUser(args[0], args[1])
		},
	})

	return cmd
}
