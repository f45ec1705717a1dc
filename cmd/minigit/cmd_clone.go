package main

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/minigit/pkg/object"
	"github.com/odvcencio/minigit/pkg/remote"
	"github.com/odvcencio/minigit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCloneCmd() *cobra.Command {
	var remoteName string
	var branch string

	cmd := &cobra.Command{
		Use:   "clone <remote-url> [directory]",
		Short: "Clone a repository served over HTTP",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			dest := ""
			if len(args) == 2 {
				dest = args[1]
			} else {
				dest = cloneDirName(source)
			}
			if strings.TrimSpace(dest) == "" {
				return fmt.Errorf("destination directory is required")
			}
			absDest, err := filepath.Abs(dest)
			if err != nil {
				return fmt.Errorf("resolve destination: %w", err)
			}
			if err := ensureEmptyDir(absDest); err != nil {
				return err
			}

			client := remote.NewClient(remote.ClientOptions{})
			client.SetLogger(logger)
			adv, err := client.DiscoverRefs(cmd.Context(), source)
			if err != nil {
				return err
			}

			state := repo.RemoteState{
				Name:          remoteName,
				URL:           source,
				Branches:      adv.Branches(),
				Tags:          adv.Tags(),
				DefaultBranch: adv.DefaultBranch(),
			}
			if b := strings.TrimSpace(branch); b != "" {
				if _, ok := state.Branches[b]; !ok {
					return fmt.Errorf("remote branch %q not found", b)
				}
				state.DefaultBranch = b
			}

			r, err := repo.Init(absDest, repo.InitOptions{Branch: state.DefaultBranch})
			if err != nil {
				return err
			}
			r.SetLogger(logger)

			wants := cloneWants(state)
			if len(wants) > 0 {
				fetcher := &remote.LooseFetcher{Client: client}
				records, err := fetcher.Fetch(cmd.Context(), source, wants, r.Store.Has)
				if err != nil {
					logger.Warn("object fetch failed; refs recorded without checkout", "remote", source, "error", err)
				} else {
					n, err := remote.StoreObjects(r.Store, records)
					if err != nil {
						return err
					}
					logger.Debug("stored fetched objects", "count", n)
				}
			}

			res, err := r.ApplyRemote(state)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case len(state.Branches) == 0:
				fmt.Fprintf(out, "cloned empty repository into %s\n", absDest)
			case res.CheckedOut == "":
				fmt.Fprintf(out, "cloned %s into %s (objects unavailable, nothing checked out)\n", source, absDest)
			default:
				fmt.Fprintf(out, "cloned %s into %s on branch '%s'\n", source, absDest, res.CheckedOut)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&remoteName, "remote-name", "origin", "name to assign to the cloned remote")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "branch to check out instead of the remote default")
	return cmd
}

// cloneWants lists every advertised branch and tag target once, sorted.
func cloneWants(state repo.RemoteState) []object.Hash {
	seen := make(map[object.Hash]bool)
	var wants []object.Hash
	for _, m := range []map[string]object.Hash{state.Branches, state.Tags} {
		for _, h := range m {
			if h != "" && !seen[h] {
				seen[h] = true
				wants = append(wants, h)
			}
		}
	}
	sort.Slice(wants, func(i, j int) bool { return wants[i] < wants[j] })
	return wants
}

// cloneDirName derives a directory from the last URL path segment,
// dropping a trailing ".git".
func cloneDirName(source string) string {
	u, err := url.Parse(source)
	if err != nil {
		return ""
	}
	base := path.Base(strings.TrimRight(u.Path, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, ".git")
}

func ensureEmptyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read destination %s: %w", dir, err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("destination %s already exists and is not empty", dir)
	}
	return nil
}
