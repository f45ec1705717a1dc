package main

import (
	"fmt"
	"strings"

	"github.com/odvcencio/minigit/pkg/object"
	"github.com/odvcencio/minigit/pkg/repo"
	"github.com/spf13/cobra"
)

func newCommitCmd() *cobra.Command {
	var message string
	var author string
	var allowEmpty bool
	var sign bool
	var signingKey string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record staged changes to the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(message) == "" {
				return fmt.Errorf("commit message is required (-m)")
			}

			r, err := openRepo()
			if err != nil {
				return err
			}

			opts := repo.CommitOptions{AllowEmpty: allowEmpty}
			if author != "" {
				sig, err := parseAuthor(author)
				if err != nil {
					return err
				}
				opts.Author = &sig
			}
			if sign || signingKey != "" {
				signer, keyPath, err := newSSHCommitSigner(signingKey)
				if err != nil {
					return err
				}
				logger.Debug("signing commit", "key", keyPath)
				opts.Signer = signer
			}

			res, err := r.Commit(message, opts)
			if err != nil {
				return err
			}

			branch := res.Branch
			if branch == "" {
				branch = "detached HEAD"
			}
			if res.Root {
				branch += " (root-commit)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, res.Hash.Short(), firstLine(message))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", `override author ("Name <email>")`)
	cmd.Flags().BoolVar(&allowEmpty, "allow-empty", false, "allow a commit that records no change")
	cmd.Flags().BoolVarP(&sign, "sign", "S", false, "sign the commit with an SSH key")
	cmd.Flags().StringVar(&signingKey, "signing-key", "", "SSH private key used to sign (default: ~/.ssh/id_ed25519, id_ecdsa, id_rsa)")

	return cmd
}

// parseAuthor accepts "Name <email>" or a bare name, whose email is derived
// the same way config-less identities are.
func parseAuthor(raw string) (object.Signature, error) {
	raw = strings.TrimSpace(raw)
	open := strings.Index(raw, "<")
	if open < 0 {
		if raw == "" {
			return object.Signature{}, fmt.Errorf("invalid author %q", raw)
		}
		return object.Signature{Name: raw, Email: strings.ReplaceAll(strings.ToLower(raw), " ", ".") + "@example.com"}, nil
	}
	end := strings.LastIndex(raw, ">")
	if end < open {
		return object.Signature{}, fmt.Errorf("invalid author %q: want \"Name <email>\"", raw)
	}
	name := strings.TrimSpace(raw[:open])
	email := strings.TrimSpace(raw[open+1 : end])
	if name == "" || email == "" {
		return object.Signature{}, fmt.Errorf("invalid author %q: want \"Name <email>\"", raw)
	}
	return object.Signature{Name: name, Email: email}, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
