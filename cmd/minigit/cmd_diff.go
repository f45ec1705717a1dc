package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/odvcencio/minigit/pkg/diff"
	"github.com/odvcencio/minigit/pkg/repo"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newDiffCmd() *cobra.Command {
	var cached bool
	var stat bool
	var color string

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show changes between the working tree, the index and HEAD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colored, err := useColor(color, out)
			if err != nil {
				return err
			}

			r, err := openRepo()
			if err != nil {
				return err
			}
			res, err := r.Diff(repo.DiffOptions{Cached: cached})
			if err != nil {
				return err
			}

			if stat {
				fmt.Fprintln(out, res.Summary())
				return nil
			}
			opts := diff.FormatOptions{}
			if colored {
				opts.Style = newDiffStyler(out)
			}
			return diff.Format(out, res, opts)
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "compare the index with HEAD instead of the working tree with the index")
	cmd.Flags().BoolVar(&stat, "stat", false, "print only the change summary")
	cmd.Flags().StringVar(&color, "color", "auto", "colorize output: auto, always or never")

	return cmd
}

// useColor resolves a --color value. auto colors only a terminal.
func useColor(mode string, out io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto", "":
		f, ok := out.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (want auto, always or never)", mode)
	}
}

// newDiffStyler colors diff lines with ANSI escapes regardless of what the
// environment advertises; the caller has already decided to color.
func newDiffStyler(out io.Writer) diff.Styler {
	renderer := lipgloss.NewRenderer(out, termenv.WithProfile(termenv.ANSI))
	renderer.SetColorProfile(termenv.ANSI)

	styles := map[diff.Part]lipgloss.Style{
		diff.PartFileHeader: renderer.NewStyle().Bold(true),
		diff.PartHunkHeader: renderer.NewStyle().Foreground(lipgloss.Color("6")),
		diff.PartAdded:      renderer.NewStyle().Foreground(lipgloss.Color("2")),
		diff.PartRemoved:    renderer.NewStyle().Foreground(lipgloss.Color("1")),
	}
	return func(part diff.Part, line string) string {
		style, ok := styles[part]
		if !ok || line == "" {
			return line
		}
		return style.Render(line)
	}
}
