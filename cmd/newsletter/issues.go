package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xyz-social/newsletter/internal/cli"
	"github.com/xyz-social/newsletter/internal/issues"
	"github.com/xyz-social/newsletter/internal/markdown"
)

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available issues",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := issueStore().Issues()
			if err != nil {
				return err
			}

			if flagJSON {
				if list == nil {
					list = []issues.Issue{}
				}
				return printJSON(list)
			}

			fmt.Print(cli.FormatIssueList(cli.NewTheme(os.Stdout), list))
			if len(list) == 0 {
				fmt.Print(cli.Hint("list.empty", flagQuiet, flagJSON))
			} else {
				fmt.Print(cli.Hint("list", flagQuiet, flagJSON))
			}
			return nil
		},
	}
	return cmd
}

func readCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <number>",
		Short: "Render one issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := parseIssueNumber(args[0])
			if err != nil {
				return err
			}

			theme := cli.NewTheme(os.Stdout)
			content, err := issueStore().Read(n)
			if errors.Is(err, issues.ErrNotFound) {
				fmt.Println(theme.Paint(theme.Error, fmt.Sprintf("Issue #%d not found.", n)))
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Print(markdown.New(markdown.WithRenderer(theme.Renderer())).Render(content))
			fmt.Print(cli.Hint("read", flagQuiet, flagJSON))
			return nil
		},
	}
	return cmd
}

func latestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Render the most recent issue",
		RunE: func(cmd *cobra.Command, args []string) error {
			theme := cli.NewTheme(os.Stdout)
			_, content, err := issueStore().Latest()
			if errors.Is(err, issues.ErrNotFound) {
				fmt.Println(theme.Paint(theme.Warn, "No issues found."))
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Print(markdown.New(markdown.WithRenderer(theme.Renderer())).Render(content))
			fmt.Print(cli.Hint("read", flagQuiet, flagJSON))
			return nil
		},
	}
	return cmd
}

func newCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create the next issue from the template",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := issueStore()
			n, err := store.Create()
			if err != nil {
				return err
			}
			file := filepath.Join(store.Dir(), strconv.Itoa(n)+".md")

			if flagJSON {
				return printJSON(map[string]any{"number": n, "file": file})
			}

			theme := cli.NewTheme(os.Stdout)
			fmt.Println(theme.Paint(theme.Success, fmt.Sprintf("Created new issue #%d", n)))
			fmt.Println(theme.Paint(theme.Muted, file))
			fmt.Println("Edit the file to add your content.")
			fmt.Print(cli.Hint("new", flagQuiet, flagJSON))
			return nil
		},
	}
	return cmd
}

func parseIssueNumber(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid issue number %q: must be a positive integer", arg)
	}
	return n, nil
}
