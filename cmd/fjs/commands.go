package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/slobbe/fruit-jam-store/internal/session"
	"github.com/slobbe/fruit-jam-store/internal/tui"
	models "github.com/slobbe/fruit-jam-store/internal/types"
)

const (
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[0;33m"
	colorHeader = "\033[1m\033[4m"
	colorDim    = "\033[2m\033[3m"
)

func categoriesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List catalog categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, setupOptions{}, func(ctx context.Context, s *store) error {
				view, err := s.session.LoadCatalog(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, name := range view.Categories {
					fmt.Fprintln(out, name)
				}
				return nil
			})
		},
	}
}

func listCmd(opts *rootOptions) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "list [category]",
		Short: "Show one page of a category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				return fmt.Errorf("page must be at least 1, got %d", page)
			}
			return withStore(cmd, opts, setupOptions{}, func(ctx context.Context, s *store) error {
				view, err := s.session.LoadCatalog(ctx)
				if err != nil {
					return err
				}

				if len(args) == 1 {
					name := args[0]
					if !containsFold(view.Categories, &name) {
						return fmt.Errorf("unknown category %q (available: %s)", args[0], strings.Join(view.Categories, ", "))
					}
					if view, err = s.session.SelectCategory(ctx, name); err != nil {
						return err
					}
				}

				if page > 1 {
					if page > view.PageCount {
						return fmt.Errorf("page %d out of range, %s has %d page(s)", page, view.Category, view.PageCount)
					}
					if view, err = s.session.ShowPage(ctx, page-1); err != nil {
						return err
					}
				}

				printPage(cmd.OutOrStdout(), useColor(opts), view)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number, starting at 1")
	return cmd
}

func printPage(out io.Writer, color bool, view session.View) {
	header := fmt.Sprintf("%s (page %d/%d)", view.Category, view.Page+1, max(view.PageCount, 1))
	fmt.Fprintln(out, colorize(color, colorHeader, header))

	for i, slot := range view.Slots {
		if slot.Hidden {
			continue
		}
		record := slot.Record
		row := fmt.Sprintf("%d  %-24s %-16s %s", i+1, record.Title, record.Author, record.Identifier)
		if slot.Installed {
			row += "  " + colorize(color, colorGreen, "[installed]")
		}
		fmt.Fprintln(out, row)
		if desc := strings.TrimSpace(record.Description); desc != "" {
			fmt.Fprintf(out, "   %s\n", desc)
		}
	}

	if view.Status != "" {
		fmt.Fprintln(out, colorize(color, colorDim, view.Status))
	}
}

func infoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info <owner/repo>",
		Short: "Show the display record of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := models.ParseIdentifier(args[0])
			if err != nil {
				return err
			}
			return withStore(cmd, opts, setupOptions{}, func(ctx context.Context, s *store) error {
				var warnings []string
				record := s.resolver.Resolve(ctx, id, func(status string) {
					if strings.HasPrefix(status, "Unable") {
						warnings = append(warnings, status)
					}
				})

				out := cmd.OutOrStdout()
				color := useColor(opts)
				for _, w := range warnings {
					fmt.Fprintln(out, colorize(color, colorYellow, w))
				}

				installed := "no"
				if s.installer.IsInstalled(id) {
					installed = "yes (" + s.installer.InstallDir(id) + ")"
				}
				icon := record.Icon
				if icon == "" {
					icon = "none"
				}

				fmt.Fprintln(out, colorize(color, colorHeader, record.Title))
				fmt.Fprintf(out, "%-12s %s\n", "Repository:", record.Identifier)
				fmt.Fprintf(out, "%-12s %s\n", "Author:", record.Author)
				fmt.Fprintf(out, "%-12s %s\n", "Description:", record.Description)
				fmt.Fprintf(out, "%-12s %s\n", "Branch:", record.DefaultBranch)
				fmt.Fprintf(out, "%-12s %s\n", "Icon:", icon)
				fmt.Fprintf(out, "%-12s %s\n", "Installed:", installed)
				return nil
			})
		},
	}
}

func installCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "install <owner/repo>",
		Short: "Install an application from its latest release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStaged(cmd, opts, args[0], setupOptions{progress: true}, func(ctx context.Context, c *session.Controller) (session.View, error) {
				return c.ConfirmInstall(ctx)
			})
		},
	}
}

func removeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <owner/repo>",
		Aliases: []string{"rm"},
		Short:   "Remove an installed application",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStaged(cmd, opts, args[0], setupOptions{}, func(ctx context.Context, c *session.Controller) (session.View, error) {
				return c.ConfirmRemove(ctx)
			})
		},
	}
}

// runStaged drives the session the same way the browser does: load the
// catalog, stage the application, then confirm.
func runStaged(cmd *cobra.Command, opts *rootOptions, input string, so setupOptions, confirm func(context.Context, *session.Controller) (session.View, error)) error {
	id, err := models.ParseIdentifier(input)
	if err != nil {
		return err
	}

	return withStore(cmd, opts, so, func(ctx context.Context, s *store) error {
		if _, err := s.session.OpenCatalog(ctx); err != nil {
			return err
		}
		if _, err := s.session.Stage(id); err != nil {
			return err
		}

		view, err := confirm(ctx, s.session)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), colorize(useColor(opts), colorGreen, view.Status))
		return nil
	})
}

func installedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "installed",
		Short: "List installed applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, setupOptions{}, func(ctx context.Context, s *store) error {
				names, err := s.installer.Installed()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(names) == 0 {
					fmt.Fprintln(out, colorize(useColor(opts), colorYellow, "No applications installed"))
					return nil
				}
				for _, name := range names {
					fmt.Fprintln(out, name)
				}
				return nil
			})
		},
	}
}

func cacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the content cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clean",
		Short: "Remove every cached file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, opts, setupOptions{}, func(ctx context.Context, s *store) error {
				n, err := s.cache.Clear()
				if err != nil {
					return err
				}
				msg := fmt.Sprintf("Removed %d cache entries from %s", n, s.cache.Root())
				fmt.Fprintln(cmd.OutOrStdout(), colorize(useColor(opts), colorGreen, msg))
				return nil
			})
		},
	})

	return cmd
}

func browseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the catalog interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var program *tea.Program
			so := setupOptions{session: []session.Option{
				session.WithStatusListener(func(status string) {
					if program != nil {
						program.Send(tui.StatusMsg(status))
					}
				}),
			}}

			return withStore(cmd, opts, so, func(ctx context.Context, s *store) error {
				app := tui.New(ctx, s.session, s.settings.RestartDelay)
				program = tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
				_, err := program.Run()
				return err
			})
		},
	}
}

// containsFold reports whether name matches one of names ignoring case, and
// rewrites name to the catalog's spelling.
func containsFold(names []string, name *string) bool {
	for _, candidate := range names {
		if strings.EqualFold(candidate, *name) {
			*name = candidate
			return true
		}
	}
	return false
}
