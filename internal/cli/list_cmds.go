package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"carservice/internal/model"
	"carservice/internal/pagination"
	"carservice/internal/resource"
)

var searchGroups = []string{"users", "cars", "services"}

func newListCmd(app *App) *cobra.Command {
	var page int
	var filter string

	cmd := &cobra.Command{
		Use:   "list <entity>",
		Short: "Print one page of an entity list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := app.session(ctx)
			if err != nil {
				return err
			}
			s, err := app.schema(sess, args[0])
			if err != nil {
				return err
			}

			coll := pagination.NewCollection(s.Fetcher(app.api, sess.Token), app.pageSize).Seed(page).Filter(filter)
			defer coll.Close()
			if err := coll.Load(ctx); err != nil {
				return app.fail(ctx, sess, err)
			}
			printView(cmd.OutOrStdout(), s.Title, coll.View(s.Columns, pagination.Actions[model.Record]{}))
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVar(&filter, "filter", "", "filter value (car id for services)")
	return cmd
}

func newBrowseCmd(app *App) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "browse <entity>",
		Short: "Page through an entity list interactively (n, p, q)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := app.session(ctx)
			if err != nil {
				return err
			}
			s, err := app.schema(sess, args[0])
			if err != nil {
				return err
			}

			coll := pagination.NewCollection(s.Fetcher(app.api, sess.Token), app.pageSize).Filter(filter)
			defer coll.Close()
			return browse(ctx, app, sess, s, coll, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "filter value (car id for services)")
	return cmd
}

func browse(ctx context.Context, app *App, sess *model.Session, s *resource.Schema, coll *pagination.Collection[model.Record], in io.Reader, out io.Writer) error {
	show := func(err error) error {
		if err != nil {
			if failed := app.fail(ctx, sess, err); errors.Is(failed, ErrSessionExpired) {
				return failed
			}
		}
		printView(out, s.Title, coll.View(s.Columns, pagination.Actions[model.Record]{}))
		return nil
	}

	if err := show(coll.Load(ctx)); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "[n]ext [p]revious [r]eload [q]uit> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		var err error
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n", "next":
			var moved bool
			if moved, err = coll.Next(ctx); !moved && err == nil {
				fmt.Fprintln(out, "Already on the last page.")
				continue
			}
		case "p", "prev", "previous":
			var moved bool
			if moved, err = coll.Prev(ctx); !moved && err == nil {
				fmt.Fprintln(out, "Already on the first page.")
				continue
			}
		case "r", "reload":
			err = coll.Load(ctx)
		case "q", "quit", "exit":
			return nil
		case "":
			continue
		default:
			fmt.Fprintln(out, "Unknown command.")
			continue
		}
		if err := show(err); err != nil {
			return err
		}
	}
}

func newSearchCmd(app *App) *cobra.Command {
	var page int
	var group string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search users, cars and services",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := app.session(ctx)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			req := pagination.PageRequest{Page: max(page, 1), PerPage: app.pageSize, Filter: query}
			res, err := app.api.Search(ctx, sess.Token, "/"+sess.Role+"/search", req)
			if err != nil {
				return app.fail(ctx, sess, err)
			}

			out := cmd.OutOrStdout()
			found := false
			for _, g := range searchGroups {
				s, ok := app.registry.Lookup(sess.Role, g)
				first := res[g]
				if !ok || (group != "" && group != g) || (len(first.Items) == 0 && first.TotalPages == 0) {
					continue
				}
				g := g
				coll := pagination.NewCollection(func(ctx context.Context, r pagination.PageRequest) (pagination.PageResult[model.Record], error) {
					if r.Page == req.Page {
						return first, nil
					}
					more, err := app.api.Search(ctx, sess.Token, "/"+sess.Role+"/search", r)
					if err != nil {
						return pagination.PageResult[model.Record]{}, err
					}
					return more[g], nil
				}, app.pageSize).Seed(req.Page).Filter(query)
				err := coll.Load(ctx)
				coll.Close()
				if err != nil {
					return app.fail(ctx, sess, err)
				}
				printView(out, s.Title, coll.View(s.Columns, pagination.Actions[model.Record]{}))
				found = true
			}
			if !found {
				fmt.Fprintf(out, "No results found for %q.\n", query)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVar(&group, "group", "", "only show one group: users, cars or services")
	return cmd
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// plain turns a rendered cell back into one line of text.
func plain(c pagination.Cell) string {
	text := c.Text
	if c.HTML {
		text = html.UnescapeString(tagPattern.ReplaceAllString(text, ""))
	}
	return strings.Join(strings.Fields(text), " ")
}

func printView(out io.Writer, title string, v pagination.View) {
	fmt.Fprintf(out, "== %s ==\n", title)
	if v.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", v.Error)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(v.Headers, "\t"))
	if v.Empty {
		fmt.Fprintln(tw, "No records found")
	}
	for _, row := range v.Rows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = plain(c)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	_ = tw.Flush()

	if v.TotalPages > 0 {
		fmt.Fprintf(out, "Page %d of %d\n", v.Page, v.TotalPages)
	}
}
