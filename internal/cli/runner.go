package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/idilsaglam/usertodo/internal/adapter"
	"github.com/idilsaglam/usertodo/internal/directory"
	"github.com/idilsaglam/usertodo/internal/export"
	"github.com/idilsaglam/usertodo/internal/model"
	"github.com/idilsaglam/usertodo/internal/session"
	"github.com/idilsaglam/usertodo/internal/ui"
)

// -------------- user + session commands ----------------

func newUsersCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "List users and how many items each has",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := e.users.Users()
			if err != nil {
				return failf("users: %w", err)
			}
			t := ui.Current()
			lines := []string{t.Title.Render("Users")}
			if len(users) == 0 {
				lines = append(lines, t.Muted.Render("no users; add one with `todo users add <id> <name>`"))
			}
			for _, u := range users {
				recs, _, err := e.store.ListForUser(u.ID())
				if err != nil {
					return failf("users: %w", err)
				}
				d, p := recs.Stats()
				lines = append(lines, fmt.Sprintf("%s %s  %s %d  %s %d",
					u.ID(), t.Muted.Render(u.Name()),
					t.Success.Render(t.SymDone), d,
					t.Pending.Render(t.SymPending), p))
			}
			ui.Panel(cmd.OutOrStdout(), lines)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <id> [name...]",
		Short: "Register a user",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if id == "" {
				return usagef("users add: empty id")
			}
			name := strings.Join(args[1:], " ")
			if name == "" {
				name = id
			}
			if err := e.users.AddUser(id, name); err != nil {
				if errors.Is(err, directory.ErrUserExists) {
					return usagef("users add: %q already exists", id)
				}
				return failf("users add: %w", err)
			}
			ui.OK(cmd.OutOrStdout(), "added user "+id)
			return nil
		},
	})
	return cmd
}

func newLoginCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "login <user>",
		Short: "Act as a user from now on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ok, err := e.users.Get(args[0])
			if err != nil {
				return failf("login: %w", err)
			}
			if !ok {
				return usagef("login: unknown user %q", args[0])
			}
			if err := session.Set(args[0]); err != nil {
				return failf("login: %w", err)
			}
			ui.OK(cmd.OutOrStdout(), "logged in as "+args[0])
			return nil
		},
	}
}

func newLogoutCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the active user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := session.Delete(); err != nil {
				return failf("logout: %w", err)
			}
			ui.OK(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoAmICommand(e *env, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the active user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, source, err := activeUser(opts)
			if err != nil {
				return failf("whoami: %w", err)
			}
			if id == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "not logged in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user:   %s\nsource: %s\n", id, source)
			return nil
		},
	}
}

// activeUser resolves --user, then TODO_USER / the session file.
func activeUser(opts *Options) (id, source string, err error) {
	if opts.User != "" {
		return opts.User, "flag", nil
	}
	info, err := session.Get()
	if err != nil {
		return "", "", err
	}
	if info == nil {
		return "", "", nil
	}
	return info.UserID, info.Source, nil
}

func requireUser(opts *Options, verb string) (string, error) {
	id, _, err := activeUser(opts)
	if err != nil {
		return "", failf("%s: %w", verb, err)
	}
	if id == "" {
		return "", usagef("%s: no user; pass --user or run `todo login <user>`", verb)
	}
	return id, nil
}

// -------------- record commands ----------------

func newListCommand(e *env) *cobra.Command {
	var group bool
	cmd := &cobra.Command{
		Use:   "ls [user]",
		Short: "List items, for one user or everyone",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				recs, ok, err := e.store.ListForUser(args[0])
				if err != nil {
					return failf("ls: %w", err)
				}
				if !ok {
					return failf("ls: unknown user %q", args[0])
				}
				ui.Panel(out, listLines(args[0], recs.Keyed(args[0]), group))
				return nil
			}
			all, err := e.store.ListAll()
			if err != nil {
				return failf("ls: %w", err)
			}
			if len(all) == 0 {
				ui.Panel(out, listLines("Todos", all, group))
				return nil
			}
			users, err := e.users.Users()
			if err != nil {
				return failf("ls: %w", err)
			}
			byOwner := all.Keyed("").ByOwner()
			for _, u := range users {
				if recs, ok := byOwner[u.ID()]; ok {
					ui.Panel(out, listLines(u.Name()+" ("+u.ID()+")", recs, group))
					delete(byOwner, u.ID())
				}
			}
			// records whose owner is no longer known
			for owner, recs := range byOwner {
				ui.Panel(out, listLines(owner+" (unknown)", recs, group))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&group, "group", false, "group output by pending/done")
	return cmd
}

func listLines(title string, recs model.Records, group bool) []string {
	d, p := recs.Stats()
	lines := []string{
		ui.Header(title, recs),
		ui.Current().Muted.Render(ui.ProgressBar(d, d+p, 28)),
		"",
	}
	if group {
		lines = append(lines, ui.GroupLines(recs.Sorted())...)
	} else {
		lines = append(lines, ui.FlatLines(recs.Sorted())...)
	}
	return lines
}

func newAddCommand(e *env, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "add <label...>",
		Short: "Create an item (replaces the user's current items)",
		Long: `Create an item for the active user.

The new item is written as the user's whole list: items the user had
before are replaced. Use "todo replace" with a full list to keep them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := strings.TrimSpace(strings.Join(args, " "))
			if label == "" {
				return usagef("add: empty label")
			}
			userID, err := requireUser(opts, "add")
			if err != nil {
				return err
			}
			r, ok, err := e.store.Create(userID, model.Label(label))
			if err != nil {
				return failf("add: %w", err)
			}
			if !ok {
				return failf("add: unknown user %q", userID)
			}
			ui.OK(cmd.OutOrStdout(), "added "+r.ID)
			return nil
		},
	}
}

func newDoneCommand(e *env, done bool) *cobra.Command {
	use, short, verb := "done <id>", "Mark an item done", "done"
	if !done {
		use, short, verb = "reopen <id>", "Mark an item not done", "reopen"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return update(cmd, e, verb, args[0], model.Done(done))
		},
	}
}

func newRenameCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <label...>",
		Short: "Change an item's label",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			label := strings.TrimSpace(strings.Join(args[1:], " "))
			if label == "" {
				return usagef("rename: empty label")
			}
			return update(cmd, e, "rename", args[0], model.Label(label))
		},
	}
}

func update(cmd *cobra.Command, e *env, verb, id string, p model.Patch) error {
	ok, err := e.store.Update(id, p)
	if err != nil {
		return failf("%s: %w", verb, err)
	}
	if !ok {
		fmt.Fprintln(cmd.ErrOrStderr(), ui.Current().Muted.Render("Hint: run `todo ls` to see item ids"))
		return failf("%s: no such item %q", verb, id)
	}
	ui.OK(cmd.OutOrStdout(), verb+" "+id)
	return nil
}

func newRemoveCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := e.store.Delete(args[0])
			if err != nil {
				return failf("rm: %w", err)
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Current().Muted.Render("nothing to remove: "+args[0]))
				return nil
			}
			ui.OK(cmd.OutOrStdout(), "removed "+args[0])
			return nil
		},
	}
}

func newReplaceCommand(e *env, opts *Options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "replace <file>",
		Short: "Replace the user's items with the list in a JSON or YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := requireUser(opts, "replace")
			if err != nil {
				return err
			}
			if format == "" {
				format = export.FormatFromPath(args[0])
			}
			var recs model.Records
			if args[0] == "-" {
				recs, err = export.Read(cmd.InOrStdin(), format)
			} else {
				var f *os.File
				f, err = os.Open(args[0])
				if err != nil {
					return failf("replace: %w", err)
				}
				defer f.Close()
				recs, err = export.Read(f, format)
			}
			if err != nil {
				return failf("replace: %w", err)
			}
			// ids come from the file's keys so the other commands can address them
			recs = recs.Keyed(userID)
			ok, err := e.store.ReplaceUserRecords(userID, recs)
			if err != nil {
				return failf("replace: %w", err)
			}
			if !ok {
				return failf("replace: unknown user %q", userID)
			}
			ui.OK(cmd.OutOrStdout(), fmt.Sprintf("replaced %s's list with %d items", userID, len(recs)))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "input format (json|yaml; default from extension)")
	return cmd
}

func newExportCommand(e *env, opts *Options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print items as JSON or YAML (all users unless --user is set)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var recs model.Records
			if opts.User != "" {
				var ok bool
				var err error
				recs, ok, err = e.store.ListForUser(opts.User)
				if err != nil {
					return failf("export: %w", err)
				}
				if !ok {
					return failf("export: unknown user %q", opts.User)
				}
			} else {
				var err error
				recs, err = e.store.ListAll()
				if err != nil {
					return failf("export: %w", err)
				}
			}
			if err := export.Write(cmd.OutOrStdout(), recs, format); err != nil {
				return usagef("export: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", export.FormatJSON, "output format (json|yaml)")
	return cmd
}

func newUICommand(e *env, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Browse everyone's lists; edit your own",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			viewer, _, err := activeUser(opts)
			if err != nil {
				return failf("ui: %w", err)
			}
			a := adapter.New(e.store, e.users, viewer, adapter.WithLogger(e.log))
			if err := adapter.Run(a); err != nil {
				return failf("ui: %w", err)
			}
			return nil
		},
	}
}
