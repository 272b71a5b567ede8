package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carlofelipe-hub/coolifytest/internal/client"
	"github.com/carlofelipe-hub/coolifytest/internal/notes"
)

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all notes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := opts.model()
			m.Mount(cmd.Context())
			if m.Err != "" {
				return errors.New(m.Err)
			}
			if opts.json {
				return opts.printJSON(m.Notes)
			}
			if len(m.Notes) == 0 {
				fmt.Fprintln(opts.stdout, "No notes.")
				return nil
			}
			for _, n := range m.Notes {
				if err := opts.printNote(n); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newAddCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add [content...]",
		Short: "Create a note (reads stdin when no content is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := contentFromArgs(cmd, args)
			if err != nil {
				return err
			}

			m := opts.model()
			m.SetDraft(content)
			m.SubmitCreate(cmd.Context())
			if m.Err != "" {
				return errors.New(m.Err)
			}
			return opts.printNote(m.Notes[len(m.Notes)-1])
		},
	}
}

func newEditCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> [content...]",
		Short: "Replace a note's content (reads stdin when no content is given)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			content, err := contentFromArgs(cmd, args[1:])
			if err != nil {
				return err
			}

			m := opts.model()
			m.Mount(cmd.Context())
			if m.Err != "" {
				return errors.New(m.Err)
			}
			target := notes.Note{ID: id}
			for _, n := range m.Notes {
				if n.ID == id {
					target = n
				}
			}

			m.SelectEdit(target)
			m.SetDraft(content)
			m.SubmitUpdate(cmd.Context())
			if m.IsEditing() {
				// A failed update leaves the form in edit mode.
				return errors.New(m.Err)
			}
			for _, n := range m.Notes {
				if n.ID == id {
					return opts.printNote(n)
				}
			}
			return opts.printNote(notes.Note{ID: id, Content: content})
		},
	}
}

func newRmCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete notes (missing ids are not an error)",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, raw := range args {
				id, err := parseIDArg(raw)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			m := opts.model()
			for _, id := range ids {
				m.Delete(cmd.Context(), id)
				if m.Err != "" {
					return fmt.Errorf("delete %d: %s", id, m.Err)
				}
				fmt.Fprintf(opts.stdout, "Deleted %d\n", id)
			}
			return nil
		},
	}
}

func newRenderCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "render [content...]",
		Short: "Render Markdown to sanitized HTML on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := contentFromArgs(cmd, args)
			if err != nil {
				return err
			}
			html, err := client.New(opts.server).Render(cmd.Context(), content)
			if err != nil {
				return err
			}
			fmt.Fprintln(opts.stdout, html)
			return nil
		},
	}
}

// contentFromArgs joins args, or reads all of stdin when there are none.
func contentFromArgs(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}
