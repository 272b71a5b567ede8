package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/carlofelipe-hub/coolifytest/internal/client"
	"github.com/carlofelipe-hub/coolifytest/internal/notes"
)

const defaultServerURL = "http://localhost:8080"

// options holds the global flag values.
type options struct {
	server string
	json   bool

	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Manage the shared notes list",
		Long: `notes talks to a running notes server (list, add, edit, rm, render)
or directly to its database (init-db).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	serverDefault := defaultServerURL
	if env := os.Getenv("NOTES_SERVER"); env != "" {
		serverDefault = env
	}
	cmd.PersistentFlags().StringVar(&opts.server, "server", serverDefault, "notes server base URL (env NOTES_SERVER)")
	cmd.PersistentFlags().BoolVar(&opts.json, "json", false, "output as JSON")

	cmd.AddCommand(newInitDBCmd(opts))
	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newAddCmd(opts))
	cmd.AddCommand(newEditCmd(opts))
	cmd.AddCommand(newRmCmd(opts))
	cmd.AddCommand(newRenderCmd(opts))

	return cmd
}

// reportedError is an error whose message the command already printed.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func (o *options) model() *client.Model {
	return client.NewModel(client.New(o.server))
}

func (o *options) printNote(n notes.Note) error {
	if o.json {
		return o.printJSON(n)
	}
	fmt.Fprintf(o.stdout, "%d\t%s\n", n.ID, notes.Summary(n.Content, 72))
	return nil
}

func (o *options) printJSON(v any) error {
	enc := json.NewEncoder(o.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseIDArg(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid note id %q", raw)
	}
	return id, nil
}
