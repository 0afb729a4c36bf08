// Command relboostd is the engine's thin CLI surface: a single "serve"
// subcommand that validates its flags and calls an injectable Serve hook.
// The protocol server itself lives in a separate component, so Serve is
// nil by default and the command reports that plainly instead of
// pretending to listen on a port.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Serve is the injection point for the actual request-handler/TCP server,
// left nil because that layer lives outside this module. A caller
// embedding this command in a larger binary assigns Serve before Execute.
var Serve func(port int, project string) error

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "relboostd",
		Short: "relational feature-learning engine daemon",
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var port int
	var project string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the request-handler server (stub: protocol layer not wired in)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port <= 0 {
				return fmt.Errorf("serve: --port must be positive, got %d", port)
			}
			if project == "" {
				return fmt.Errorf("serve: --project is required")
			}
			if Serve == nil {
				return fmt.Errorf("serve: no request-handler layer wired into this build (port=%d project=%q)", port, project)
			}
			return Serve(port, project)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "TCP port to listen on")
	cmd.Flags().StringVar(&project, "project", "", "project name to serve")
	return cmd
}
