// Package cli implements the ecm-ctl commands.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/gftdcojp/echo-memory/pkg/ecm"
)

var (
	serverURL string
	prefix    string
	timeout   time.Duration
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "ecm-ctl",
	Short: "Manage an echo-memory daemon",
	Long:  "Operator CLI for the echo-memory collective memory daemon, speaking its NATS request-reply API.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", nats.DefaultURL, "NATS server URL")
	RootCmd.PersistentFlags().StringVarP(&prefix, "prefix", "p", "ecm", "Subject prefix of the daemon")
	RootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 5*time.Second, "Request timeout")
}

// connect dials NATS and builds a client; the returned closer must be
// called when the command finishes.
func connect() (*ecm.Client, func(), error) {
	nc, err := nats.Connect(serverURL, nats.Name("ecm-ctl"))
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to %s: %w", serverURL, err)
	}
	client, err := ecm.New(ecm.Config{NC: nc, SubjectPrefix: prefix, Timeout: timeout})
	if err != nil {
		nc.Close()
		return nil, nil, err
	}
	return client, nc.Close, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
