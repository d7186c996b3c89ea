// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface (CLI) for the Hostwarden
// application using the Cobra library. It defines the root command,
// subcommands (like verify, trust, audit), flags, and the main entry point
// for execution.

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hostwarden/hostwarden/internal/config"
	"github.com/hostwarden/hostwarden/internal/db"
	"github.com/hostwarden/hostwarden/internal/keyscan"
	"github.com/hostwarden/hostwarden/internal/knownhosts"
	"github.com/hostwarden/hostwarden/internal/logging"
	"github.com/hostwarden/hostwarden/internal/model"
	"github.com/hostwarden/hostwarden/internal/sshkey"
	"github.com/hostwarden/hostwarden/internal/verify"
)

var version = "dev" // this will be set by the linker
var cfgFile string

// cfg holds the configuration resolved in PersistentPreRunE.
var cfg config.Config

// main is the entry point of the application.
func main() {
	if err := rootCmd.Execute(); err != nil {
		// The error is already printed by Cobra on failure.
		os.Exit(1)
	}
}

var rootCmd *cobra.Command

func init() {
	rootCmd = newRootCmd()
}

// newRootCmd creates and configures a new root cobra command. This function
// is used to create the main application command as well as fresh instances
// for isolated testing.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hostwarden",
		Short: "Hostwarden gates SSH operations on verified host keys.",
		Long: `Hostwarden is a trust-on-first-use (TOFU) host key manager for SSH-based
remote operations. The first connection to a host fetches its public key and
asks an operator for a trust decision; accepted keys are remembered in a
database and mirrored to a known_hosts file for external tools, so future
connections to the same host proceed without a prompt.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.LoadConfig(cmd, &cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cfg = c
			logging.SetDebug(cfg.Debug)
			db.SetDebug(cfg.Debug)
			if _, err := db.New(cfg.Database.Type, cfg.Database.DSN); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			return nil
		},
	}

	cmd.AddCommand(initCmd)
	cmd.AddCommand(verifyCmd)
	cmd.AddCommand(trustCmd)
	cmd.AddCommand(hostsCmd)
	cmd.AddCommand(auditCmd)
	cmd.AddCommand(resyncCmd)
	cmd.AddCommand(backupCmd)
	cmd.AddCommand(restoreCmd)
	cmd.AddCommand(maintainCmd)

	cmd.Version = version

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is hostwarden.yaml in the user config dir or CWD)")
	cmd.PersistentFlags().String("db-type", "sqlite", "Database type (sqlite, postgres, mysql)")
	cmd.PersistentFlags().String("db-dsn", "./hostwarden.db", "Database connection string (DSN)")
	cmd.PersistentFlags().String("known-hosts", "", "Path of the known_hosts mirror file")
	cmd.PersistentFlags().Int("timeout", 120, "Seconds to wait for an operator decision")
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return cmd
}

// newService wires a verification service from the resolved configuration
// and runs its startup initialization (mirror file creation and resync).
func newService(responder verify.Broadcaster) (*verify.Service, error) {
	if !db.IsInitialized() {
		return nil, fmt.Errorf("database is not initialized")
	}
	store := db.DefaultStore()
	fetcher := keyscan.NewFetcher(
		keyscan.ExecRunner{},
		cfg.Keyscan.Binary,
		time.Duration(cfg.Keyscan.TimeoutSeconds)*time.Second,
	)
	mirror := knownhosts.NewMirror(cfg.KnownHosts.Path, store)
	svc := verify.New(store, fetcher, mirror, responder, time.Duration(cfg.Verify.TimeoutSeconds)*time.Second)
	if err := svc.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize known_hosts mirror: %w", err)
	}
	return svc, nil
}

// promptResponder is the CLI's stand-in for a remote operator channel: it
// prints the key fingerprint to the terminal and feeds the typed answer back
// into the verification service.
type promptResponder struct {
	in  io.Reader
	out io.Writer
	svc *verify.Service
}

// Broadcast shows the verification request and collects the decision in the
// background; the service keeps waiting on its registry as it would with any
// remote operator channel.
func (p *promptResponder) Broadcast(req model.VerificationRequest) error {
	fp, err := sshkey.Fingerprint(req.Fingerprint)
	if err != nil {
		fp = "(unparseable key material)"
	}
	fmt.Fprintf(p.out, "The authenticity of host '%s' can't be established.\n", req.Host)
	fmt.Fprintf(p.out, "%s key fingerprint is %s\n", req.KeyType, fp)
	fmt.Fprint(p.out, "Trust this host and remember its key? [y/N]: ")

	go func() {
		reader := bufio.NewReader(p.in)
		answer, _ := reader.ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		accepted := answer == "y" || answer == "yes"
		if err := p.svc.Respond(req.ID, accepted); err != nil {
			logging.Debugf("prompt: response for %s discarded: %v", req.ID, err)
		}
	}()
	return nil
}
