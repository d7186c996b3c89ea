// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hostwarden/hostwarden/internal/config"
	"github.com/hostwarden/hostwarden/internal/db"
	"github.com/hostwarden/hostwarden/internal/sshkey"
)

var initSystemConfig bool

// initCmd represents the 'init' command. It writes a starter configuration
// file and prepares the known_hosts mirror so external tools can be pointed
// at it immediately.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file and prepare the known_hosts mirror",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteConfigFile(&cfg, initSystemConfig); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
		// newService creates and resyncs the mirror as part of Initialize.
		if _, err := newService(&promptResponder{in: os.Stdin, out: os.Stdout}); err != nil {
			return err
		}
		fmt.Printf("Known hosts mirror: %s\n", cfg.KnownHosts.Path)
		return nil
	},
}

// verifyCmd represents the 'verify' command: the gate a caller runs before a
// git/SSH network operation. Exit code 0 means the host is trusted.
var verifyCmd = &cobra.Command{
	Use:   "verify <locator>",
	Short: "Verify a remote host's key, prompting on first use",
	Long: `Checks whether the host named by the locator is already trusted. On first
contact the host's public key is fetched with ssh-keyscan and you are asked
to confirm its fingerprint. Accepting stores the key and appends it to the
known_hosts mirror; rejecting (or letting the prompt time out) leaves the
host untrusted and the command exits non-zero.

Locators may be URLs (ssh://git@example.com:2222/repo), scp-like strings
(git@example.com:repo.git), or bare hostnames.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		responder := &promptResponder{in: os.Stdin, out: os.Stdout}
		svc, err := newService(responder)
		if err != nil {
			return err
		}
		responder.svc = svc

		ok, err := svc.Verify(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("host %s is not trusted", args[0])
		}
		fmt.Printf("Host %s is trusted.\n", args[0])
		return nil
	},
}

// trustCmd represents the 'trust' command: the explicit, non-interactive
// bypass for batch contexts. It never falls back from a failed verify; the
// caller has to choose it deliberately.
var trustCmd = &cobra.Command{
	Use:   "trust <locator>",
	Short: "Fetch and trust a host's key without confirmation",
	Long: `Fetches the host's public key and stores it immediately, skipping the
interactive confirmation. Meant for provisioning scripts and other batch
contexts where the operator has decided to trust the host out of band.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService(&promptResponder{in: os.Stdin, out: os.Stdout})
		if err != nil {
			return err
		}
		if err := svc.AutoAccept(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to trust %s: %w", args[0], err)
		}
		fmt.Printf("Host %s is now trusted.\n", args[0])
		return nil
	},
}

// hostsCmd lists every trusted host with its key fingerprint.
var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "List trusted hosts",
	RunE: func(cmd *cobra.Command, args []string) error {
		hosts, err := db.GetAllTrustedHosts()
		if err != nil {
			return fmt.Errorf("failed to list trusted hosts: %w", err)
		}
		if len(hosts) == 0 {
			fmt.Println("No trusted hosts.")
			return nil
		}
		for _, h := range hosts {
			fp, err := sshkey.Fingerprint(h.PublicKey)
			if err != nil {
				fp = "(unparseable key material)"
			}
			updated := time.UnixMilli(h.UpdatedAt).Format(time.RFC3339)
			fmt.Printf("%-30s %-20s %s (updated %s)\n", h.Host, h.KeyType, fp, updated)
		}
		return nil
	},
}

// auditCmd prints the audit trail of trust decisions.
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the audit log of trust decisions",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := db.GetAllAuditLogEntries()
		if err != nil {
			return fmt.Errorf("failed to read audit log: %w", err)
		}
		for _, e := range entries {
			fmt.Printf("%s  %-12s %-18s %s\n", e.Timestamp, e.Username, e.Action, e.Details)
		}
		return nil
	},
}

// resyncCmd rewrites the known_hosts mirror from the trust store.
var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Rewrite the known_hosts mirror from the trust store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := newService(&promptResponder{in: os.Stdin, out: os.Stdout}); err != nil {
			return err
		}
		fmt.Printf("Mirror resynced: %s\n", cfg.KnownHosts.Path)
		return nil
	},
}

// maintainCmd runs engine-specific database maintenance.
var maintainCmd = &cobra.Command{
	Use:   "maintain",
	Short: "Run database maintenance (vacuum, checkpoint)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.RunDBMaintenance(cfg.Database.Type, cfg.Database.DSN); err != nil {
			return fmt.Errorf("database maintenance failed: %w", err)
		}
		fmt.Println("Database maintenance completed.")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initSystemConfig, "system", false, "write the system-wide config instead of the user config")
}
