// Copyright (c) 2026 Hostwarden Team
// Hostwarden - TOFU host key verification for SSH remotes
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"github.com/hostwarden/hostwarden/internal/db"
	"github.com/hostwarden/hostwarden/internal/knownhosts"
	"github.com/hostwarden/hostwarden/internal/model"
)

var restoreYes bool

// backupCmd represents the 'backup' command.
// It dumps the trust store and audit log into a single compressed JSON file.
var backupCmd = &cobra.Command{
	Use:   "backup [output-file]",
	Short: "Create a compressed (zstd) JSON backup of the database",
	Long: `Dumps the trusted hosts and the audit log into a single,
Zstandard-compressed JSON file.

If an output file is specified, '.zst' will be appended to the name if it's
not already present. With no argument a default filename of the form
'hostwarden-backup-YYYY-MM-DD.json.zst' is used.

The file can be used for disaster recovery or for moving the trust store to
a different database backend.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var outputFile string
		if len(args) == 0 {
			outputFile = fmt.Sprintf("hostwarden-backup-%s.json.zst", time.Now().Format("2006-01-02"))
		} else {
			outputFile = args[0]
			if !strings.HasSuffix(outputFile, ".zst") {
				outputFile += ".zst"
			}
		}

		store, ok := db.DefaultStore().(*db.BunStore)
		if !ok {
			return fmt.Errorf("backup requires a database-backed store")
		}
		data, err := store.ExportForBackup()
		if err != nil {
			return fmt.Errorf("failed to export data: %w", err)
		}
		if err := writeCompressedBackup(outputFile, data); err != nil {
			return fmt.Errorf("failed to write backup: %w", err)
		}
		fmt.Printf("Backup written to %s\n", outputFile)
		return nil
	},
}

// restoreCmd represents the 'restore' command. Restored hosts are upserted,
// so restoring into a non-empty database overwrites keys for hosts present
// in the backup and leaves other hosts alone.
var restoreCmd = &cobra.Command{
	Use:   "restore <backup-file>",
	Short: "Restore trusted hosts from a compressed backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !restoreYes {
			answer := promptForConfirmation("Restoring will overwrite keys for hosts present in the backup. Continue? (yes/no): ")
			if answer != "yes" && answer != "y" {
				fmt.Println("Restore cancelled.")
				return nil
			}
		}

		data, err := readCompressedBackup(args[0])
		if err != nil {
			return fmt.Errorf("failed to read backup: %w", err)
		}
		store, ok := db.DefaultStore().(*db.BunStore)
		if !ok {
			return fmt.Errorf("restore requires a database-backed store")
		}
		if err := store.RestoreFromBackup(data); err != nil {
			return fmt.Errorf("failed to restore backup: %w", err)
		}

		// Bring the known_hosts mirror in line with the restored store.
		mirror := knownhosts.NewMirror(cfg.KnownHosts.Path, store)
		if err := mirror.EnsureFile(); err != nil {
			return fmt.Errorf("failed to prepare known_hosts mirror: %w", err)
		}
		if err := mirror.Resync(); err != nil {
			return fmt.Errorf("failed to resync known_hosts mirror: %w", err)
		}
		fmt.Printf("Restored %d trusted host(s) from %s\n", len(data.TrustedHosts), args[0])
		return nil
	},
}

// readCompressedBackup handles reading and decoding a zstd-compressed JSON backup file.
func readCompressedBackup(filename string) (*model.BackupData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	zstdReader, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("could not create zstd reader: %w", err)
	}
	defer zstdReader.Close()

	var backupData model.BackupData
	if err := json.NewDecoder(zstdReader).Decode(&backupData); err != nil {
		return nil, fmt.Errorf("could not decode json from zstd reader: %w", err)
	}

	return &backupData, nil
}

// writeCompressedBackup streams the JSON encoding directly to the zstd writer
// so large trust stores never sit in memory twice.
func writeCompressedBackup(filename string, data *model.BackupData) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	zstdWriter, err := zstd.NewWriter(file)
	if err != nil {
		return fmt.Errorf("could not create zstd writer: %w", err)
	}
	defer func() { _ = zstdWriter.Close() }()

	encoder := json.NewEncoder(zstdWriter)
	encoder.SetIndent("", "  ") // Pretty-print the JSON inside the compressed file

	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("could not encode json to zstd writer: %w", err)
	}

	return nil
}

// promptForConfirmation displays a prompt and reads a line from stdin.
func promptForConfirmation(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	return strings.TrimSpace(strings.ToLower(answer))
}

func init() {
	restoreCmd.Flags().BoolVar(&restoreYes, "yes", false, "skip the confirmation prompt")
}
