package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	internalssh "minview/internal/ssh"
)

var (
	sshKeysPath    string
	sshHostKeyPath string
)

var sshKeysCmd = &cobra.Command{
	Use:   "ssh-keys",
	Short: "Manage SSH authorized keys",
	Long:  "Add, list, and remove SSH public keys allowed to connect to 'minview serve'.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if sshKeysPath == "" {
			sshKeysPath = cfg.SSH.AuthorizedKeysPath
		}
		if sshHostKeyPath == "" {
			sshHostKeyPath = cfg.SSH.HostKeyPath
		}
		return nil
	},
}

var sshKeysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List authorized SSH public keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listSSHKeys(os.Stdout, sshKeysPath)
	},
}

var sshKeysAddCmd = &cobra.Command{
	Use:   "add <key-file-or-string>",
	Short: "Add an SSH public key",
	Long: `Add an SSH public key to the authorized keys list.
The argument can be a path to a public key file (e.g., ~/.ssh/id_ed25519.pub)
or the key string itself.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyData, err := readKeyArg(args[0])
		if err != nil {
			return err
		}

		fingerprint, err := internalssh.AddAuthorizedKey(sshKeysPath, keyData)
		if err != nil {
			return err
		}

		fmt.Printf("SSH public key %s added.\n", fingerprint)
		return nil
	},
}

var sshKeysRemoveCmd = &cobra.Command{
	Use:   "remove <fingerprint>",
	Short: "Remove an SSH public key by fingerprint",
	Long: `Remove an SSH public key from the authorized keys list.
Use 'minview ssh-keys list' to find the fingerprint.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := internalssh.RemoveAuthorizedKey(sshKeysPath, args[0]); err != nil {
			return err
		}
		fmt.Println("SSH public key removed successfully.")
		return nil
	},
}

var sshKeysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize SSH key infrastructure",
	Long:  "Create the ssh directory and an empty authorized_keys file. The host key is generated when the server first starts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		hostKey, authKeys, err := internalssh.InitSSHKeys(sshHostKeyPath, sshKeysPath)
		if err != nil {
			return err
		}
		fmt.Printf("Host key:        %s\n", hostKey)
		fmt.Printf("Authorized keys: %s\n", authKeys)
		return nil
	},
}

func init() {
	sshKeysCmd.PersistentFlags().StringVar(&sshKeysPath, "authorized-keys", "", "Path to authorized_keys file (default: <data dir>/ssh/authorized_keys)")
	sshKeysInitCmd.Flags().StringVar(&sshHostKeyPath, "host-key", "", "Path to SSH host key (default: <data dir>/ssh/ssh_host_key)")

	sshKeysCmd.AddCommand(sshKeysListCmd)
	sshKeysCmd.AddCommand(sshKeysAddCmd)
	sshKeysCmd.AddCommand(sshKeysRemoveCmd)
	sshKeysCmd.AddCommand(sshKeysInitCmd)
}

// readKeyArg returns the key string, reading it from a file when arg
// names one
func readKeyArg(arg string) (string, error) {
	if _, err := os.Stat(arg); err != nil {
		return arg, nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("failed to read key file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func listSSHKeys(out io.Writer, path string) error {
	entries, err := internalssh.ListAuthorizedKeys(path)
	if err != nil {
		return fmt.Errorf("failed to list keys: %w", err)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No authorized keys found.")
		fmt.Fprintln(out, "Add one with: minview ssh-keys add <key-file-or-string>")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FINGERPRINT\tCOMMENT")
	fmt.Fprintln(w, "-----------\t-------")
	for _, entry := range entries {
		comment := entry.Comment
		if comment == "" {
			comment = "(no comment)"
		}
		fmt.Fprintf(w, "%s\t%s\n", entry.Fingerprint, comment)
	}
	return w.Flush()
}
