package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/labdesk/internal/models"
)

func (c *Cli) backupsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "backups",
		Aliases: []string{"backup"},
		Short:   "Database backups (administrators only)",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// cobra не вызывает PersistentPreRunE родителя, поэтому setup вызывается явно
			if root := cmd.Root(); root.PersistentPreRunE != nil {
				if err := root.PersistentPreRunE(cmd, nil); err != nil {
					return err
				}
			}
			return c.requireAdmin(cmd.Context())
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backups, err := c.client.ListBackups(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(backups))
			for _, b := range backups {
				rows = append(rows, []string{b.FileName, b.CreatedAt})
			}
			c.printTable("No backups yet.", []string{"File", "Created"}, rows)
			return nil
		},
	}

	create := &cobra.Command{
		Use:   "create",
		Short: "Create a backup of the platform database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msg, err := c.client.CreateBackup(cmd.Context())
			if err != nil {
				return err
			}
			c.success("%s", msg)
			return nil
		},
	}

	var output string
	download := &cobra.Command{
		Use:   "download <file-name>",
		Short: "Download a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			target := output
			if target == "" {
				target = filepath.Base(name)
			}

			n, err := c.downloadBackup(cmd.Context(), name, target)
			if err != nil {
				return err
			}

			c.success("Downloaded %s (%d bytes) to %s", name, n, target)
			return nil
		},
	}
	download.Flags().StringVarP(&output, "output", "o", "", "target file (default: the backup name in the current directory)")

	var yes bool
	restore := &cobra.Command{
		Use:   "restore <file-name>",
		Short: "Replace the platform data with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if !yes {
				answer, err := c.io.ReadInput(fmt.Sprintf("Restore the database from %s? All current data will be replaced [y/N]: ", name))
				if err != nil {
					return err
				}
				if !strings.EqualFold(strings.TrimSpace(answer), "y") {
					c.io.Println(mutedStyle.Render("Restore cancelled."))
					return nil
				}
			}

			msg, err := c.client.RestoreBackup(cmd.Context(), name)
			if err != nil {
				return err
			}
			c.success("%s", msg)
			return nil
		},
	}
	restore.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	cmd.AddCommand(list, create, download, restore)
	return cmd
}

// requireAdmin проверяет роль до обращения к эндпоинтам резервных копий
func (c *Cli) requireAdmin(ctx context.Context) error {
	_, err := c.auth.RequireRole(ctx, models.RoleAdmin)
	return err
}

// downloadBackup пишет во временный файл рядом с target и переименовывает
// его только после успешной загрузки; существующий target не затрагивается
func (c *Cli) downloadBackup(ctx context.Context, name, target string) (n int64, err error) {
	f, err := os.CreateTemp(filepath.Dir(target), ".labdesk-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temporary file for %s: %w", target, err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	n, err = c.client.DownloadBackup(ctx, name, f)
	if err != nil {
		return 0, err
	}
	if err = f.Close(); err != nil {
		return 0, fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err = os.Rename(tmp, target); err != nil {
		return 0, fmt.Errorf("failed to move download to %s: %w", target, err)
	}
	return n, nil
}
