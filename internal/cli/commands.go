package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/alleyne234/drivesync/internal/batch"
	"github.com/alleyne234/drivesync/internal/drive"
	"github.com/alleyne234/drivesync/internal/validators"
)

func (a *app) newInitCmd() *cobra.Command {
	var credentials string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the working folders and an example instruction file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The folders themselves are created by the persistent setup.
			out := cmd.OutOrStdout()

			if credentials != "" {
				if err := copyCredentials(credentials, a.cfg.CredentialsPath()); err != nil {
					return err
				}
				fmt.Fprintf(out, "Copied OAuth client file to %s\n", a.cfg.CredentialsPath())
			}

			path := filepath.Join(a.cfg.InstructionsDir, "instructions.json")
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(out, "Instruction file already exists: %s\n", path)
			} else {
				if err := batch.WriteExample(path); err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote example instruction file: %s\n", path)
			}

			if _, err := os.Stat(a.cfg.CredentialsPath()); err != nil {
				fmt.Fprintf(out, "Place your OAuth client file at %s\n", a.cfg.CredentialsPath())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&credentials, "credentials", "", "OAuth client file to copy into place")
	return cmd
}

// copyCredentials copies an OAuth client file into the config directory,
// unless the source already is the managed copy.
func copyCredentials(src, dst string) error {
	if filepath.Clean(src) == filepath.Clean(dst) {
		return nil
	}
	b, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read OAuth client file: %w", err)
	}
	if err := os.WriteFile(dst, b, 0o600); err != nil {
		return fmt.Errorf("copy OAuth client file: %w", err)
	}
	return nil
}

func (a *app) newMkdirCmd() *cobra.Command {
	var parentID string
	cmd := &cobra.Command{
		Use:   "mkdir <name>",
		Short: "Create a remote folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validators.FolderName(args[0]); err != nil {
				return err
			}
			s, err := a.newSyncer(cmd)
			if err != nil {
				return err
			}
			f, err := s.CreateFolder(cmd.Context(), args[0], parentID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), f.Id)
			return nil
		},
	}
	cmd.Flags().StringVar(&parentID, "parent", "", "ID of the destination folder (defaults to the root)")
	return cmd
}

func (a *app) newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree [folder-id]",
		Short: "Print the remote hierarchy as a tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folderID := ""
			if len(args) == 1 {
				folderID = args[0]
			}
			s, err := a.newSyncer(cmd)
			if err != nil {
				return err
			}
			tree, err := s.Tree(cmd.Context(), folderID)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), tree)
			return nil
		},
	}
}

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [folder-id]",
		Short: "List remote folders and files with their IDs",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folderID := ""
			if len(args) == 1 {
				folderID = args[0]
			}
			s, err := a.newSyncer(cmd)
			if err != nil {
				return err
			}
			items, err := s.ListItems(cmd.Context(), folderID)
			if err != nil {
				return err
			}
			drive.PrintItems(cmd.OutOrStdout(), items)
			return nil
		},
	}
}

func (a *app) newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <id> [dest-dir]",
		Short: "Download a remote file or folder tree",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := a.cfg.DownloadsDir
			if len(args) == 2 {
				dest = args[1]
			}
			s, err := a.newSyncer(cmd)
			if err != nil {
				return err
			}
			return s.Download(cmd.Context(), args[0], dest)
		},
	}
}

func (a *app) newUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path> [folder-id]",
		Short: "Upload a local file or folder tree",
		Long: `Upload a local file or folder tree into a remote folder (the root
when no folder ID is given). A path ending in a separator uploads the
directory's contents without creating a wrapping folder.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parentID := ""
			if len(args) == 2 {
				parentID = args[1]
			}
			s, err := a.newSyncer(cmd)
			if err != nil {
				return err
			}
			id, err := s.Upload(cmd.Context(), args[0], parentID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func (a *app) newBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <file>",
		Short: "Run the transfer tasks from an instruction file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ins, err := batch.Load(args[0])
			if err != nil {
				return err
			}
			s, err := a.newSyncer(cmd)
			if err != nil {
				return err
			}
			rep := batch.Run(cmd.Context(), s, ins)
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d, downloaded %d, failed %d.\n",
				rep.Uploaded, rep.Downloaded, rep.Failed)
			if rep.Failed > 0 {
				return fmt.Errorf("%d tasks failed", rep.Failed)
			}
			return nil
		},
	}
}
