// Package cli assembles the drivesync command tree: the bare command
// opens the interactive menu, subcommands expose the same operations
// for scripting.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alleyne234/drivesync/internal/auth"
	"github.com/alleyne234/drivesync/internal/config"
	"github.com/alleyne234/drivesync/internal/drive"
	"github.com/alleyne234/drivesync/internal/shell"
)

// app carries the resolved configuration between the persistent setup
// and the individual commands.
type app struct {
	cfgFile string
	cfg     *config.Config
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "drivesync",
		Short: "Synchronize local files and folders with Google Drive",
		Long: `drivesync moves files and folders between the local machine and
Google Drive. Run it without arguments for the interactive menu, or use
the subcommands directly. Transfers skip anything that already exists
under the destination by name.

The first run needs an OAuth client file (credentials.json) in the
Tokens folder; the granted token is cached next to it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadWithFlags(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.SetupLogging(); err != nil {
				return err
			}
			if err := cfg.EnsureDirs(); err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runShell(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default "+config.ConfigDir+"/config.yaml)")
	pf.String("base-dir", ".", "directory holding the Tokens, Downloads, Uploads and Instructions folders")
	pf.BoolP("verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		a.newInitCmd(),
		a.newMkdirCmd(),
		a.newTreeCmd(),
		a.newListCmd(),
		a.newDownloadCmd(),
		a.newUploadCmd(),
		a.newBatchCmd(),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *app) store() *auth.Store {
	return auth.NewStore(a.cfg.CredentialsPath(), a.cfg.TokenPath())
}

// connect builds an authorized client, running the consent flow on the
// given streams when no usable token is cached.
func connect(ctx context.Context, store *auth.Store, in io.Reader, out io.Writer) (drive.Client, error) {
	ts, err := store.TokenSource(ctx, in, out)
	if err != nil {
		return nil, err
	}
	return drive.NewService(ctx, ts)
}

// newSyncer authenticates once and wires up the sync operations.
// Subcommands fail straight away on a bad token instead of prompting.
func (a *app) newSyncer(cmd *cobra.Command) (*drive.Syncer, error) {
	client, err := connect(cmd.Context(), a.store(), cmd.InOrStdin(), cmd.OutOrStdout())
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return drive.NewSyncer(client, drive.NewNameCache()), nil
}

// runShell authenticates with the interactive retry loop, then hands
// the session to the menu.
func (a *app) runShell(cmd *cobra.Command) error {
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	client, err := shell.Authenticate(cmd.Context(), a.store(), in, out, connect)
	if err != nil {
		if errors.Is(err, shell.ErrAborted) {
			return nil
		}
		return err
	}

	syncer := drive.NewSyncer(client, drive.NewNameCache())
	return shell.New(syncer, a.cfg, in, out).Run(cmd.Context())
}
