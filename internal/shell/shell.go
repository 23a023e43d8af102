// Package shell drives the interactive menu session: a numbered menu on
// top of the sync operations, reading choices line by line.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	drivev3 "google.golang.org/api/drive/v3"

	"github.com/alleyne234/drivesync/internal/batch"
	"github.com/alleyne234/drivesync/internal/config"
	"github.com/alleyne234/drivesync/internal/drive"
	"github.com/alleyne234/drivesync/internal/validators"
)

const banner = `
  ____       _           ____
 |  _ \ _ __(_)_   _____/ ___| _   _ _ __   ___
 | | | | '__| \ \ / / _ \___ \| | | | '_ \ / __|
 | |_| | |  | |\ V /  __/___) | |_| | | | | (__
 |____/|_|  |_| \_/ \___|____/ \__, |_| |_|\___|
                               |___/
`

const menu = `       _______________________________________________
      |                                               |
      |  1. Create folder                             |
      |  2. Display tree structure                    |
      |  3. Display drive items with ID               |
      |  4. Download file or folder and its contents  |
      |  5. Upload file or folder and its contents    |
      |  6. Process instructions                      |
      |  0. Exit/Quit                                 |
      |_______________________________________________|

`

// Ops covers the remote operations the menu exposes.
type Ops interface {
	CreateFolder(ctx context.Context, name, parentID string) (*drivev3.File, error)
	Tree(ctx context.Context, folderID string) (string, error)
	ListItems(ctx context.Context, folderID string) ([]*drivev3.File, error)
	Upload(ctx context.Context, path, parentID string) (string, error)
	Download(ctx context.Context, id, destDir string) error
}

// Shell is one interactive session over in/out.
type Shell struct {
	ops Ops
	cfg *config.Config
	in  *bufio.Reader
	out io.Writer
}

// New builds a session. An in that is already buffered is used as-is so
// input consumed during authentication is not dropped.
func New(ops Ops, cfg *config.Config, in io.Reader, out io.Writer) *Shell {
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	return &Shell{ops: ops, cfg: cfg, in: br, out: out}
}

// Run shows the menu until the user exits or input runs out.
func (s *Shell) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.printMenu()

		choice, err := s.ask("Enter a choice: ")
		if err != nil {
			return ignoreEOF(err)
		}

		switch choice {
		case "1":
			err = s.createFolder(ctx)
		case "2":
			err = s.showTree(ctx)
		case "3":
			err = s.listItems(ctx)
		case "4":
			err = s.download(ctx)
		case "5":
			err = s.upload(ctx)
		case "6":
			err = s.instructions(ctx)
		case "0":
			_ = s.pause()
			return nil
		default:
			_, err = s.ask("Not a valid choice, press any key to continue.")
		}
		if err != nil {
			return ignoreEOF(err)
		}
	}
}

func (s *Shell) printMenu() {
	color.New(color.FgCyan).Fprint(s.out, banner)
	fmt.Fprint(s.out, menu)
}

// ask prints msg verbatim and reads one trimmed line. Messages that
// should leave the cursor on their own line carry their newline.
func (s *Shell) ask(msg string) (string, error) {
	fmt.Fprint(s.out, msg)
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (s *Shell) pause() error {
	_, err := s.ask("Press any key to continue...")
	return err
}

func ignoreEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Option 1.
func (s *Shell) createFolder(ctx context.Context) error {
	for {
		name, err := s.ask("Enter the name of the folder (press Enter to return to the menu)\n")
		if err != nil {
			return err
		}
		if name == "" {
			return nil
		}
		if err := validators.FolderName(name); err != nil {
			fmt.Fprintln(s.out, "Invalid folder name. Please provide a different name.")
			continue
		}

		parentID, err := s.ask("Enter the ID of the destination folder (leave empty to create a folder at the root):\n")
		if err != nil {
			return err
		}
		if f, err := s.ops.CreateFolder(ctx, name, parentID); err != nil {
			fmt.Fprintf(s.out, "An error occurred: %v\n", err)
		} else {
			fmt.Fprintf(s.out, "Created folder '%s' with ID %s\n", f.Name, f.Id)
		}
		return s.pause()
	}
}

// Option 2.
func (s *Shell) showTree(ctx context.Context) error {
	folderID, err := s.ask("Enter the folder ID to display its tree structure (press Enter to view the global tree, type 'quit' to return to the menu):\n")
	if err != nil {
		return err
	}
	if strings.EqualFold(folderID, "quit") {
		return nil
	}

	if tree, err := s.ops.Tree(ctx, folderID); err != nil {
		fmt.Fprintf(s.out, "An error occurred: %v\n", err)
	} else {
		fmt.Fprint(s.out, tree)
	}
	return s.pause()
}

// Option 3.
func (s *Shell) listItems(ctx context.Context) error {
	folderID, err := s.ask("What is the ID of the folder you are listing? (press Enter to list all items, type 'quit' to return to the menu)\n")
	if err != nil {
		return err
	}
	if strings.EqualFold(folderID, "quit") {
		return nil
	}

	if items, err := s.ops.ListItems(ctx, folderID); err != nil {
		fmt.Fprintf(s.out, "An error occurred: %v\n", err)
	} else {
		drive.PrintItems(s.out, items)
	}
	return s.pause()
}

// Option 4.
func (s *Shell) download(ctx context.Context) error {
	for {
		id, err := s.ask("What's the ID of the file or folder? (type 'quit' to return to the menu)\n")
		if err != nil {
			return err
		}
		if strings.EqualFold(id, "quit") {
			return nil
		}
		if id == "" {
			fmt.Fprintln(s.out, "Please provide an ID.")
			continue
		}

		dest, err := s.ask("What's the path of the destination? (press Enter to use default path)\n")
		if err != nil {
			return err
		}
		if dest == "" {
			dest = s.cfg.DownloadsDir
		}
		if err := s.ops.Download(ctx, id, dest); err != nil {
			fmt.Fprintf(s.out, "An error occurred: %v\n", err)
		}
		return s.pause()
	}
}

// Option 5.
func (s *Shell) upload(ctx context.Context) error {
	for {
		path, err := s.ask("What's the path of the file or folder? (type 'quit' to return to the menu)\n")
		if err != nil {
			return err
		}
		if strings.EqualFold(path, "quit") {
			return nil
		}
		if path == "" {
			fmt.Fprintln(s.out, "Please provide a file or folder path.")
			continue
		}
		if _, err := os.Stat(path); err != nil {
			fmt.Fprintln(s.out, "An error occurred, the file or folder does not exist or is inaccessible.")
			continue
		}

		parentID, err := s.ask("What's the destination? (press Enter to use root path)\n")
		if err != nil {
			return err
		}
		if _, err := s.ops.Upload(ctx, path, parentID); err != nil {
			fmt.Fprintf(s.out, "An error occurred: %v\n", err)
		}
		return s.pause()
	}
}

// Option 6.
func (s *Shell) instructions(ctx context.Context) error {
	dir := s.cfg.InstructionsDir
	if err := validators.MustDir(dir); err != nil {
		_, aerr := s.ask(fmt.Sprintf("Directory '%s' does not exist or is invalid, press any key to continue.", dir))
		return aerr
	}

	files, err := batch.Discover(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		_, aerr := s.ask(fmt.Sprintf("No instruction files found in '%s', press any key to continue.", dir))
		return aerr
	}

	for {
		fmt.Fprintln(s.out, "Available instruction files:")
		for i, f := range files {
			fmt.Fprintf(s.out, "%d. %s\n", i+1, filepath.Base(f))
		}

		choice, err := s.ask("Enter the number of the instruction file to execute (Press Enter to return to the menu):\n")
		if err != nil {
			return err
		}
		if choice == "" {
			return nil
		}

		idx, convErr := strconv.Atoi(choice)
		if convErr != nil {
			fmt.Fprintln(s.out, "Invalid choice. Please enter a valid number.")
			continue
		}
		if idx < 1 || idx > len(files) {
			fmt.Fprintln(s.out, "Invalid choice. Please enter a number within the range.")
			continue
		}

		ins, err := batch.Load(files[idx-1])
		if err != nil {
			fmt.Fprintf(s.out, "An error occurred: %v\n", err)
			return s.pause()
		}

		rep := batch.Run(ctx, s.ops, ins)
		fmt.Fprintln(s.out, "End Uploads and Downloads tasks.")
		fmt.Fprintf(s.out, "Uploaded %d, downloaded %d, failed %d.\n", rep.Uploaded, rep.Downloaded, rep.Failed)
		return s.pause()
	}
}
