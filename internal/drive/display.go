package drive

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xlab/treeprint"
	drivev3 "google.golang.org/api/drive/v3"
)

const (
	tableTop       = " __________________________________________________________________________________________________ "
	tableFolderHdr = "|                    List of Folders                     |                   ID                    |"
	tableFileHdr   = "|                     List of Files                      |                   ID                    |"
	tableRule      = "|________________________________________________________|_________________________________________|"

	nameColWidth = 54
	idColWidth   = 33
)

// Tree renders the remote hierarchy rooted at folderID as a printable
// tree. An empty folderID starts at the root.
func (s *Syncer) Tree(ctx context.Context, folderID string) (string, error) {
	if folderID == "" {
		folderID = RootID
	}
	root, err := s.client.ItemByID(ctx, folderID)
	if err != nil {
		return "", err
	}

	tree := treeprint.NewWithRoot(root.Name)
	if err := s.addBranch(ctx, tree, folderID); err != nil {
		return "", err
	}
	return tree.String(), nil
}

func (s *Syncer) addBranch(ctx context.Context, branch treeprint.Tree, folderID string) error {
	items, err := s.client.Children(ctx, folderID)
	if err != nil {
		return err
	}
	for _, it := range items {
		if IsFolder(it) {
			if err := s.addBranch(ctx, branch.AddBranch(it.Name), it.Id); err != nil {
				return err
			}
		} else {
			branch.AddNode(it.Name)
		}
	}
	return nil
}

// SplitFoldersFiles separates items by kind, each slice sorted by name
// without regard to case.
func SplitFoldersFiles(items []*drivev3.File) (folders, files []*drivev3.File) {
	for _, it := range items {
		if IsFolder(it) {
			folders = append(folders, it)
		} else {
			files = append(files, it)
		}
	}
	byName := func(s []*drivev3.File) func(i, j int) bool {
		return func(i, j int) bool {
			return strings.ToLower(s[i].Name) < strings.ToLower(s[j].Name)
		}
	}
	sort.Slice(folders, byName(folders))
	sort.Slice(files, byName(files))
	return folders, files
}

// PrintItems writes a bordered two-section table of folders then files,
// with their IDs.
func PrintItems(w io.Writer, items []*drivev3.File) {
	folders, files := SplitFoldersFiles(items)

	fmt.Fprintln(w, tableTop)
	fmt.Fprintln(w, tableFolderHdr)
	fmt.Fprintln(w, tableRule)
	for _, f := range folders {
		printRow(w, f)
	}
	fmt.Fprintln(w, tableRule)
	fmt.Fprintln(w, tableFileHdr)
	fmt.Fprintln(w, tableRule)
	for _, f := range files {
		printRow(w, f)
	}
	fmt.Fprintln(w, tableRule)
}

func printRow(w io.Writer, f *drivev3.File) {
	fmt.Fprintf(w, "| %-*s |    %-*s    |\n",
		nameColWidth, truncate(f.Name, nameColWidth),
		idColWidth, truncate(f.Id, idColWidth))
}

// truncate shortens s to at most max runes, marking the cut with an
// ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-3]) + "..."
	}
	return s
}
