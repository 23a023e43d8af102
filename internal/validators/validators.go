// Package validators holds the input checks shared by the shell and the
// command line front ends.
package validators

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// invalidNameChars matches characters that are unsafe in a folder name on
// at least one of the filesystems a download may land on.
var invalidNameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// reservedNames are device names Windows refuses as file or folder names.
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// FolderName reports whether name is acceptable as a new folder name.
func FolderName(name string) error {
	if name == "" {
		return fmt.Errorf("folder name is empty")
	}
	if invalidNameChars.MatchString(name) {
		return fmt.Errorf("folder name %q contains invalid characters", name)
	}
	if _, ok := reservedNames[strings.ToUpper(name)]; ok {
		return fmt.Errorf("folder name %q is reserved", name)
	}
	return nil
}

// MustDir returns an error unless path exists and is a directory.
func MustDir(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

// MustExist returns an error unless path exists.
func MustExist(path string) error {
	_, err := os.Stat(path)
	return err
}
