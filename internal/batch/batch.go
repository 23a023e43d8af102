// Package batch executes scripted transfer instructions read from JSON
// files. An instruction file carries an UPLOAD section and a DOWNLOAD
// section; uploads always run first, and a failed task never stops the
// rest of the batch.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Task names one transfer. For uploads the source is a local path and
// the destination a remote folder ID; for downloads the source is a
// remote ID and the destination a local directory.
type Task struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// Instructions is the parsed content of one instruction file.
type Instructions struct {
	Upload   []Task `json:"UPLOAD"`
	Download []Task `json:"DOWNLOAD"`
}

// Transfer is the subset of sync operations a batch needs.
type Transfer interface {
	Upload(ctx context.Context, path, parentID string) (string, error)
	Download(ctx context.Context, id, destDir string) error
}

// Report tallies the outcome of a batch run.
type Report struct {
	Uploaded   int
	Downloaded int
	Failed     int
}

// Load parses the instruction file at path. A malformed file yields an
// error and no instructions, so nothing from it gets executed.
func Load(path string) (*Instructions, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instructions: %w", err)
	}

	var ins Instructions
	if err := json.Unmarshal(b, &ins); err != nil {
		return nil, fmt.Errorf("parse instructions %s: %w", path, err)
	}
	return &ins, nil
}

// Run executes every upload task, then every download task. Failures
// are logged and counted, not propagated. A cancelled context stops the
// batch between tasks.
func Run(ctx context.Context, tr Transfer, ins *Instructions) Report {
	var rep Report

	for _, task := range ins.Upload {
		if ctx.Err() != nil {
			return rep
		}
		log := logrus.WithFields(logrus.Fields{"source": task.Source, "destination": task.Destination})
		if _, err := tr.Upload(ctx, task.Source, task.Destination); err != nil {
			log.WithError(err).Error("upload task failed")
			rep.Failed++
			continue
		}
		log.Debug("upload task done")
		rep.Uploaded++
	}

	for _, task := range ins.Download {
		if ctx.Err() != nil {
			return rep
		}
		log := logrus.WithFields(logrus.Fields{"source": task.Source, "destination": task.Destination})
		if err := tr.Download(ctx, task.Source, task.Destination); err != nil {
			log.WithError(err).Error("download task failed")
			rep.Failed++
			continue
		}
		log.Debug("download task done")
		rep.Downloaded++
	}

	return rep
}

// Discover lists the instruction files in dir, sorted by name. A
// missing directory simply yields no files.
func Discover(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	return matches, nil
}

var exampleInstructions = Instructions{
	Upload: []Task{
		{Source: "/path/to/file.txt", Destination: "GoogleDriveFolderID"},
		{Source: "/path/to/folder", Destination: "GoogleDriveFolderID"},
	},
	Download: []Task{
		{Source: "GoogleDriveFolderID", Destination: "/path/to/destination"},
		{Source: "GoogleDriveFileID", Destination: "/path/to/destination"},
	},
}

// WriteExample writes a template instruction file demonstrating both
// sections.
func WriteExample(path string) error {
	b, err := json.MarshalIndent(exampleInstructions, "", "    ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0644); err != nil {
		return fmt.Errorf("write example instructions: %w", err)
	}
	return nil
}
