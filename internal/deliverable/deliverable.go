// Package deliverable finds and reads the files of a deliverable directory:
//
//	<instance> [description]/
//	  <instance>.json            (or main/<any>.json)
//	  logs/
//	    <x>_base.log
//	    <x>_before.log
//	    <x>_after.log
//	    <x>_post_agent_patch.log
//	  [*.diff | *.patch]         golden source diff
//	  [report.json]              declared agent statuses
//
// Each log is tagged with its Stage once, here, from its file suffix.
package deliverable

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/newhook/swereview/internal/logging"
	"github.com/newhook/swereview/internal/logparser"
	"github.com/newhook/swereview/internal/review"
	"github.com/spf13/afero"
)

// ErrInvalid is returned by Load when the layout has problems.
var ErrInvalid = errors.New("invalid deliverable")

// LogsDir is the required log directory name, matched case-insensitively.
const LogsDir = "logs"

// StageSuffixes maps each stage to the required log file suffix.
var StageSuffixes = map[logparser.Stage]string{
	logparser.Base:   "_base.log",
	logparser.Before: "_before.log",
	logparser.After:  "_after.log",
	logparser.Agent:  "_post_agent_patch.log",
}

var reportNames = []string{"report.json", "analysis.json", "results.json"}

// Problem is one layout defect.
type Problem struct {
	Path    string
	Message string
}

func (p Problem) String() string {
	if p.Path == "" {
		return p.Message
	}
	return p.Path + ": " + p.Message
}

// Layout is the resolved set of files of a deliverable.
type Layout struct {
	Root         string
	Instance     string
	ManifestPath string
	LogsPath     string // the logs directory, when present
	Logs         map[logparser.Stage]string
	DiffPath     string // optional
	ReportPath   string // optional
}

// Deliverable is a loaded deliverable ready for analysis.
type Deliverable struct {
	Layout
	Input  review.Input
	Digest string // sha256 of every input, hex encoded
}

// Instance extracts the instance id from a deliverable directory name: the
// first whitespace-separated token.
func Instance(dir string) string {
	fields := strings.Fields(filepath.Base(dir))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Validate returns every layout problem of root. An empty result means Load will succeed.
func Validate(fs afero.Fs, root string) []Problem {
	_, problems := Resolve(fs, root)
	return problems
}

// Resolve locates the deliverable's files. The layout is filled in as far as possible
// even when problems are reported.
func Resolve(fs afero.Fs, root string) (*Layout, []Problem) {
	layout := &Layout{Root: root, Logs: make(map[logparser.Stage]string, logparser.NumStages)}
	var problems []Problem

	info, err := fs.Stat(root)
	if err != nil {
		return layout, []Problem{{Path: root, Message: fmt.Sprintf("cannot read directory: %v", err)}}
	}
	if !info.IsDir() {
		return layout, []Problem{{Path: root, Message: "not a directory"}}
	}

	layout.Instance = Instance(root)
	if layout.Instance == "" {
		problems = append(problems, Problem{Path: root, Message: "could not extract instance name from directory name"})
	}

	entries, err := afero.ReadDir(fs, root)
	if err != nil {
		return layout, append(problems, Problem{Path: root, Message: fmt.Sprintf("cannot list directory: %v", err)})
	}

	if p := resolveManifest(fs, layout, entries); p != nil {
		problems = append(problems, *p)
	}
	problems = append(problems, resolveLogs(fs, layout, entries)...)

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if layout.DiffPath == "" && (strings.HasSuffix(name, ".diff") || strings.HasSuffix(name, ".patch")) {
			layout.DiffPath = filepath.Join(root, e.Name())
		}
		for _, r := range reportNames {
			if layout.ReportPath == "" && name == r {
				layout.ReportPath = filepath.Join(root, e.Name())
			}
		}
	}

	return layout, problems
}

func resolveManifest(fs afero.Fs, layout *Layout, entries []os.FileInfo) *Problem {
	if layout.Instance != "" {
		want := layout.Instance + ".json"
		for _, e := range entries {
			if !e.IsDir() && e.Name() == want {
				layout.ManifestPath = filepath.Join(layout.Root, want)
				return nil
			}
		}
	}

	mainDir := filepath.Join(layout.Root, "main")
	if isDir(fs, mainDir) {
		sub, err := afero.ReadDir(fs, mainDir)
		if err == nil {
			var found []string
			for _, e := range sub {
				if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
					found = append(found, e.Name())
				}
			}
			if len(found) == 1 {
				layout.ManifestPath = filepath.Join(mainDir, found[0])
				return nil
			}
			if len(found) > 1 {
				return &Problem{Path: mainDir, Message: fmt.Sprintf("expected one manifest, found %d: %s", len(found), strings.Join(found, ", "))}
			}
		}
	}

	return &Problem{Path: layout.Root, Message: fmt.Sprintf("missing required file: %s.json", layout.Instance)}
}

func resolveLogs(fs afero.Fs, layout *Layout, entries []os.FileInfo) []Problem {
	var logsDir string
	for _, e := range entries {
		if e.IsDir() && strings.EqualFold(e.Name(), LogsDir) {
			logsDir = filepath.Join(layout.Root, e.Name())
			break
		}
	}
	if logsDir == "" {
		return []Problem{{Path: layout.Root, Message: "missing required 'logs' directory"}}
	}

	layout.LogsPath = logsDir

	files, err := afero.ReadDir(fs, logsDir)
	if err != nil {
		return []Problem{{Path: logsDir, Message: fmt.Sprintf("cannot list directory: %v", err)}}
	}

	var problems []Problem
	for _, stage := range logparser.Stages {
		suffix := StageSuffixes[stage]
		var matches []string
		for _, f := range files {
			if !f.IsDir() && strings.HasSuffix(strings.ToLower(f.Name()), suffix) {
				matches = append(matches, f.Name())
			}
		}
		switch len(matches) {
		case 0:
			problems = append(problems, Problem{Path: logsDir, Message: fmt.Sprintf("missing required log file ending with %s", suffix)})
		default:
			if len(matches) > 1 {
				logging.Warn("several logs match stage, using the first", "stage", stage.String(), "files", matches)
			}
			layout.Logs[stage] = filepath.Join(logsDir, matches[0])
		}
	}
	return problems
}

// Load resolves and reads a deliverable.
func Load(fs afero.Fs, root string) (*Deliverable, error) {
	layout, problems := Resolve(fs, root)
	if len(problems) > 0 {
		msgs := make([]string, len(problems))
		for i, p := range problems {
			msgs[i] = p.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}

	d := &Deliverable{
		Layout: *layout,
		Input:  review.Input{Logs: make(map[logparser.Stage]string, logparser.NumStages)},
	}

	h := sha256.New()
	read := func(label, path string) (string, error) {
		if path == "" {
			return "", nil
		}
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		fmt.Fprintf(h, "%s:%d\n", label, len(data))
		h.Write(data)
		return string(data), nil
	}

	var err error
	if d.Input.Manifest, err = read("manifest", layout.ManifestPath); err != nil {
		return nil, err
	}
	for _, stage := range logparser.Stages {
		text, err := read(stage.String(), layout.Logs[stage])
		if err != nil {
			return nil, err
		}
		d.Input.Logs[stage] = text
	}
	if d.Input.SourceDiff, err = read("diff", layout.DiffPath); err != nil {
		return nil, err
	}
	if d.Input.Report, err = read("report", layout.ReportPath); err != nil {
		return nil, err
	}
	d.Digest = hex.EncodeToString(h.Sum(nil))

	logging.Debug("loaded deliverable", "root", root, "instance", d.Instance, "digest", d.Digest)
	return d, nil
}

// WatchPaths returns the directories whose changes affect the analysis.
func (l *Layout) WatchPaths() []string {
	paths := []string{l.Root}
	seen := map[string]bool{l.Root: true}
	var dirs []string
	if l.LogsPath != "" {
		dirs = append(dirs, l.LogsPath)
	}
	for _, p := range l.Logs {
		dirs = append(dirs, filepath.Dir(p))
	}
	if l.ManifestPath != "" {
		dirs = append(dirs, filepath.Dir(l.ManifestPath))
	}
	sort.Strings(dirs)
	for _, d := range dirs {
		if !seen[d] {
			seen[d] = true
			paths = append(paths, d)
		}
	}
	return paths
}

func isDir(fs afero.Fs, path string) bool {
	ok, err := afero.IsDir(fs, path)
	return err == nil && ok
}
