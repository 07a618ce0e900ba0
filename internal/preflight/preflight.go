package preflight

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"crates/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks for a run over the given config. Read-only runs
// verify the inbox alone; runs that write anything under the hub verify hub
// writability, and mutating runs additionally verify free space on the hub
// volume.
func RunAll(cfg *config.Config, writes, mutating bool) []Result {
	results := []Result{CheckReadableDir("Inbox", cfg.Paths.Inbox)}
	if writes {
		results = append(results, CheckWritableDir("Hub", cfg.Paths.Hub))
	}
	if mutating {
		results = append(results, CheckFreeSpace(cfg.Paths.Inbox, cfg.Paths.Hub))
	}
	return results
}

// Failed returns the failing results, if any.
func Failed(results []Result) []Result {
	var out []Result
	for _, res := range results {
		if !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// CheckReadableDir verifies the directory exists and can be read.
func CheckReadableDir(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

// CheckWritableDir verifies the directory exists (creating it if missing)
// and can be written.
func CheckWritableDir(name, path string) Result {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: create: %v)", path, err)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace compares the inbox payload size against free space on the
// hub volume. Copy runs need the full payload; the check uses that worst
// case for move runs too since a cross-device move degrades to copy.
func CheckFreeSpace(inbox, hub string) Result {
	const name = "Hub free space"

	needed, err := treeSize(inbox)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("measure inbox: %v", err)}
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(hub, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("statfs %s: %v", hub, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < uint64(needed) {
		return Result{Name: name, Detail: fmt.Sprintf("%s free, %s needed", humanize.IBytes(free), humanize.IBytes(uint64(needed)))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s free, %s needed", humanize.IBytes(free), humanize.IBytes(uint64(needed)))}
}

func treeSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.Type().IsRegular() {
			info, err := entry.Info()
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}
