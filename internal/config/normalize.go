package config

import (
	"runtime"
	"strings"
)

// normalize expands paths and canonicalizes extension lists before
// validation.
func (c *Config) normalize() error {
	var err error
	if c.Paths.Inbox, err = ExpandPath(strings.TrimSpace(c.Paths.Inbox)); err != nil {
		return err
	}
	if c.Paths.Hub, err = ExpandPath(strings.TrimSpace(c.Paths.Hub)); err != nil {
		return err
	}

	c.Scanner.AnalyzeExtensions = normalizeExtensions(c.Scanner.AnalyzeExtensions)
	c.Scanner.RouteExtensions = normalizeExtensions(c.Scanner.RouteExtensions)

	if strings.TrimSpace(c.Logging.Format) == "" {
		c.Logging.Format = defaultLogFormat
	}
	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Workers.Count <= 0 {
		c.Workers.Count = defaultWorkerCount()
	}
	return nil
}

// defaultWorkerCount selects min(NumCPU, 8) with a floor of one worker.
func defaultWorkerCount() int {
	n := runtime.NumCPU()
	if n > 8 {
		return 8
	}
	if n < 1 {
		return 1
	}
	return n
}

func normalizeExtensions(exts []string) []string {
	seen := make(map[string]struct{}, len(exts))
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}
