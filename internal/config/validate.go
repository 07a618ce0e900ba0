package config

import (
	"fmt"

	"crates/internal/services"
)

// Validate checks invariants the engine depends on. Path presence is checked
// at run setup by preflight, not here, so read-only commands can still load a
// partially filled config.
func (c *Config) Validate() error {
	s := c.Scoring
	if s.FolderWeight < 0 || s.FilenameWeight < 0 || s.AudioWeight < 0 {
		return services.Wrap(services.ErrValidation, "config", "scoring", "signal weights must be non-negative", nil)
	}
	if s.FolderWeight+s.FilenameWeight+s.AudioWeight <= 0 {
		return services.Wrap(services.ErrValidation, "config", "scoring", "signal weights must sum to a positive value", nil)
	}
	if s.ConfidenceFloor < 0 || s.ConfidenceFloor > 1 {
		return services.Wrap(services.ErrValidation, "config", "scoring", fmt.Sprintf("confidence_floor %.2f outside [0,1]", s.ConfidenceFloor), nil)
	}
	if s.UnsortedFloor < 0 || s.UnsortedFloor > 1 {
		return services.Wrap(services.ErrValidation, "config", "scoring", fmt.Sprintf("unsorted_floor %.2f outside [0,1]", s.UnsortedFloor), nil)
	}
	if s.UnsortedFloor > s.ConfidenceFloor {
		return services.Wrap(services.ErrValidation, "config", "scoring", "unsorted_floor must not exceed confidence_floor", nil)
	}
	if c.Workers.Count < 0 {
		return services.Wrap(services.ErrValidation, "config", "workers", "count must be >= 0", nil)
	}
	if len(c.Buckets) == 0 {
		return services.Wrap(services.ErrValidation, "config", "buckets", "at least one bucket must be defined", nil)
	}
	// Building the catalog validates bucket/category/rename wiring.
	if _, err := c.Catalog(); err != nil {
		return err
	}
	return nil
}
