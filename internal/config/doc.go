// Package config loads, normalizes, and validates the TOML configuration
// consumed by the engine: inbox/hub paths, scoring weights and confidence
// floors, scanner eligibility rules, worker limits, and the bucket/category
// catalog with styles, rename mapping, and audio reference profiles.
package config
