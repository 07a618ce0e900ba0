// Package testsupport provides shared fixtures for engine tests: temp-backed
// configurations, sized file writers, directory snapshots, and synthetic WAV
// signal generation.
package testsupport
