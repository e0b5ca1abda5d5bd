// Package helper provides testing utilities for the load-testing packages.
//
// It contains spies for the dependency-free observability interfaces, a slog handler that
// captures records, and helpers that open throwaway sqlite-backed local stores.
// Subpackage storewrapper runs store tests against the adapter selected by ADAPTER_TYPE.
package helper
