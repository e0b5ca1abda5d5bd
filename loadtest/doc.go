// Package loadtest holds the shared vocabulary of the banking load simulation.
//
// The simulation drives many concurrent "simulated users" against a banking HTTP API. Each user
// picks a seeded identity from a local store, authenticates (registering first if needed), makes
// sure it owns at least one account and then keeps moving money between accounts.
//
// This package defines the types that flow between the building blocks:
//   - Identity: a seeded user record (full name, username, password)
//   - Account: an opaque reference to a banking account ("service") known to the simulation
//   - Sentinel errors shared by the local store and the behavior packages
//   - Dependency-free observability interfaces (Logger, ContextualLogger, MetricsCollector,
//     TracingCollector) that the building blocks accept as functional options
//
// The building blocks live in the sub-packages:
//   - localstore: the shared embedded store of identities and known account ids
//   - bankapi: a typed client for the banking API
//   - bankuser: the decision logic of one simulated user
//   - swarm: the runner that spawns and paces simulated users
//   - seed: the generator that resets and fills the local store
//   - oteladapters: OpenTelemetry implementations of the observability interfaces
package loadtest
