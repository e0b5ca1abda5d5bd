// Package fakebank is an in-memory implementation of the banking API consumed by the load test.
//
// It is test and smoke-run infrastructure: users, accounts and transfers live in maps guarded by one
// mutex, passwords are bcrypt hashes and tokens are HS256 JWTs. Faults can be injected per route and
// every route counts its calls so tests can assert on the traffic a simulated user produced.
package fakebank
