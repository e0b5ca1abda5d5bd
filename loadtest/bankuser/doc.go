// Package bankuser implements the behavior of one simulated bank customer.
//
// A User bootstraps once (pick a seeded identity, authenticate or register, make sure it owns at
// least one account) and then runs transfers repeatedly. Bootstrap failures are fatal for the
// session. Transfer failures are not: RunTransaction reports them as outcome labels and the session
// carries on.
package bankuser
