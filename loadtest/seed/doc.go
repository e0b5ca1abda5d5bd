// Package seed resets the local store and fills it with synthetic identities.
//
// The generator is destructive: every run drops both relations of the local store, recreates them
// and inserts a fixed number of fake identities (999 by default) in one transaction. Identities are
// not unique; the same username may appear twice. The known-accounts relation stays empty until
// simulated users discover or create accounts.
package seed
