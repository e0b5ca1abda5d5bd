package loadtest

// Identity is one seeded user record from the local store.
// Identities are immutable after seeding and read-only to simulated users.
type Identity struct {
	FullName string `db:"fullname"`
	Username string `db:"username"`
	Password string `db:"password"`
}

// Account references a banking account ("service") by its opaque id.
type Account struct {
	ID string `db:"id"`
}

// AccountIDs returns the ids of the given accounts in order.
func AccountIDs(accounts []Account) []string {
	ids := make([]string, 0, len(accounts))
	for _, account := range accounts {
		ids = append(ids, account.ID)
	}

	return ids
}
