package loadtest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardboard-bank/bankload/loadtest"
)

func Test_AccountIDs_KeepsOrder(t *testing.T) {
	accounts := []loadtest.Account{{ID: "b"}, {ID: "a"}, {ID: "c"}}

	assert.Equal(t, []string{"b", "a", "c"}, loadtest.AccountIDs(accounts))
}

func Test_AccountIDs_EmptyInput(t *testing.T) {
	assert.Empty(t, loadtest.AccountIDs(nil))
}
