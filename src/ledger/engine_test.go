package ledger

import (
	"testing"

	"github.com/google/uuid"
)

func TestOrderAccountsIsStableAndSymmetric(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	first1, second1 := orderAccounts(a, b)
	first2, second2 := orderAccounts(b, a)

	if first1 != first2 || second1 != second2 {
		t.Errorf("orderAccounts(a,b) and orderAccounts(b,a) must agree, got (%s,%s) vs (%s,%s)", first1, second1, first2, second2)
	}
	if first1.String() > second1.String() {
		t.Errorf("orderAccounts should return the lexicographically smaller UUID first, got %s before %s", first1, second1)
	}
}

func TestLockKeyForAccountIsDeterministic(t *testing.T) {
	id := uuid.New()
	if lockKeyForAccount(id) != lockKeyForAccount(id) {
		t.Error("lockKeyForAccount must be deterministic for the same account id")
	}

	other := uuid.New()
	if lockKeyForAccount(id) == lockKeyForAccount(other) {
		t.Error("lockKeyForAccount collided for two distinct random UUIDs, which is suspiciously unlucky")
	}
}
