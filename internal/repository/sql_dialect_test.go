package repository

import (
	"testing"

	"gorm.io/gorm/clause"
)

func TestClaimLockingByDialectPostgres(t *testing.T) {
	locking, ok := claimLockingByDialect("postgres")
	if !ok {
		t.Fatalf("postgres should use row locking")
	}
	if locking.Strength != clause.LockingStrengthUpdate {
		t.Fatalf("strength want UPDATE got %s", locking.Strength)
	}
	if locking.Options != clause.LockingOptionsSkipLocked {
		t.Fatalf("options want SKIP LOCKED got %s", locking.Options)
	}
}

func TestClaimLockingByDialectSQLite(t *testing.T) {
	if _, ok := claimLockingByDialect("sqlite"); ok {
		t.Fatalf("sqlite should not use row locking")
	}
	if _, ok := claimLockingByDialect(""); ok {
		t.Fatalf("empty dialect should fall back to sqlite")
	}
}

func TestDBDialectNameNil(t *testing.T) {
	if got := dbDialectName(nil); got != "sqlite" {
		t.Fatalf("nil db dialect want sqlite got %s", got)
	}
}

func TestLikeOperatorByDialect(t *testing.T) {
	if got := likeOperatorByDialect("postgresql"); got != "ILIKE" {
		t.Fatalf("postgres like operator want ILIKE got %s", got)
	}
	if got := likeOperatorByDialect("sqlite"); got != "LIKE" {
		t.Fatalf("sqlite like operator want LIKE got %s", got)
	}
}
