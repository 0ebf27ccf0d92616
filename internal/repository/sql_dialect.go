package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// dbDialectName 获取数据库方言名称，默认按 sqlite 处理。
func dbDialectName(db *gorm.DB) string {
	if db == nil || db.Dialector == nil {
		return "sqlite"
	}
	name := strings.ToLower(strings.TrimSpace(db.Dialector.Name()))
	if name == "" {
		return "sqlite"
	}
	return name
}

// claimLockingByDialect 返回库存领取时的行锁子句；sqlite 写事务本身串行，不加锁。
func claimLockingByDialect(dialect string) (clause.Locking, bool) {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return clause.Locking{Strength: clause.LockingStrengthUpdate, Options: clause.LockingOptionsSkipLocked}, true
	default:
		return clause.Locking{}, false
	}
}

// applyClaimLocking 为候选库存查询附加行锁
func applyClaimLocking(query *gorm.DB) *gorm.DB {
	locking, ok := claimLockingByDialect(dbDialectName(query))
	if !ok {
		return query
	}
	return query.Clauses(locking)
}

func likeOperatorByDialect(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql":
		return "ILIKE"
	default:
		return "LIKE"
	}
}
