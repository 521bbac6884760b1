package postgresql_test

import (
	"database/sql"
	"testing"

	"github.com/Zachary0hill/ZZMEDIA-DASHBOARD-sub000/pkg/persistence/postgresql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestDialect(t *testing.T) {
	dialect := postgresql.Dialect{}

	assert.Equal(t, "postgres", dialect.Name())
	assert.Equal(t, "SELECT * FROM t WHERE a = $1", dialect.Rebind("SELECT * FROM t WHERE a = $1"))
	assert.Equal(t, "SELECT version FROM workflows WHERE id = $1 FOR UPDATE",
		dialect.Rebind("SELECT version FROM workflows WHERE id = $1"+dialect.RowLock()))
}

func TestDialect_IsUniqueViolation(t *testing.T) {
	dialect := postgresql.Dialect{}

	assert.True(t, dialect.IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, dialect.IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, dialect.IsUniqueViolation(sql.ErrNoRows))
}
