package database

import (
	"io/fs"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readUpMigrations concatenates every embedded up migration.
func readUpMigrations(t *testing.T) string {
	t.Helper()
	var sb strings.Builder
	err := fs.WalkDir(migrationFS, "migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".up.sql") {
			return err
		}
		data, err := fs.ReadFile(migrationFS, path)
		if err != nil {
			return err
		}
		sb.Write(data)
		sb.WriteString("\n")
		return nil
	})
	require.NoError(t, err)
	return sb.String()
}

// tableDDL extracts the CREATE TABLE body for one table.
func tableDDL(t *testing.T, migrations, table string) string {
	t.Helper()
	re := regexp.MustCompile(`(?s)CREATE TABLE ` + table + ` \((.*?)\);`)
	match := re.FindStringSubmatch(migrations)
	require.NotNil(t, match, "no CREATE TABLE %s in embedded migrations", table)
	return match[1]
}

// The repositories address these columns by name; a rename or omission here
// only surfaces as a runtime query failure, so the schema is pinned.
func TestMigrationsDefineQueriedColumns(t *testing.T) {
	migrations := readUpMigrations(t)

	columns := map[string][]string{
		"users": {
			"id", "name", "email", "password_hash", "role",
			"is_active", "created_at", "updated_at",
		},
		"refresh_tokens": {
			"token", "user_id", "expires_at", "revoked_at", "created_at",
		},
		"posts": {
			"id", "title", "content", "author_id", "tags",
			"is_published", "views", "created_at", "updated_at",
		},
	}

	for table, cols := range columns {
		ddl := tableDDL(t, migrations, table)
		for _, col := range cols {
			assert.Regexp(t, `(?m)^\s*`+col+`\s`, ddl,
				"table %s is missing column %s", table, col)
		}
	}
}

func TestRefreshTokenRevocationIsTimestamped(t *testing.T) {
	ddl := tableDDL(t, readUpMigrations(t), "refresh_tokens")

	// Revocation is the nullable revoked_at timestamp (NULL = live), which the
	// auth repository filters on with "revoked_at IS NULL".
	assert.Regexp(t, `revoked_at\s+timestamptz`, ddl)
	assert.NotRegexp(t, `(?m)^\s*revoked\s`, ddl)
}
