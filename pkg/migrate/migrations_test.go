package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/angelmondragon/accounts-backend/pkg/migrate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := fs.Glob(migrate.Migrations(), "*_"+suffix+".sql")
	require.NoError(t, err)
	require.NotEmpty(t, matches, "no %s migration found", suffix)

	data, err := fs.ReadFile(migrate.Migrations(), matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	assert.NoError(t, migrate.Validate(migrate.Migrations()))
	assert.NoError(t, migrate.Validate(os.DirFS("migrations")), "source dir and embedded set must agree")
}

func TestUsersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "create_users")
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS users",
		"CONSTRAINT users_username_key UNIQUE (username)",
		"CONSTRAINT users_national_code_key UNIQUE (national_code)",
		"CHECK (user_type IN ('normal', 'worker', 'employee'))",
		"DROP TABLE IF EXISTS users",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestMessagingMigrationsCascadeFromUsers(t *testing.T) {
	contacts := readMigration(t, "create_contact_messages")
	for _, sub := range []string{
		"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE",
		"FOREIGN KEY (responded_by) REFERENCES users(id) ON DELETE SET NULL",
		"CHECK ((status = 'replied') = (admin_response IS NOT NULL))",
	} {
		assert.Contains(t, contacts, sub)
	}

	messages := readMigration(t, "create_user_messages")
	for _, sub := range []string{
		"FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE",
		"FOREIGN KEY (contact_message_id) REFERENCES contact_messages(id) ON DELETE CASCADE",
		"FOREIGN KEY (sender_id) REFERENCES users(id) ON DELETE SET NULL",
		"idx_user_messages_contact_reply",
		"WHERE is_from_admin = true AND message_type = 'response'",
	} {
		assert.Contains(t, messages, sub)
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)
	path, err := migrate.CreateSQLMigration(dir, "Add Read Receipts!", now)
	require.NoError(t, err)
	assert.Equal(t, "20250701093000_add_read_receipts.sql", filepath.Base(path))
	assert.NoError(t, migrate.Validate(os.DirFS(dir)))

	_, err = migrate.CreateSQLMigration(dir, "add read receipts", now)
	assert.Error(t, err, "same version must not be overwritten")

	_, err = migrate.CreateSQLMigration(dir, "!!!", now)
	assert.Error(t, err)
}

func TestValidateRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, migrate.Validate(os.DirFS(dir)))

	dup := t.TempDir()
	body := []byte("-- +goose Up\n-- +goose Down\n")
	require.NoError(t, os.WriteFile(filepath.Join(dup, "20250101000000_a.sql"), body, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dup, "20250101000000_b.sql"), body, 0o644))
	assert.Error(t, migrate.Validate(os.DirFS(dup)))
}
