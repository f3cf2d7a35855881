package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contacts-api/pkg/database/migrations"
	"contacts-api/pkg/utils"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations.Migrations, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"00001_create_users.sql",
		"00002_create_contacts.sql",
		"00003_create_otps.sql",
	}, files)
}

func TestRunMigrations_PassesCommand(t *testing.T) {
	orig := gooseRun
	t.Cleanup(func() { gooseRun = orig })

	var gotCommand, gotDir string
	gooseRun = func(_ context.Context, command string, _ *sql.DB, dir string) error {
		gotCommand, gotDir = command, dir
		return nil
	}

	require.NoError(t, runMigrations(context.Background(), nil, "up"))
	assert.Equal(t, "up", gotCommand)
	assert.Equal(t, ".", gotDir)
}

func TestRunMigrations_WrapsError(t *testing.T) {
	orig := gooseRun
	t.Cleanup(func() { gooseRun = orig })

	boom := errors.New("boom")
	gooseRun = func(context.Context, string, *sql.DB, string) error { return boom }

	err := runMigrations(context.Background(), nil, "down")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "goose down")
}

func TestDSN_DefaultsPort(t *testing.T) {
	dsn := DSN(utilsDatabaseConfig("db", ""))
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "host=db")
}

func utilsDatabaseConfig(host, port string) utils.DatabaseConfig {
	return utils.DatabaseConfig{Host: host, Port: port, Name: "contacts", User: "postgres"}
}
