package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-finance-backend/internal/middleware"
)

func setEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("SCHOOL_TIMEZONE", "UTC")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("REDIS_ADDR", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	setEnv(t)
	schoolID := uuid.New()

	out, err := run(t, "token", "--school", schoolID.String(), "--user", "bursar-1", "--role", middleware.RoleAdmin)
	require.NoError(t, err)

	var claims middleware.Claims
	_, err = jwt.ParseWithClaims(strings.TrimSpace(out), &claims, func(*jwt.Token) (interface{}, error) {
		return []byte("cli-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, schoolID.String(), claims.SchoolID)
	assert.Equal(t, "bursar-1", claims.Subject)
	assert.Equal(t, middleware.RoleAdmin, claims.Role)
}

func TestTokenCommandRejectsUnknownRole(t *testing.T) {
	setEnv(t)
	_, err := run(t, "token", "--school", uuid.NewString(), "--user", "u", "--role", "janitor")
	assert.Error(t, err)
}

func TestSchoolCreate(t *testing.T) {
	setEnv(t)
	out, err := run(t, "school", "create", "--name", "Greenfield Academy", "--slug", "greenfield")
	require.NoError(t, err)

	var school map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &school))
	assert.Equal(t, "greenfield", school["slug"])
}

func TestImportCommand(t *testing.T) {
	setEnv(t)
	path := filepath.Join(t.TempDir(), "statement.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"date,amount,reference,narration\n2024-01-15,50000.00,TX-1,Alice Johnson fees\n2024-01-16,1200.50,TX-2,Bob Smith\n"), 0o600))

	out, err := run(t, "import", path, "--school", uuid.NewString())
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.EqualValues(t, 2, result["created"])
}

func TestMatchRequiresSchool(t *testing.T) {
	setEnv(t)
	_, err := run(t, "match")
	assert.Error(t, err)

	_, err = run(t, "match", "--school", "not-a-uuid")
	assert.Error(t, err)
}

func TestMigrateRequiresPostgres(t *testing.T) {
	setEnv(t)
	_, err := run(t, "migrate")
	assert.ErrorContains(t, err, "STORAGE_DRIVER")
}
