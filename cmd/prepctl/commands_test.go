package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepcoach/pkg/auth"
)

const testCatalogue = `
journeys:
  - id: go-basics
    title: Go Basics
    nodes:
      - {id: syntax, title: Syntax, type: topic}
      - {id: types, title: Types, type: topic}
    edges:
      - {source: syntax, target: types}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func memoryEnv(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("AWS_REGION", "us-east-1")
}

func TestTokenIssue(t *testing.T) {
	memoryEnv(t)

	out, err := run(t, "token", "issue", "u1", "--role", "admin")
	require.NoError(t, err)

	validator, err := auth.NewJWTValidator(auth.JWTConfig{SecretKey: "cli-secret", Issuer: "prepcoach"})
	require.NoError(t, err)
	claims, err := validator.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID())
	assert.Equal(t, "u1@localhost", claims.Email)
	assert.Equal(t, []string{"admin"}, claims.Roles)
}

func TestSeedJourneys(t *testing.T) {
	memoryEnv(t)
	path := filepath.Join(t.TempDir(), "catalogue.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCatalogue), 0o600))

	out, err := run(t, "seed", "journeys", path, "--dry-run")
	require.NoError(t, err)
	assert.Equal(t, "go-basics\tjourney\t2 nodes\t1 edges\n", out)

	out, err = run(t, "seed", "journeys", path)
	require.NoError(t, err)
	assert.Contains(t, out, "created 1, updated 0, nodes 2, edges 1")

	_, err = run(t, "seed", "journeys", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestVisibilitySetRejectsUnknownEntityType(t *testing.T) {
	memoryEnv(t)

	_, err := run(t, "visibility", "set", "galaxy", "x")
	assert.Error(t, err)

	out, err := run(t, "visibility", "set", "journey", "go-basics", "--hidden")
	require.NoError(t, err)
	assert.Contains(t, out, "journey/go-basics public=false")
}
