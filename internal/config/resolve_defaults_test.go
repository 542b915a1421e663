package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults_AutoPicksPostgresWithDSN(t *testing.T) {
	c := &Config{Environment: EnvDevelopment, DBDriver: "auto", PostgresDSN: "postgres://x"}
	require.NoError(t, c.ResolveDefaults())
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Empty(t, c.SQLitePath)
}

func TestResolveDefaults_SQLitePathFromDataDir(t *testing.T) {
	c := &Config{Environment: EnvDevelopment, DataDir: "/var/lib/cloudly"}
	require.NoError(t, c.ResolveDefaults())
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "/var/lib/cloudly/cloudly.db", c.SQLitePath)
}

func TestResolveDefaults_Errors(t *testing.T) {
	cases := map[string]*Config{
		"unknown driver":       {Environment: EnvDevelopment, DBDriver: "mysql"},
		"postgres without dsn": {Environment: EnvDevelopment, DBDriver: "postgres"},
		"unknown environment":  {Environment: "staging"},
		"production no secret": {Environment: EnvProduction},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, c.ResolveDefaults())
		})
	}
}

func TestNewForTesting(t *testing.T) {
	c := NewForTesting()
	assert.True(t, c.IsTesting())
	require.NoError(t, c.ResolveDefaults())
	assert.Equal(t, ":memory:", c.SQLitePath)
}
