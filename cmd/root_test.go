package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"resolve", "crawl", "misses", "registry", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "polycheck", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestResolveCommand_Flags(t *testing.T) {
	for _, name := range []string{"market", "json", "batch-size"} {
		assert.NotNil(t, resolveCmd.Flags().Lookup(name), "resolve should have --%s flag", name)
	}
}

func TestCrawlCommand_Flags(t *testing.T) {
	flag := crawlCmd.Flags().Lookup("limit")
	require.NotNil(t, flag)
	assert.Equal(t, "500", flag.DefValue)

	flag = crawlCmd.Flags().Lookup("top")
	require.NotNil(t, flag)
	assert.Equal(t, "4", flag.DefValue)

	flag = crawlCmd.Flags().Lookup("market")
	require.NotNil(t, flag)
	assert.Equal(t, "stringSlice", flag.Value.Type())
}

func TestMissesCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range missesCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["list"])
	assert.True(t, names["resolve"])

	for _, name := range []string{"reason", "type", "unresolved", "limit", "json"} {
		assert.NotNil(t, missesListCmd.Flags().Lookup(name), "misses list should have --%s flag", name)
	}
	assert.NotNil(t, missesResolveCmd.Flags().Lookup("notes"))
}

func TestRegistryCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range registryCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"list", "delete", "variant"} {
		assert.True(t, names[name], "registry should have subcommand %q", name)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}
