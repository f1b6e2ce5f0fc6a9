package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscorehq/opscore/pkg/config"
)

func TestFirstProfileNameReturnsTheOnlyProfile(t *testing.T) {
	cfg := &config.Config{Profiles: map[string]config.Profile{
		"staging": {Name: "staging"},
	}}

	assert.Equal(t, "staging", firstProfileName(cfg))
}

func TestFirstProfileNameEmptyWhenNoProfiles(t *testing.T) {
	cfg := &config.Config{Profiles: map[string]config.Profile{}}
	assert.Equal(t, "", firstProfileName(cfg))
}

func TestBuildAdaptersPopulatesAllFields(t *testing.T) {
	adapters := buildAdapters()

	require.NotNil(t, adapters.SSH)
	require.NotNil(t, adapters.Docker)
	require.NotNil(t, adapters.Kubernetes)
	require.NotNil(t, adapters.Logs)
}

func TestNewServeCommandDefaultBindAddr(t *testing.T) {
	cmd := newServeCommand()
	flag := cmd.Flags().Lookup("bind")
	require.NotNil(t, flag)
	assert.Equal(t, defaultBindAddr, flag.DefValue)
}
