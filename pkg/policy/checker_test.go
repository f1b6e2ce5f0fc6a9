package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscorehq/opscore/pkg/config"
	opserrors "github.com/opscorehq/opscore/pkg/errors"
)

func stagingProfile() config.Profile {
	return config.Profile{
		Name: "staging",
		Allowlist: map[string][]string{
			"kubectl": {"get", "describe"},
			"docker":  {config.Wildcard},
		},
		DangerousFlags:   []string{"--force", "--grace-period=0"},
		DangerousAllowed: false,
	}
}

func TestCheckerAdmitsAllowedVerb(t *testing.T) {
	c, err := NewChecker(stagingProfile())
	require.NoError(t, err)

	err = c.CheckPassthrough("kubectl", []string{"get", "pods"})
	assert.NoError(t, err)
}

func TestCheckerRefusesDisallowedVerb(t *testing.T) {
	c, err := NewChecker(stagingProfile())
	require.NoError(t, err)

	err = c.CheckPassthrough("kubectl", []string{"delete", "pods", "x"})
	require.Error(t, err)
	assert.True(t, opserrors.IsPolicy(err))
}

func TestCheckerWildcardFamilyAdmitsAnyVerb(t *testing.T) {
	c, err := NewChecker(stagingProfile())
	require.NoError(t, err)

	err = c.CheckPassthrough("docker", []string{"ps"})
	assert.NoError(t, err)
}

func TestCheckerRefusesDangerousFlag(t *testing.T) {
	c, err := NewChecker(stagingProfile())
	require.NoError(t, err)

	err = c.CheckPassthrough("docker", []string{"rm", "--force", "c1"})
	require.Error(t, err)
	assert.True(t, opserrors.IsPolicy(err))
}

func TestCheckerAllowsDangerousFlagWhenProfilePermits(t *testing.T) {
	p := stagingProfile()
	p.DangerousAllowed = true
	c, err := NewChecker(p)
	require.NoError(t, err)

	err = c.CheckPassthrough("docker", []string{"rm", "--force", "c1"})
	assert.NoError(t, err)
}
