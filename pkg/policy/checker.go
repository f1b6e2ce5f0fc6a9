package policy

import (
	"fmt"

	"github.com/opscorehq/opscore/pkg/config"
	opserrors "github.com/opscorehq/opscore/pkg/errors"
)

// Checker is the per-profile policy view: allowlist plus dangerous-flag
// admission, rebuilt atomically on every profile switch (spec §3's
// "Lifecycles" invariant).
type Checker struct {
	profile   config.Profile
	allowlist *Allowlist
}

// NewChecker compiles a profile's allowlist into a fresh policy view.
func NewChecker(profile config.Profile) (*Checker, error) {
	al, err := NewAllowlist(profile)
	if err != nil {
		return nil, err
	}
	return &Checker{profile: profile, allowlist: al}, nil
}

// CheckPassthrough runs the full §4.4 pre-check for a pass-through tool:
// the verb (argv[0]) must be admitted by the allowlist, and — unless the
// profile allows dangerous flags — none of the remaining argv may contain a
// dangerous flag substring. Returns a *errors.Error of type ErrPolicy on
// refusal, nil on admission.
func (c *Checker) CheckPassthrough(family string, argv []string) error {
	if len(argv) == 0 {
		return opserrors.NewPolicyError("empty command", nil)
	}
	verb := argv[0]
	if !c.allowlist.Allowed(family, verb) {
		return opserrors.NewPolicyError(
			fmt.Sprintf("verb %q is not permitted for %s under the active profile", verb, family), nil)
	}
	if !c.profile.DangerousAllowed {
		if flag, found := ScanDangerousFlags(argv, c.profile.DangerousFlags); found {
			return opserrors.NewPolicyError(
				fmt.Sprintf("flag %q is refused by policy for %s %s", flag, family, verb), nil)
		}
	}
	return nil
}

// CheckCommandFlags runs only the dangerous-flag half of the §4.4 pre-check,
// for tools (e.g. ssh_execute) whose argument is an arbitrary remote command
// rather than a fixed allowlisted verb: no family membership is required,
// but the command is still refused when it carries a dangerous flag and the
// profile does not allow dangerous flags.
func (c *Checker) CheckCommandFlags(argv []string) error {
	if c.profile.DangerousAllowed {
		return nil
	}
	if flag, found := ScanDangerousFlags(argv, c.profile.DangerousFlags); found {
		return opserrors.NewPolicyError(fmt.Sprintf("flag %q is refused by policy", flag), nil)
	}
	return nil
}
