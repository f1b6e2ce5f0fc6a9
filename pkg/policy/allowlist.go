package policy

import (
	"fmt"

	cedar "github.com/cedar-policy/cedar-go"

	"github.com/opscorehq/opscore/pkg/config"
	opserrors "github.com/opscorehq/opscore/pkg/errors"
)

// Allowlist compiles a profile's command-family allowlist into a Cedar
// policy set, one permit policy per admitted (family, verb) pair (or a
// single unconditional permit when the family carries the wildcard token).
// Admission is then decided by Cedar's own evaluator rather than a
// hand-rolled set-membership check.
type Allowlist struct {
	set *cedar.PolicySet
}

// NewAllowlist builds the policy set for profile. An allowlist with no
// entries compiles to an empty policy set, which denies every verb.
func NewAllowlist(profile config.Profile) (*Allowlist, error) {
	set := cedar.NewPolicySet()
	seq := 0
	for family, verbs := range profile.Allowlist {
		for _, verb := range verbs {
			text := allowlistPolicyText(family, verb)
			policies, err := cedar.NewPolicyListFromBytes("allowlist.cedar", []byte(text))
			if err != nil {
				return nil, opserrors.NewInvalidArgumentError(
					fmt.Sprintf("invalid allowlist entry %s/%s", family, verb), err)
			}
			for _, p := range policies {
				set.Add(cedar.PolicyID(fmt.Sprintf("allow-%d", seq)), p)
				seq++
			}
		}
	}
	return &Allowlist{set: set}, nil
}

func allowlistPolicyText(family, verb string) string {
	if verb == config.Wildcard {
		return fmt.Sprintf(`permit(principal, action == Action::"invoke", resource == Family::%q);`, family)
	}
	return fmt.Sprintf(
		`permit(principal, action == Action::"invoke", resource == Family::%q) when { context.verb == %q };`,
		family, verb,
	)
}

// Allowed reports whether verb is admitted for family: verb is in the
// profile's allowlist for that family, or the family carries the wildcard
// token (spec §4.4).
func (a *Allowlist) Allowed(family, verb string) bool {
	req := cedar.Request{
		Principal: cedar.EntityUID{Type: "Session", ID: cedar.String("current")},
		Action:    cedar.EntityUID{Type: "Action", ID: cedar.String("invoke")},
		Resource:  cedar.EntityUID{Type: "Family", ID: cedar.String(family)},
		Context: cedar.NewRecord(cedar.RecordMap{
			"verb": cedar.String(verb),
		}),
	}
	decision, _ := cedar.Authorize(a.set, cedar.EntityMap{}, req)
	return decision == cedar.Allow
}
