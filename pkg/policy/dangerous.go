package policy

import "strings"

// ScanDangerousFlags scans argv[1:] (the verb itself is never scanned) for
// any of the profile's dangerous flag substrings, reporting the first match
// found. Matching is case-insensitive and substring-based, per spec §4.4's
// examples (`--force`, `--grace-period=0`, `-v` on `down`).
func ScanDangerousFlags(argv []string, dangerousFlags []string) (flag string, found bool) {
	if len(argv) <= 1 {
		return "", false
	}
	rest := strings.ToLower(strings.Join(argv[1:], " "))
	for _, candidate := range dangerousFlags {
		if candidate == "" {
			continue
		}
		if strings.Contains(rest, strings.ToLower(candidate)) {
			return candidate, true
		}
	}
	return "", false
}
