package petri

import "strings"

// Separator joins the include names of a qualified component name.
const Separator = "."

// Qualify prefixes name with the given include path. Empty parts are skipped,
// so an unnamed root contributes nothing.
func Qualify(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, Separator)
}

// Local returns the last segment of a qualified name.
func Local(name string) string {
	if i := strings.LastIndex(name, Separator); i >= 0 {
		return name[i+1:]
	}
	return name
}
