package navigation

import "fmt"

// Policy is how a single navigation is handled.
type Policy int

const (
	// Allow loads the URL in the web view.
	Allow Policy = iota
	// AllowWithToolbar loads the URL in the web view and shows the "Done"
	// escape hatch back to the start URL.
	AllowWithToolbar
	// External hands the URL to the default browser.
	External
	// System hands the URL to the OS (tel:, mailto:, maps: ...).
	System
	// Cancel drops the navigation.
	Cancel
)

var policyNames = [...]string{
	Allow:            "allow",
	AllowWithToolbar: "allowWithToolbar",
	External:         "external",
	System:           "system",
	Cancel:           "cancel",
}

func (p Policy) String() string {
	if p < 0 || int(p) >= len(policyNames) {
		return fmt.Sprintf("policy(%d)", int(p))
	}
	return policyNames[p]
}

// InApp reports whether the web view itself should load the URL.
func (p Policy) InApp() bool {
	return p == Allow || p == AllowWithToolbar
}

func ParsePolicy(s string) (Policy, error) {
	for i, name := range policyNames {
		if name == s {
			return Policy(i), nil
		}
	}
	return Cancel, fmt.Errorf("unknown navigation policy %q", s)
}

func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
