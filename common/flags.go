package common

import (
	"strings"
)

// ArrayFlags collects every value of a repeatable flag.
type ArrayFlags []string

func (a *ArrayFlags) String() string {
	if a == nil {
		return ""
	}
	return strings.Join(*a, ",")
}

// Set implements flag.Value.
func (a *ArrayFlags) Set(value string) error {
	*a = append(*a, value)
	return nil
}
