package flp

import (
	"fmt"
	"strconv"
	"strings"
)

// ArrayStringFlags collects a repeatable string flag.
type ArrayStringFlags []string

func (a *ArrayStringFlags) String() string {
	return strings.Join(*a, ",")
}

func (a *ArrayStringFlags) Set(value string) error {
	*a = append(*a, value)
	return nil
}

// ArrayIntFlags collects a repeatable int flag.
type ArrayIntFlags []int

func (a *ArrayIntFlags) String() string {
	parts := make([]string, len(*a))
	for i, v := range *a {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (a *ArrayIntFlags) Set(value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parsing %q as int: %w", value, err)
	}
	*a = append(*a, v)
	return nil
}
