package registry

import (
	"fmt"
	"strings"
)

// PriorityClass ranks a symbol's importance. Lower ordinal means more
// important; "at or above a threshold" means ordinal <= threshold ordinal.
type PriorityClass uint8

const (
	Essential PriorityClass = iota
	High
	Medium
	Low
	VeryLow
)

var priorityNames = [...]string{"essential", "high", "medium", "low", "verylow"}

func (p PriorityClass) String() string {
	if int(p) < len(priorityNames) {
		return priorityNames[p]
	}
	return fmt.Sprintf("priority(%d)", uint8(p))
}

// AtLeast reports whether p is at or above the given threshold, i.e. at
// least as important.
func (p PriorityClass) AtLeast(threshold PriorityClass) bool {
	return p <= threshold
}

// ParsePriority parses a tier name as printed by String. Case-insensitive.
func ParsePriority(s string) (PriorityClass, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for i, name := range priorityNames {
		if name == needle {
			return PriorityClass(i), nil
		}
	}
	return VeryLow, fmt.Errorf("unknown priority %q", s)
}
