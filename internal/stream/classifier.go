package stream

import "strings"

// DefaultRole is assigned to lines that mention no known role.
const DefaultRole = "system"

// Classifier attributes a line to the first role whose name it contains,
// compared case-insensitively. It is immutable after construction.
type Classifier struct {
	roles   []string
	lowered []string
}

// NewClassifier returns a Classifier over roles in priority order. Empty
// role names are ignored.
func NewClassifier(roles ...string) Classifier {
	c := Classifier{}
	for _, r := range roles {
		if strings.TrimSpace(r) == "" {
			continue
		}
		c.roles = append(c.roles, r)
		c.lowered = append(c.lowered, strings.ToLower(r))
	}
	return c
}

func (c Classifier) Classify(line string) string {
	lower := strings.ToLower(line)
	for i, r := range c.lowered {
		if strings.Contains(lower, r) {
			return c.roles[i]
		}
	}
	return DefaultRole
}

// Roles returns a copy of the role list.
func (c Classifier) Roles() []string {
	return append([]string(nil), c.roles...)
}
