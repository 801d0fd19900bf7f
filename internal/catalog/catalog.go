// Package catalog holds the role catalog used by the scoring engine.
//
// A Catalog is immutable once built. Role order is the construction order and
// is the order used to break ties when recommending a role.
package catalog

import (
	"slices"
	"strings"
)

// RoleProfile is a job role and the skills it requires.
type RoleProfile struct {
	Name           string   `json:"name"`
	RequiredSkills []string `json:"requiredSkills"`
}

func (r RoleProfile) clone() RoleProfile {
	return RoleProfile{Name: r.Name, RequiredSkills: slices.Clone(r.RequiredSkills)}
}

// Source provides the catalog snapshot to score against.
type Source interface {
	Catalog() *Catalog
}

// Catalog is an ordered, immutable set of role profiles.
type Catalog struct {
	roles []RoleProfile
	index map[string]int
}

// New validates and normalizes the given profiles into a catalog.
// Skills are trimmed, lowercased and deduplicated keeping first occurrence.
func New(profiles ...RoleProfile) (*Catalog, error) {
	if len(profiles) == 0 {
		return nil, &InvalidRoleError{Reason: "catalog must define at least one role"}
	}

	c := &Catalog{
		roles: make([]RoleProfile, 0, len(profiles)),
		index: make(map[string]int, len(profiles)),
	}

	for _, p := range profiles {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, &InvalidRoleError{Reason: "role name is empty"}
		}

		key := strings.ToLower(name)
		if _, dup := c.index[key]; dup {
			return nil, &InvalidRoleError{Name: name, Reason: "duplicate role name"}
		}

		skills := normalizeSkills(p.RequiredSkills)
		if len(skills) == 0 {
			return nil, &InvalidRoleError{Name: name, Reason: "role has no required skills"}
		}

		c.index[key] = len(c.roles)
		c.roles = append(c.roles, RoleProfile{Name: name, RequiredSkills: skills})
	}

	return c, nil
}

// MustNew is like New but panics on error. Intended for static catalogs.
func MustNew(profiles ...RoleProfile) *Catalog {
	c, err := New(profiles...)
	if err != nil {
		panic(err)
	}
	return c
}

func normalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Catalog returns c itself, so a fixed catalog can be used as a Source.
func (c *Catalog) Catalog() *Catalog {
	return c
}

// Len returns the number of roles.
func (c *Catalog) Len() int {
	return len(c.roles)
}

// Roles returns a copy of all roles in catalog order.
func (c *Catalog) Roles() []RoleProfile {
	out := make([]RoleProfile, len(c.roles))
	for i, r := range c.roles {
		out[i] = r.clone()
	}
	return out
}

// Names returns the role names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.roles))
	for i, r := range c.roles {
		names[i] = r.Name
	}
	return names
}

// Lookup finds a role by name. An exact match wins; otherwise names are
// compared case-insensitively.
func (c *Catalog) Lookup(name string) (RoleProfile, error) {
	for _, r := range c.roles {
		if r.Name == name {
			return r.clone(), nil
		}
	}
	if i, ok := c.index[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c.roles[i].clone(), nil
	}
	return RoleProfile{}, &UnknownRoleError{Name: name, Known: c.Names()}
}
