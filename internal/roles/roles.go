// Package roles resolves roles by name within a service definition.
package roles

import (
	"fmt"

	"github.com/NielsdaWheelz/cloudrole/internal/errors"
	"github.com/NielsdaWheelz/cloudrole/internal/model"
)

// Find returns the first role named name. Matching is exact and case-sensitive.
// Returns E_ROLE_NOT_FOUND when no role matches.
func Find(def *model.ServiceDefinition, name string) (*model.Role, error) {
	for _, r := range def.Roles() {
		if r.Name == name {
			return r, nil
		}
	}
	return nil, errors.NewWithDetails(errors.ERoleNotFound,
		fmt.Sprintf("Role with name %s does not exist.", name),
		map[string]string{"role": name})
}

// ExpectKind returns E_WRONG_ROLE_KIND when r is not of the given kind.
func ExpectKind(r *model.Role, kind model.RoleKind) error {
	if r.Kind() == kind {
		return nil
	}
	return errors.NewWithDetails(errors.EWrongRoleKind,
		fmt.Sprintf("%s is a %s role, not a %s role.", r.Name, r.Kind(), kind),
		map[string]string{"role": r.Name, "kind": string(r.Kind()), "expected_kind": string(kind)})
}
