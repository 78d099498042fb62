package model

import (
	"fmt"
	"path/filepath"

	"github.com/NielsdaWheelz/cloudrole/internal/fs"
)

// Project is the root aggregate: one definition, its settings documents,
// and the scaffold file writes staged against the project directory.
type Project struct {
	Root       string
	Definition *ServiceDefinition
	Settings   []*ServiceSettings

	// Pending holds whole-file scaffold writes that are committed together
	// with the documents. Paths are absolute.
	Pending []fs.File
}

// RoleDir returns the scaffold folder of the named role.
func (p *Project) RoleDir(roleName string) string {
	return filepath.Join(p.Root, roleName)
}

// RoleSettings returns the named role's settings in every settings
// document, in document order. Entries are nil where a document has none.
func (p *Project) RoleSettings(roleName string) []*RoleSettings {
	out := make([]*RoleSettings, len(p.Settings))
	for i, s := range p.Settings {
		out[i] = s.Role(roleName)
	}
	return out
}

// Stage queues a whole-file write, replacing any earlier write to the same path.
func (p *Project) Stage(f fs.File) {
	for i := range p.Pending {
		if p.Pending[i].Path == f.Path {
			p.Pending[i] = f
			return
		}
	}
	p.Pending = append(p.Pending, f)
}

// Staged returns the pending content for path, if any.
func (p *Project) Staged(path string) ([]byte, bool) {
	for _, f := range p.Pending {
		if f.Path == path {
			return f.Data, true
		}
	}
	return nil, false
}

// Check reports the first structural problem in the project documents:
// a duplicated role name, a duplicated endpoint name within a role, or a
// role whose settings are missing from a settings document (or the reverse).
// Definition-side setting names must each have a value in every settings
// document.
func (p *Project) Check() error {
	if err := p.Definition.Check(); err != nil {
		return err
	}
	roles := p.Definition.Roles()
	for _, s := range p.Settings {
		seen := make(map[string]bool, len(s.Roles))
		for _, rs := range s.Roles {
			if seen[rs.Name] {
				return fmt.Errorf("%s: duplicate role %q", s.File, rs.Name)
			}
			seen[rs.Name] = true
		}
		for _, r := range roles {
			rs := s.Role(r.Name)
			if rs == nil {
				return fmt.Errorf("%s: no settings for role %q", s.File, r.Name)
			}
			for _, name := range r.SettingNames() {
				if rs.Setting(name) == nil {
					return fmt.Errorf("%s: role %q has no value for setting %q", s.File, r.Name, name)
				}
			}
			delete(seen, r.Name)
		}
		for _, rs := range s.Roles {
			if seen[rs.Name] {
				return fmt.Errorf("%s: settings for undefined role %q", s.File, rs.Name)
			}
		}
	}
	return nil
}

// Check reports duplicated role names and duplicated endpoint names.
func (d *ServiceDefinition) Check() error {
	seen := make(map[string]bool)
	for _, r := range d.Roles() {
		if r.Name == "" {
			return fmt.Errorf("role without a name")
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate role %q", r.Name)
		}
		seen[r.Name] = true

		endpoints := make(map[string]bool)
		for _, name := range r.EndpointNames() {
			if endpoints[name] {
				return fmt.Errorf("role %q: duplicate endpoint %q", r.Name, name)
			}
			endpoints[name] = true
		}
	}
	return nil
}
