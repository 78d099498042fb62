// Package feature is the closed, compiled-in table of features that can be
// enabled on a role. A descriptor is declarative data; the enable package
// applies it.
package feature

import (
	"fmt"
	"sort"

	"github.com/NielsdaWheelz/cloudrole/internal/model"
	"github.com/NielsdaWheelz/cloudrole/internal/scaffold"
)

// ID identifies a feature.
type ID string

// Memcache enables a memcache-compatible cache client on a web role, backed
// by a worker role that hosts the cache.
const Memcache ID = "memcache"

// Descriptor declares which roles may provide and consume a feature and what
// enabling it adds to the consumer.
type Descriptor struct {
	ID           ID
	ProviderKind model.RoleKind
	ConsumerKind model.RoleKind

	// ProviderImport is the module a provider role must already import.
	ProviderImport string

	// ConsumerMarker is the definition-side setting whose presence on the
	// consumer means the feature is enabled.
	ConsumerMarker string

	// Directives are applied to the consumer in order.
	Directives []Directive
}

// Directive is one mutation applied to the consumer role.
type Directive interface {
	directive()
}

// AddInternalEndpoint adds a role-to-role endpoint to the consumer.
type AddInternalEndpoint struct {
	Endpoint model.InternalEndpoint
}

// AddLocalStore declares a local disk allocation on the consumer.
type AddLocalStore struct {
	Store model.LocalStore
}

// AddDefinitionSetting declares a setting name on the consumer.
type AddDefinitionSetting struct {
	Name string
}

// AddSettingValue sets a value in every settings document.
type AddSettingValue struct {
	Name  string
	Value string
}

// AddStartupTask appends a startup task to the consumer.
type AddStartupTask struct {
	Task model.Task
}

// CopyScaffold copies a scaffold template into the consumer's folder.
type CopyScaffold struct {
	Template string
}

// InjectConfigSections merges configuration sections into a file in the
// consumer's folder. Fragment is expanded with scaffold.RenderFragment.
type InjectConfigSections struct {
	File     string
	Sections []scaffold.Section
	Fragment string
}

func (AddInternalEndpoint) directive()  {}
func (AddLocalStore) directive()        {}
func (AddDefinitionSetting) directive() {}
func (AddSettingValue) directive()      {}
func (AddStartupTask) directive()       {}
func (CopyScaffold) directive()         {}
func (InjectConfigSections) directive() {}

var registry = map[ID]Descriptor{
	Memcache: memcache(),
}

// Lookup returns the descriptor for id. Unknown ids are a programming error
// and panic; validate user input with Parse first.
func Lookup(id ID) Descriptor {
	d, ok := registry[id]
	if !ok {
		panic(fmt.Sprintf("feature: unknown feature %q", string(id)))
	}
	return d
}

// Parse validates a user-supplied feature name.
func Parse(s string) (ID, bool) {
	id := ID(s)
	_, ok := registry[id]
	return id, ok
}

// All returns every descriptor ordered by id.
func All() []Descriptor {
	out := make([]Descriptor, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Provides reports whether r can host d.
func (d Descriptor) Provides(r *model.Role) bool {
	return r.Kind() == d.ProviderKind && r.HasImport(d.ProviderImport)
}

// EnabledOn reports whether d has been enabled on the consumer r.
func (d Descriptor) EnabledOn(r *model.Role) bool {
	return r.Kind() == d.ConsumerKind && r.HasSetting(d.ConsumerMarker)
}
