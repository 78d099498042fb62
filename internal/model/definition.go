// Package model is the typed in-memory form of a cloud service project:
// the service definition document, the service settings documents, and the
// roles they describe. It performs no I/O.
//
// Roles and their settings live in different documents and are related by
// role name only. Every Add* mutator is idempotent by name: adding an entry
// whose name already exists leaves the existing entry alone and reports false.
package model

import "encoding/xml"

// DefinitionNamespace is the default namespace of a service definition document.
const DefinitionNamespace = "http://schemas.microsoft.com/ServiceHosting/2008/10/ServiceDefinition"

// RoleKind distinguishes web roles from worker roles.
type RoleKind string

const (
	RoleKindWeb    RoleKind = "web"
	RoleKindWorker RoleKind = "worker"
)

// Protocol is an endpoint transport protocol.
type Protocol string

const (
	ProtocolTCP   Protocol = "tcp"
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
	ProtocolUDP   Protocol = "udp"
)

// ServiceDefinition is the service-wide definition document: role topology,
// endpoints, startup tasks, local storage and setting names.
type ServiceDefinition struct {
	XMLName     xml.Name `xml:"ServiceDefinition"`
	Name        string   `xml:"name,attr"`
	Xmlns       string   `xml:"xmlns,attr,omitempty"`
	WebRoles    []*Role  `xml:"WebRole"`
	WorkerRoles []*Role  `xml:"WorkerRole"`
	Extension
}

// NewServiceDefinition returns an empty definition for the named service.
func NewServiceDefinition(serviceName string) *ServiceDefinition {
	return &ServiceDefinition{Name: serviceName, Xmlns: DefinitionNamespace}
}

// Roles returns every role in document order: web roles, then worker roles.
func (d *ServiceDefinition) Roles() []*Role {
	roles := make([]*Role, 0, len(d.WebRoles)+len(d.WorkerRoles))
	for _, r := range d.WebRoles {
		r.kind = RoleKindWeb
		roles = append(roles, r)
	}
	for _, r := range d.WorkerRoles {
		r.kind = RoleKindWorker
		roles = append(roles, r)
	}
	return roles
}

// AddRole appends r as a role of the given kind.
// Reports false and leaves the document unchanged if a role with the same
// name already exists, of either kind.
func (d *ServiceDefinition) AddRole(kind RoleKind, r *Role) bool {
	for _, existing := range d.Roles() {
		if existing.Name == r.Name {
			return false
		}
	}
	r.kind = kind
	switch kind {
	case RoleKindWeb:
		d.WebRoles = append(d.WebRoles, r)
	default:
		r.kind = RoleKindWorker
		d.WorkerRoles = append(d.WorkerRoles, r)
	}
	return true
}

// Role is a web role or a worker role; the two share one shape and differ
// only in the element they are stored under.
type Role struct {
	kind RoleKind

	Name                  string                 `xml:"name,attr"`
	VMSize                string                 `xml:"vmsize,attr,omitempty"`
	Imports               *Imports               `xml:"Imports,omitempty"`
	Startup               *Startup               `xml:"Startup,omitempty"`
	Endpoints             *Endpoints             `xml:"Endpoints,omitempty"`
	LocalResources        *LocalResources        `xml:"LocalResources,omitempty"`
	ConfigurationSettings *ConfigurationSettings `xml:"ConfigurationSettings,omitempty"`
	Extension
}

// Kind reports whether r is a web or worker role. It is only known for roles
// reached through ServiceDefinition.Roles or added with AddRole.
func (r *Role) Kind() RoleKind {
	return r.kind
}

// Imports lists the plugin modules a role imports.
type Imports struct {
	Imports []Import `xml:"Import"`
	Extension
}

// Import names one plugin module.
type Import struct {
	ModuleName string `xml:"moduleName,attr"`
	Extension
}

// Startup holds the tasks run before a role instance starts.
type Startup struct {
	Tasks []Task `xml:"Task"`
	Extension
}

// Task is one startup task. Tasks are identified by their command line.
type Task struct {
	CommandLine      string       `xml:"commandLine,attr"`
	ExecutionContext string       `xml:"executionContext,attr,omitempty"`
	TaskType         string       `xml:"taskType,attr,omitempty"`
	Environment      *Environment `xml:"Environment,omitempty"`
	Extension
}

// Environment is the variable set passed to a startup task.
type Environment struct {
	Variables []Variable `xml:"Variable"`
	Extension
}

// Variable is a startup task environment variable. A variable carries either
// a literal Value or a RoleInstanceValue resolved at runtime.
type Variable struct {
	Name              string             `xml:"name,attr"`
	Value             string             `xml:"value,attr,omitempty"`
	RoleInstanceValue *RoleInstanceValue `xml:"RoleInstanceValue,omitempty"`
	Extension
}

// RoleInstanceValue resolves a variable from the role environment.
type RoleInstanceValue struct {
	XPath string `xml:"xpath,attr"`
	Extension
}

// Variable returns the named variable of t, or nil.
func (t *Task) Variable(name string) *Variable {
	if t.Environment == nil {
		return nil
	}
	for i := range t.Environment.Variables {
		if t.Environment.Variables[i].Name == name {
			return &t.Environment.Variables[i]
		}
	}
	return nil
}

// Endpoints holds a role's external (input) and internal endpoints.
type Endpoints struct {
	Input    []InputEndpoint    `xml:"InputEndpoint"`
	Internal []InternalEndpoint `xml:"InternalEndpoint"`
	Extension
}

// InputEndpoint is an internet-facing endpoint.
type InputEndpoint struct {
	Name     string   `xml:"name,attr"`
	Protocol Protocol `xml:"protocol,attr"`
	Port     string   `xml:"port,attr"`
	Extension
}

// InternalEndpoint is an endpoint for role-to-role traffic.
type InternalEndpoint struct {
	Name     string   `xml:"name,attr"`
	Protocol Protocol `xml:"protocol,attr"`
	Port     string   `xml:"port,attr,omitempty"`
	Extension
}

// LocalResources holds a role's local disk allocations.
type LocalResources struct {
	LocalStorage []LocalStore `xml:"LocalStorage"`
	Extension
}

// LocalStore is a declared local disk allocation.
type LocalStore struct {
	Name               string `xml:"name,attr"`
	SizeInMB           int    `xml:"sizeInMB,attr,omitempty"`
	CleanOnRoleRecycle bool   `xml:"cleanOnRoleRecycle,attr"`
	Extension
}

// ConfigurationSettings declares setting names on the definition side.
// Values live in the settings documents.
type ConfigurationSettings struct {
	Settings []SettingName `xml:"Setting"`
	Extension
}

// SettingName is a definition-side setting declaration.
type SettingName struct {
	Name string `xml:"name,attr"`
	Extension
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	c := t
	c.Attrs = append([]Attr(nil), t.Attrs...)
	c.Extra = append([]Unknown(nil), t.Extra...)
	if t.Environment != nil {
		env := &Environment{Extension: t.Environment.Extension}
		for _, v := range t.Environment.Variables {
			if v.RoleInstanceValue != nil {
				riv := *v.RoleInstanceValue
				v.RoleInstanceValue = &riv
			}
			env.Variables = append(env.Variables, v)
		}
		c.Environment = env
	}
	return c
}

// UnmarshalXML decodes the document and restores the prefixes of foreign
// names, so that unknown content is written back as it was read.
func (d *ServiceDefinition) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	type plain ServiceDefinition
	if err := dec.DecodeElement((*plain)(d), &start); err != nil {
		return err
	}
	s := d.Extension.qualify(rootScope(d.Xmlns))
	for _, r := range d.WebRoles {
		r.qualify(s)
	}
	for _, r := range d.WorkerRoles {
		r.qualify(s)
	}
	return nil
}

func (r *Role) qualify(parent nsScope) {
	s := r.Extension.qualify(parent)
	if r.Imports != nil {
		is := r.Imports.qualify(s)
		for i := range r.Imports.Imports {
			r.Imports.Imports[i].qualify(is)
		}
	}
	if r.Startup != nil {
		ss := r.Startup.qualify(s)
		for i := range r.Startup.Tasks {
			r.Startup.Tasks[i].qualifyTask(ss)
		}
	}
	if r.Endpoints != nil {
		es := r.Endpoints.qualify(s)
		for i := range r.Endpoints.Input {
			r.Endpoints.Input[i].qualify(es)
		}
		for i := range r.Endpoints.Internal {
			r.Endpoints.Internal[i].qualify(es)
		}
	}
	if r.LocalResources != nil {
		ls := r.LocalResources.qualify(s)
		for i := range r.LocalResources.LocalStorage {
			r.LocalResources.LocalStorage[i].qualify(ls)
		}
	}
	if r.ConfigurationSettings != nil {
		cs := r.ConfigurationSettings.qualify(s)
		for i := range r.ConfigurationSettings.Settings {
			r.ConfigurationSettings.Settings[i].qualify(cs)
		}
	}
}

func (t *Task) qualifyTask(parent nsScope) {
	s := t.qualify(parent)
	if t.Environment == nil {
		return
	}
	es := t.Environment.qualify(s)
	for i := range t.Environment.Variables {
		v := &t.Environment.Variables[i]
		vs := v.qualify(es)
		if v.RoleInstanceValue != nil {
			v.RoleInstanceValue.qualify(vs)
		}
	}
}
