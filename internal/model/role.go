package model

// HasImport reports whether r imports the named module.
func (r *Role) HasImport(module string) bool {
	if r.Imports == nil {
		return false
	}
	for _, imp := range r.Imports.Imports {
		if imp.ModuleName == module {
			return true
		}
	}
	return false
}

// AddImport adds a module import.
func (r *Role) AddImport(module string) bool {
	if r.HasImport(module) {
		return false
	}
	if r.Imports == nil {
		r.Imports = &Imports{}
	}
	r.Imports.Imports = append(r.Imports.Imports, Import{ModuleName: module})
	return true
}

// HasEndpoint reports whether r declares an input or internal endpoint
// with the given name. Endpoint names share one namespace per role.
func (r *Role) HasEndpoint(name string) bool {
	return r.InputEndpoint(name) != nil || r.InternalEndpoint(name) != nil
}

// InputEndpoint returns the named input endpoint, or nil.
func (r *Role) InputEndpoint(name string) *InputEndpoint {
	if r.Endpoints == nil {
		return nil
	}
	for i := range r.Endpoints.Input {
		if r.Endpoints.Input[i].Name == name {
			return &r.Endpoints.Input[i]
		}
	}
	return nil
}

// InternalEndpoint returns the named internal endpoint, or nil.
func (r *Role) InternalEndpoint(name string) *InternalEndpoint {
	if r.Endpoints == nil {
		return nil
	}
	for i := range r.Endpoints.Internal {
		if r.Endpoints.Internal[i].Name == name {
			return &r.Endpoints.Internal[i]
		}
	}
	return nil
}

// AddInputEndpoint adds an internet-facing endpoint.
func (r *Role) AddInputEndpoint(ep InputEndpoint) bool {
	if r.HasEndpoint(ep.Name) {
		return false
	}
	if r.Endpoints == nil {
		r.Endpoints = &Endpoints{}
	}
	r.Endpoints.Input = append(r.Endpoints.Input, ep)
	return true
}

// AddInternalEndpoint adds a role-to-role endpoint.
func (r *Role) AddInternalEndpoint(ep InternalEndpoint) bool {
	if r.HasEndpoint(ep.Name) {
		return false
	}
	if r.Endpoints == nil {
		r.Endpoints = &Endpoints{}
	}
	r.Endpoints.Internal = append(r.Endpoints.Internal, ep)
	return true
}

// EndpointNames lists every endpoint name of r, input endpoints first.
func (r *Role) EndpointNames() []string {
	if r.Endpoints == nil {
		return nil
	}
	names := make([]string, 0, len(r.Endpoints.Input)+len(r.Endpoints.Internal))
	for _, ep := range r.Endpoints.Input {
		names = append(names, ep.Name)
	}
	for _, ep := range r.Endpoints.Internal {
		names = append(names, ep.Name)
	}
	return names
}

// LocalStore returns the named local store, or nil.
func (r *Role) LocalStore(name string) *LocalStore {
	if r.LocalResources == nil {
		return nil
	}
	for i := range r.LocalResources.LocalStorage {
		if r.LocalResources.LocalStorage[i].Name == name {
			return &r.LocalResources.LocalStorage[i]
		}
	}
	return nil
}

// AddLocalStore declares a local disk allocation.
func (r *Role) AddLocalStore(ls LocalStore) bool {
	if r.LocalStore(ls.Name) != nil {
		return false
	}
	if r.LocalResources == nil {
		r.LocalResources = &LocalResources{}
	}
	r.LocalResources.LocalStorage = append(r.LocalResources.LocalStorage, ls)
	return true
}

// HasSetting reports whether r declares the named setting.
func (r *Role) HasSetting(name string) bool {
	if r.ConfigurationSettings == nil {
		return false
	}
	for _, s := range r.ConfigurationSettings.Settings {
		if s.Name == name {
			return true
		}
	}
	return false
}

// SettingNames lists the definition-side setting names of r.
func (r *Role) SettingNames() []string {
	if r.ConfigurationSettings == nil {
		return nil
	}
	names := make([]string, 0, len(r.ConfigurationSettings.Settings))
	for _, s := range r.ConfigurationSettings.Settings {
		names = append(names, s.Name)
	}
	return names
}

// AddSetting declares a setting name.
func (r *Role) AddSetting(name string) bool {
	if r.HasSetting(name) {
		return false
	}
	if r.ConfigurationSettings == nil {
		r.ConfigurationSettings = &ConfigurationSettings{}
	}
	r.ConfigurationSettings.Settings = append(r.ConfigurationSettings.Settings, SettingName{Name: name})
	return true
}

// StartupTask returns the task with the given command line, or nil.
func (r *Role) StartupTask(commandLine string) *Task {
	if r.Startup == nil {
		return nil
	}
	for i := range r.Startup.Tasks {
		if r.Startup.Tasks[i].CommandLine == commandLine {
			return &r.Startup.Tasks[i]
		}
	}
	return nil
}

// AddStartupTask appends a startup task, keyed by command line.
func (r *Role) AddStartupTask(t Task) bool {
	if r.StartupTask(t.CommandLine) != nil {
		return false
	}
	if r.Startup == nil {
		r.Startup = &Startup{}
	}
	r.Startup.Tasks = append(r.Startup.Tasks, t)
	return true
}
