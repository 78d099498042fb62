package model

import "encoding/xml"

// SettingsNamespace is the default namespace of a service settings document.
const SettingsNamespace = "http://schemas.microsoft.com/ServiceHosting/2008/10/ServiceConfiguration"

// ServiceSettings is one service-wide settings document: per-role instance
// counts and setting values.
type ServiceSettings struct {
	XMLName     xml.Name        `xml:"ServiceConfiguration"`
	ServiceName string          `xml:"serviceName,attr"`
	Xmlns       string          `xml:"xmlns,attr,omitempty"`
	Roles       []*RoleSettings `xml:"Role"`
	Extension

	// File is the document's file name within the project, e.g.
	// "ServiceConfiguration.Cloud.cscfg". Not serialised.
	File string `xml:"-"`
}

// NewServiceSettings returns an empty settings document.
func NewServiceSettings(serviceName, file string) *ServiceSettings {
	return &ServiceSettings{ServiceName: serviceName, Xmlns: SettingsNamespace, File: file}
}

// Role returns the settings of the named role, or nil.
func (s *ServiceSettings) Role(name string) *RoleSettings {
	for _, rs := range s.Roles {
		if rs.Name == name {
			return rs
		}
	}
	return nil
}

// AddRole appends rs. Reports false if the role already has settings.
func (s *ServiceSettings) AddRole(rs *RoleSettings) bool {
	if s.Role(rs.Name) != nil {
		return false
	}
	s.Roles = append(s.Roles, rs)
	return true
}

// RoleSettings is the settings-document counterpart of a role, related to
// it by name.
type RoleSettings struct {
	Name                  string         `xml:"name,attr"`
	Instances             *Instances     `xml:"Instances,omitempty"`
	ConfigurationSettings *SettingValues `xml:"ConfigurationSettings,omitempty"`
	Extension
}

// NewRoleSettings returns settings for a role with the given instance count.
func NewRoleSettings(name string, instances int) *RoleSettings {
	return &RoleSettings{Name: name, Instances: &Instances{Count: instances}}
}

// Instances is a role's instance count.
type Instances struct {
	Count int `xml:"count,attr"`
	Extension
}

// SettingValues holds name/value pairs.
type SettingValues struct {
	Settings []Setting `xml:"Setting"`
	Extension
}

// Setting is one configuration value.
type Setting struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
	Extension
}

// Setting returns the named setting, or nil.
func (rs *RoleSettings) Setting(name string) *Setting {
	if rs.ConfigurationSettings == nil {
		return nil
	}
	for i := range rs.ConfigurationSettings.Settings {
		if rs.ConfigurationSettings.Settings[i].Name == name {
			return &rs.ConfigurationSettings.Settings[i]
		}
	}
	return nil
}

// SettingNames lists the setting names of rs in document order.
func (rs *RoleSettings) SettingNames() []string {
	if rs.ConfigurationSettings == nil {
		return nil
	}
	names := make([]string, 0, len(rs.ConfigurationSettings.Settings))
	for _, s := range rs.ConfigurationSettings.Settings {
		names = append(names, s.Name)
	}
	return names
}

// InstanceCount returns the role's instance count, or 0 when the document
// has no Instances element for it.
func (rs *RoleSettings) InstanceCount() int {
	if rs.Instances == nil {
		return 0
	}
	return rs.Instances.Count
}

// AddSetting adds a name/value pair. An existing setting keeps its value.
func (rs *RoleSettings) AddSetting(name, value string) bool {
	if rs.Setting(name) != nil {
		return false
	}
	if rs.ConfigurationSettings == nil {
		rs.ConfigurationSettings = &SettingValues{}
	}
	rs.ConfigurationSettings.Settings = append(rs.ConfigurationSettings.Settings, Setting{Name: name, Value: value})
	return true
}

// SetSetting sets name to value, adding the setting if needed. Reports
// whether the document changed.
func (rs *RoleSettings) SetSetting(name, value string) bool {
	if existing := rs.Setting(name); existing != nil {
		if existing.Value == value {
			return false
		}
		existing.Value = value
		return true
	}
	return rs.AddSetting(name, value)
}

// UnmarshalXML decodes the document and restores the prefixes of foreign
// names, so that unknown content is written back as it was read.
func (s *ServiceSettings) UnmarshalXML(dec *xml.Decoder, start xml.StartElement) error {
	type plain ServiceSettings
	if err := dec.DecodeElement((*plain)(s), &start); err != nil {
		return err
	}
	scope := s.Extension.qualify(rootScope(s.Xmlns))
	for _, rs := range s.Roles {
		rscope := rs.qualify(scope)
		if rs.Instances != nil {
			rs.Instances.qualify(rscope)
		}
		if rs.ConfigurationSettings != nil {
			cs := rs.ConfigurationSettings.qualify(rscope)
			for i := range rs.ConfigurationSettings.Settings {
				rs.ConfigurationSettings.Settings[i].qualify(cs)
			}
		}
	}
	return nil
}
