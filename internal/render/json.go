// Package render provides output formatting for cloudrole commands.
package render

import (
	"encoding/json"
	"io"
)

// SchemaVersion is the version of every --json envelope.
const SchemaVersion = "1.0"

// ProjectDetail is the public contract for show --json output.
type ProjectDetail struct {
	// Service is the service name from the definition document.
	Service string `json:"service"`

	// Root is the project directory.
	Root string `json:"root"`

	// Documents lists the definition file followed by the settings files.
	Documents []string `json:"documents"`

	Roles []RoleDetail `json:"roles"`
}

// RoleDetail describes one role across the definition and settings documents.
type RoleDetail struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	VMSize string `json:"vm_size,omitempty"`

	// Instances maps each settings file to the role's instance count.
	Instances map[string]int `json:"instances"`

	Imports      []string         `json:"imports"`
	Endpoints    []EndpointJSON   `json:"endpoints"`
	LocalStores  []LocalStoreJSON `json:"local_stores"`
	Settings     []string         `json:"settings"`
	StartupTasks []string         `json:"startup_tasks"`
	Features     []RoleFeature    `json:"features"`
}

// EndpointJSON is one input or internal endpoint.
type EndpointJSON struct {
	Name     string `json:"name"`
	Type     string `json:"type"` // input or internal
	Protocol string `json:"protocol"`
	Port     string `json:"port,omitempty"`
}

// LocalStoreJSON is one local storage allocation.
type LocalStoreJSON struct {
	Name               string `json:"name"`
	SizeInMB           int    `json:"size_mb"`
	CleanOnRoleRecycle bool   `json:"clean_on_role_recycle"`
}

// RoleFeature names a feature and the part the role plays in it.
type RoleFeature struct {
	Feature string `json:"feature"`
	As      string `json:"as"` // consumer or provider
}

// FeatureSummary is one entry of features --json output.
type FeatureSummary struct {
	ID             string `json:"id"`
	ConsumerKind   string `json:"consumer_kind"`
	ProviderKind   string `json:"provider_kind"`
	ProviderImport string `json:"provider_import"`
}

type envelope struct {
	SchemaVersion string `json:"schema_version"`
	Data          any    `json:"data"`
}

// WriteShowJSON writes the show output as JSON to the given writer.
func WriteShowJSON(w io.Writer, detail *ProjectDetail) error {
	return writeJSON(w, detail)
}

// WriteFeaturesJSON writes the feature registry as JSON.
func WriteFeaturesJSON(w io.Writer, features []FeatureSummary) error {
	if features == nil {
		features = []FeatureSummary{}
	}
	return writeJSON(w, features)
}

func writeJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(envelope{SchemaVersion: SchemaVersion, Data: data})
}
