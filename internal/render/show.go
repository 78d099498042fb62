package render

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// WriteShowHuman writes human-readable show output: a service header, a
// role table, then one section per role.
func WriteShowHuman(w io.Writer, d *ProjectDetail) error {
	fmt.Fprintln(w, "=== service ===")
	fmt.Fprintf(w, "service: %s\n", d.Service)
	fmt.Fprintf(w, "root: %s\n", d.Root)
	fmt.Fprintf(w, "documents: %s\n", strings.Join(d.Documents, ", "))

	if len(d.Roles) == 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "no roles; add one with 'cloudrole add-role'")
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== roles ===")
	rows := make([][]string, 0, len(d.Roles))
	for _, r := range d.Roles {
		rows = append(rows, []string{r.Name, r.Kind, instancesCell(r.Instances), featuresCell(r.Features)})
	}
	if err := WriteTable(w, []string{"NAME", "KIND", "INSTANCES", "FEATURES"}, rows); err != nil {
		return err
	}

	for _, r := range d.Roles {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "=== %s ===\n", r.Name)
		fmt.Fprintf(w, "kind: %s\n", r.Kind)
		if r.VMSize != "" {
			fmt.Fprintf(w, "vm_size: %s\n", r.VMSize)
		}
		for _, file := range sortedKeys(r.Instances) {
			fmt.Fprintf(w, "instances[%s]: %d\n", file, r.Instances[file])
		}
		fmt.Fprintf(w, "imports: %s\n", list(r.Imports))
		for _, ep := range r.Endpoints {
			fmt.Fprintf(w, "endpoint: %s %s %s\n", ep.Name, ep.Type, JoinStrings(":", ep.Protocol, ep.Port))
		}
		for _, ls := range r.LocalStores {
			fmt.Fprintf(w, "local_store: %s %dMB clean_on_recycle=%t\n", ls.Name, ls.SizeInMB, ls.CleanOnRoleRecycle)
		}
		fmt.Fprintf(w, "settings: %s\n", list(r.Settings))
		for _, task := range r.StartupTasks {
			fmt.Fprintf(w, "startup_task: %s\n", task)
		}
	}
	return nil
}

// WriteFeaturesHuman writes the feature registry as a table.
func WriteFeaturesHuman(w io.Writer, features []FeatureSummary) error {
	rows := make([][]string, 0, len(features))
	for _, f := range features {
		rows = append(rows, []string{f.ID, f.ConsumerKind, f.ProviderKind, f.ProviderImport})
	}
	return WriteTable(w, []string{"FEATURE", "CONSUMER", "PROVIDER", "PROVIDER_IMPORT"}, rows)
}

func instancesCell(instances map[string]int) string {
	seen := map[int]bool{}
	var counts []string
	for _, file := range sortedKeys(instances) {
		n := instances[file]
		if !seen[n] {
			seen[n] = true
			counts = append(counts, strconv.Itoa(n))
		}
	}
	return strings.Join(counts, "/")
}

func featuresCell(features []RoleFeature) string {
	parts := make([]string, 0, len(features))
	for _, f := range features {
		parts = append(parts, fmt.Sprintf("%s (%s)", f.Feature, f.As))
	}
	return strings.Join(parts, ", ")
}

func list(items []string) string {
	if len(items) == 0 {
		return Placeholder
	}
	return strings.Join(items, ", ")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
