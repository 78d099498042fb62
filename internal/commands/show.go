package commands

import (
	"context"
	"io"

	"github.com/NielsdaWheelz/cloudrole/internal/feature"
	"github.com/NielsdaWheelz/cloudrole/internal/model"
	"github.com/NielsdaWheelz/cloudrole/internal/render"
)

// ShowOpts holds options for the show command.
type ShowOpts struct {
	// JSON outputs machine-readable JSON.
	JSON bool
}

// Show prints the roles of a project with their endpoints, settings and
// enabled features. Read-only; takes no lock.
func Show(_ context.Context, env Env, projectPath string, opts ShowOpts, stdout io.Writer) error {
	p, err := env.Store().Load(projectPath)
	if err != nil {
		return err
	}
	detail := BuildProjectDetail(p, env.Config.Documents.Definition)
	if opts.JSON {
		return render.WriteShowJSON(stdout, detail)
	}
	return render.WriteShowHuman(stdout, detail)
}

// BuildProjectDetail flattens a loaded project for rendering. definitionFile
// heads the document list.
func BuildProjectDetail(p *model.Project, definitionFile string) *render.ProjectDetail {
	d := &render.ProjectDetail{
		Service:   p.Definition.Name,
		Root:      p.Root,
		Documents: []string{definitionFile},
		Roles:     []render.RoleDetail{},
	}
	for _, doc := range p.Settings {
		d.Documents = append(d.Documents, doc.File)
	}

	for _, r := range p.Definition.Roles() {
		rd := render.RoleDetail{
			Name:      r.Name,
			Kind:      string(r.Kind()),
			VMSize:    r.VMSize,
			Instances: map[string]int{},
			Settings:  r.SettingNames(),
		}
		for _, doc := range p.Settings {
			if rs := doc.Role(r.Name); rs != nil {
				rd.Instances[doc.File] = rs.InstanceCount()
			}
		}
		if r.Imports != nil {
			for _, imp := range r.Imports.Imports {
				rd.Imports = append(rd.Imports, imp.ModuleName)
			}
		}
		if r.Endpoints != nil {
			for _, ep := range r.Endpoints.Input {
				rd.Endpoints = append(rd.Endpoints, render.EndpointJSON{
					Name: ep.Name, Type: "input", Protocol: string(ep.Protocol), Port: ep.Port,
				})
			}
			for _, ep := range r.Endpoints.Internal {
				rd.Endpoints = append(rd.Endpoints, render.EndpointJSON{
					Name: ep.Name, Type: "internal", Protocol: string(ep.Protocol), Port: ep.Port,
				})
			}
		}
		if r.LocalResources != nil {
			for _, ls := range r.LocalResources.LocalStorage {
				rd.LocalStores = append(rd.LocalStores, render.LocalStoreJSON{
					Name: ls.Name, SizeInMB: ls.SizeInMB, CleanOnRoleRecycle: ls.CleanOnRoleRecycle,
				})
			}
		}
		if r.Startup != nil {
			for _, t := range r.Startup.Tasks {
				rd.StartupTasks = append(rd.StartupTasks, t.CommandLine)
			}
		}
		for _, f := range feature.All() {
			if f.EnabledOn(r) {
				rd.Features = append(rd.Features, render.RoleFeature{Feature: string(f.ID), As: "consumer"})
			}
			if f.Provides(r) {
				rd.Features = append(rd.Features, render.RoleFeature{Feature: string(f.ID), As: "provider"})
			}
		}
		d.Roles = append(d.Roles, rd)
	}
	return d
}
