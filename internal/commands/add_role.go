package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/NielsdaWheelz/cloudrole/internal/project"
)

// AddRoleOpts holds options for the add-role command.
type AddRoleOpts struct {
	Kind string
	Name string

	// Instances and VMSize fall back to the roles defaults in the config
	// when zero.
	Instances int
	VMSize    string
}

// AddRole implements `cloudrole add-role` under the project lock.
func AddRole(_ context.Context, env Env, projectPath string, opts AddRoleOpts, stdout io.Writer) error {
	spec := project.RoleSpec{
		Kind:      project.Kind(opts.Kind),
		Name:      opts.Name,
		Instances: opts.Instances,
		VMSize:    opts.VMSize,
	}
	if spec.Instances == 0 {
		spec.Instances = env.Config.Roles.DefaultInstances
	}
	if spec.VMSize == "" {
		spec.VMSize = env.Config.Roles.DefaultVMSize
	}

	unlock, err := env.lockProject(projectPath, "add-role")
	if err != nil {
		return err
	}
	defer env.release(unlock)

	role, err := project.AddRole(env.Store(), projectPath, spec)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "role: %s\n", role.Name)
	fmt.Fprintf(stdout, "kind: %s\n", spec.Kind)
	fmt.Fprintf(stdout, "instances: %d\n", spec.Instances)
	return nil
}
