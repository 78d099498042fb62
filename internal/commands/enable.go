package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/NielsdaWheelz/cloudrole/internal/enable"
	"github.com/NielsdaWheelz/cloudrole/internal/errors"
	"github.com/NielsdaWheelz/cloudrole/internal/feature"
)

// EnableOpts holds options for the enable command.
type EnableOpts struct {
	Feature  string
	Role     string
	Provider string

	// DryRun runs the validation steps only and writes nothing.
	DryRun bool
}

// Enable implements `cloudrole enable`. Mutating runs hold the project lock.
func Enable(ctx context.Context, env Env, projectPath string, opts EnableOpts, stdout io.Writer) error {
	id, ok := feature.Parse(opts.Feature)
	if !ok {
		return errors.NewWithDetails(errors.EUnknownFeature,
			fmt.Sprintf("unknown feature %q (available: %s)", opts.Feature, strings.Join(featureIDs(), ", ")),
			map[string]string{"feature": opts.Feature})
	}
	if opts.Role == "" || opts.Provider == "" {
		return errors.Newf(errors.EUsage, "enable %s: --role and --provider are required", id)
	}

	engine := enable.NewEngine(env.Store(), env.Logger)
	req := enable.Request{
		ProjectPath: projectPath,
		Consumer:    opts.Role,
		Provider:    opts.Provider,
		Feature:     id,
	}

	if opts.DryRun {
		if err := engine.Check(ctx, req); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "check: ok\nfeature: %s\nrole: %s\nprovider: %s\n", id, opts.Role, opts.Provider)
		return nil
	}

	unlock, err := env.lockProject(projectPath, "enable")
	if err != nil {
		return err
	}
	defer env.release(unlock)

	if err := engine.Enable(ctx, req); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "enabled: %s\nrole: %s\nprovider: %s\n", id, opts.Role, opts.Provider)
	return nil
}

func featureIDs() []string {
	var out []string
	for _, d := range feature.All() {
		out = append(out, string(d.ID))
	}
	return out
}
