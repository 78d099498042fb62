package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/NielsdaWheelz/cloudrole/internal/project"
)

// NewOpts holds options for the new command.
type NewOpts struct {
	ServiceName string
}

// New implements `cloudrole new`: creates <parentDir>/<service> with an
// empty definition and both settings documents.
func New(_ context.Context, env Env, parentDir string, opts NewOpts, stdout io.Writer) error {
	root, err := project.Create(env.Store(), parentDir, opts.ServiceName)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "project: %s\n", root)
	fmt.Fprintf(stdout, "service: %s\n", opts.ServiceName)
	return nil
}
