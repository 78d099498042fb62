// Command cloudrole manages the roles and role features of a cloud service
// project.
package main

import (
	"os"

	"github.com/NielsdaWheelz/cloudrole/internal/cli"
	"github.com/NielsdaWheelz/cloudrole/internal/errors"
)

func main() {
	err := cli.Run(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}
