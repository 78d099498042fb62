// Package project creates cloud service projects and adds roles to them.
package project

import (
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/NielsdaWheelz/cloudrole/internal/errors"
	"github.com/NielsdaWheelz/cloudrole/internal/fs"
	"github.com/NielsdaWheelz/cloudrole/internal/model"
	"github.com/NielsdaWheelz/cloudrole/internal/scaffold"
	"github.com/NielsdaWheelz/cloudrole/internal/store"
)

// ConfigFileName is the project-local tool config written by Create.
const ConfigFileName = "cloudrole.yaml"

var (
	roleNamePattern    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)
	serviceNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]*$`)
	validate           = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("rolename", matches(roleNamePattern))
	_ = v.RegisterValidation("servicename", matches(serviceNamePattern))
	return v
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

type createArgs struct {
	ServiceName string `validate:"required,max=63,servicename"`
}

// Create makes <parentDir>/<serviceName> holding an empty definition, one
// empty settings document per layout entry, a project config stub and a
// .gitignore for the tool's state directory. Returns the project root.
//
// Errors:
//   - E_USAGE: invalid service name
//   - E_PROJECT_EXISTS: the target directory already exists
//   - E_IO_FAILURE: files could not be written
func Create(st *store.Store, parentDir, serviceName string) (string, error) {
	if err := validate.Struct(createArgs{ServiceName: serviceName}); err != nil {
		return "", errors.NewWithDetails(errors.EUsage,
			"invalid service name: "+serviceName, map[string]string{"name": serviceName})
	}

	root := filepath.Join(parentDir, serviceName)
	if _, err := st.FS.Stat(root); err == nil {
		return "", errors.NewWithDetails(errors.EProjectExists,
			"project directory already exists: "+root, map[string]string{"path": root})
	} else if !os.IsNotExist(err) {
		return "", errors.Wrap(errors.EIOFailure, "failed to stat "+root, err)
	}

	p := &model.Project{Root: root, Definition: model.NewServiceDefinition(serviceName)}
	for _, name := range st.Layout.Settings {
		p.Settings = append(p.Settings, model.NewServiceSettings(serviceName, name))
	}
	p.Stage(fs.File{
		Path: filepath.Join(root, ConfigFileName),
		Data: []byte(scaffold.ProjectConfigTemplate),
		Perm: 0644,
	})

	if err := st.Save(p); err != nil {
		return "", err
	}
	if _, err := scaffold.EnsureIgnored(st.FS, filepath.Join(root, ".gitignore"), scaffold.StateDirEntry); err != nil {
		return "", errors.Wrap(errors.EIOFailure, "failed to write .gitignore", err)
	}

	st.Logger.Info("created project", "root", root, "service", serviceName)
	return root, nil
}
