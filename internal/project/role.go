package project

import (
	stderrors "errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/NielsdaWheelz/cloudrole/internal/errors"
	"github.com/NielsdaWheelz/cloudrole/internal/feature"
	"github.com/NielsdaWheelz/cloudrole/internal/model"
	"github.com/NielsdaWheelz/cloudrole/internal/roles"
	"github.com/NielsdaWheelz/cloudrole/internal/scaffold"
	"github.com/NielsdaWheelz/cloudrole/internal/store"
)

// Kind is the kind of role AddRole creates.
type Kind string

const (
	KindWeb         Kind = "web"
	KindWorker      Kind = "worker"
	KindCacheWorker Kind = "cache-worker"
)

// Kinds lists every role kind in display order.
var Kinds = []Kind{KindWeb, KindWorker, KindCacheWorker}

// RoleSpec describes a role to add.
type RoleSpec struct {
	Kind      Kind   `validate:"required,oneof=web worker cache-worker"`
	Name      string `validate:"required,max=63,rolename"`
	Instances int    `validate:"min=1,max=1000"`
	VMSize    string `validate:"omitempty,oneof=ExtraSmall Small Medium Large ExtraLarge"`
}

// Settings supplied by the caching plugin module on cache worker roles.
const (
	cacheNamedCaches     = "Microsoft.WindowsAzure.Plugins.Caching.NamedCaches"
	cacheDiagnosticLevel = "Microsoft.WindowsAzure.Plugins.Caching.DiagnosticLevel"
	cacheSizePercentage  = "Microsoft.WindowsAzure.Plugins.Caching.CacheSizePercentage"
	cacheConfigStore     = "Microsoft.WindowsAzure.Plugins.Caching.ConfigStoreConnectionString"
	cacheFileStore       = "Microsoft.WindowsAzure.Plugins.Caching.FileStore"
)

const (
	defaultNamedCaches     = `{"caches":[{"name":"default","policy":{"eviction":{"type":0},"expiration":{"defaultTTL":10,"isExpirable":true,"type":1},"serverNotification":{"isEnabled":false}},"secondaries":0}]}`
	developmentStorage     = "UseDevelopmentStorage=true"
	cacheFileStoreSizeInMB = 1000
	emulatedXPath          = "/RoleEnvironment/Deployment/@emulated"
	webStartupCommand      = "setup_web.cmd"
	workerStartupCommand   = "setup_worker.cmd"
	firstWebPort           = 80
	nextWebPort            = 8080
)

// AddRole adds a role and its settings to the project at projectPath and
// stages the role's scaffold folder. Existing scaffold files are kept.
//
// Errors:
//   - E_INVALID_ROLE: the RoleSpec fails validation
//   - E_ROLE_EXISTS: a role with the same name exists, of either kind
//   - document errors from store.Load, E_IO_FAILURE from store.Save
func AddRole(st *store.Store, projectPath string, spec RoleSpec) (*model.Role, error) {
	if err := validate.Struct(spec); err != nil {
		return nil, invalidRole(spec, err)
	}

	p, err := st.Load(projectPath)
	if err != nil {
		return nil, err
	}
	if _, err := roles.Find(p.Definition, spec.Name); err == nil {
		return nil, errors.NewWithDetails(errors.ERoleExists,
			fmt.Sprintf("Role with name %s already exists.", spec.Name),
			map[string]string{"role": spec.Name})
	}

	role := &model.Role{Name: spec.Name, VMSize: spec.VMSize}
	var template string
	var values [][2]string

	switch spec.Kind {
	case KindWeb:
		role.AddInputEndpoint(model.InputEndpoint{
			Name:     "Endpoint1",
			Protocol: model.ProtocolHTTP,
			Port:     strconv.Itoa(nextInputPort(p.Definition)),
		})
		role.AddStartupTask(startupTask(webStartupCommand))
		template = scaffold.TemplateWebRole
		p.Definition.AddRole(model.RoleKindWeb, role)

	case KindWorker, KindCacheWorker:
		role.AddStartupTask(startupTask(workerStartupCommand))
		template = scaffold.TemplateWorkerRole
		if spec.Kind == KindCacheWorker {
			role.AddImport(feature.CachingModule)
			role.AddLocalStore(model.LocalStore{Name: cacheFileStore, SizeInMB: cacheFileStoreSizeInMB})
			values = [][2]string{
				{cacheNamedCaches, defaultNamedCaches},
				{cacheDiagnosticLevel, "1"},
				{cacheSizePercentage, ""},
				{cacheConfigStore, developmentStorage},
			}
		}
		p.Definition.AddRole(model.RoleKindWorker, role)
	}

	for _, doc := range p.Settings {
		rs := model.NewRoleSettings(spec.Name, spec.Instances)
		for _, kv := range values {
			rs.AddSetting(kv[0], kv[1])
		}
		doc.AddRole(rs)
	}

	if _, err := scaffold.Copy(st.FS, p, template, p.RoleDir(spec.Name)); err != nil {
		return nil, errors.Wrap(errors.EIOFailure, "failed to scaffold role "+spec.Name, err)
	}
	if err := st.Save(p); err != nil {
		return nil, err
	}

	st.Logger.Info("added role", "role", spec.Name, "kind", string(spec.Kind), "instances", spec.Instances)
	return role, nil
}

func startupTask(command string) model.Task {
	return model.Task{
		CommandLine:      command,
		ExecutionContext: "elevated",
		TaskType:         "simple",
		Environment: &model.Environment{Variables: []model.Variable{
			{Name: "EMULATED", RoleInstanceValue: &model.RoleInstanceValue{XPath: emulatedXPath}},
		}},
	}
}

// nextInputPort returns 80 for the first web role, then the lowest free
// port from 8080 up.
func nextInputPort(def *model.ServiceDefinition) int {
	used := make(map[string]bool)
	for _, r := range def.Roles() {
		if r.Endpoints == nil {
			continue
		}
		for _, ep := range r.Endpoints.Input {
			used[ep.Port] = true
		}
	}
	if !used[strconv.Itoa(firstWebPort)] {
		return firstWebPort
	}
	port := nextWebPort
	for used[strconv.Itoa(port)] {
		port++
	}
	return port
}

func invalidRole(spec RoleSpec, err error) error {
	msg := "invalid role: " + err.Error()
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg = fmt.Sprintf("invalid role %s: %v", fe.Field(), fe.Value())
	}
	return errors.NewWithDetails(errors.EInvalidRole, msg, map[string]string{"role": spec.Name})
}
