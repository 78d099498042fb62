// Package enable runs the feature enablement protocol: it validates a
// consumer and a provider role against a feature descriptor, applies the
// feature to the consumer in memory, and persists the project.
//
// Steps run in a fixed order and short-circuit on the first error, so a
// missing role is always reported before a kind mismatch, and a kind
// mismatch before an already-enabled feature. Nothing reaches disk unless
// every check passes.
package enable

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/NielsdaWheelz/cloudrole/internal/errors"
	"github.com/NielsdaWheelz/cloudrole/internal/feature"
	"github.com/NielsdaWheelz/cloudrole/internal/fs"
	"github.com/NielsdaWheelz/cloudrole/internal/logging"
	"github.com/NielsdaWheelz/cloudrole/internal/model"
	"github.com/NielsdaWheelz/cloudrole/internal/roles"
	"github.com/NielsdaWheelz/cloudrole/internal/scaffold"
	"github.com/NielsdaWheelz/cloudrole/internal/store"
)

// Step name constants.
const (
	StepLoad              = "Load"
	StepLocateConsumer    = "LocateConsumer"
	StepLocateProvider    = "LocateProvider"
	StepCheckConsumerKind = "CheckConsumerKind"
	StepCheckProvider     = "CheckProvider"
	StepCheckNotEnabled   = "CheckNotEnabled"
	StepApply             = "Apply"
	StepPersist           = "Persist"
)

// Documents loads and saves project documents. *store.Store implements it.
type Documents interface {
	Load(root string) (*model.Project, error)
	Save(p *model.Project) error
}

// Request names the roles and feature to enable.
type Request struct {
	ProjectPath string
	Consumer    string
	Provider    string
	Feature     feature.ID
}

// state accumulates results as steps execute.
type state struct {
	req        Request
	opID       string
	descriptor feature.Descriptor
	project    *model.Project
	consumer   *model.Role
	provider   *model.Role
}

type step struct {
	name string
	fn   func(ctx context.Context, st *state) error
}

// Engine enables features on roles.
type Engine struct {
	Docs   Documents
	FS     fs.FS // scaffold reads
	Logger *slog.Logger
}

// NewEngine creates an engine backed by a document store.
func NewEngine(st *store.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{Docs: st, FS: st.FS, Logger: logger}
}

// Enable runs every step:
//  1. Load
//  2. LocateConsumer
//  3. LocateProvider
//  4. CheckConsumerKind
//  5. CheckProvider
//  6. CheckNotEnabled
//  7. Apply
//  8. Persist
//
// Coded errors are returned unchanged. Any other error is wrapped as
// E_INTERNAL with the step name in details. req.Feature must be a
// registered feature; see feature.Parse.
func (e *Engine) Enable(ctx context.Context, req Request) error {
	return e.run(ctx, req, e.steps())
}

// Check runs the validation steps (1 to 6) only and never writes.
func (e *Engine) Check(ctx context.Context, req Request) error {
	return e.run(ctx, req, e.steps()[:validationSteps])
}

// validationSteps is the number of leading steps that only read.
const validationSteps = 6

func (e *Engine) steps() []step {
	return []step{
		{StepLoad, e.load},
		{StepLocateConsumer, e.locateConsumer},
		{StepLocateProvider, e.locateProvider},
		{StepCheckConsumerKind, e.checkConsumerKind},
		{StepCheckProvider, e.checkProvider},
		{StepCheckNotEnabled, e.checkNotEnabled},
		{StepApply, e.apply},
		{StepPersist, e.persist},
	}
}

func (e *Engine) run(ctx context.Context, req Request, steps []step) error {
	st := &state{
		req:        req,
		opID:       uuid.NewString(),
		descriptor: feature.Lookup(req.Feature),
	}
	log := e.Logger.With("op", st.opID, "feature", string(req.Feature), "consumer", req.Consumer, "provider", req.Provider)

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return wrapStepError(err, s.name)
		}
		log.Debug("step", "step", s.name)
		if err := s.fn(ctx, st); err != nil {
			err = wrapStepError(err, s.name)
			log.Debug("step failed", "step", s.name, "code", string(errors.GetCode(err)), "error", errors.Message(err))
			return err
		}
	}

	if len(steps) > 0 && steps[len(steps)-1].name == StepPersist {
		log.Info("feature enabled")
	}
	return nil
}

func (e *Engine) load(_ context.Context, st *state) error {
	p, err := e.Docs.Load(st.req.ProjectPath)
	if err != nil {
		return err
	}
	st.project = p
	return nil
}

func (e *Engine) locateConsumer(_ context.Context, st *state) error {
	r, err := roles.Find(st.project.Definition, st.req.Consumer)
	if err != nil {
		return err
	}
	st.consumer = r
	return nil
}

func (e *Engine) locateProvider(_ context.Context, st *state) error {
	r, err := roles.Find(st.project.Definition, st.req.Provider)
	if err != nil {
		return err
	}
	st.provider = r
	return nil
}

func (e *Engine) checkConsumerKind(_ context.Context, st *state) error {
	if err := roles.ExpectKind(st.consumer, st.descriptor.ConsumerKind); err != nil {
		return errors.WrapWithDetails(errors.EUnsupportedRoleKind,
			fmt.Sprintf("Cannot enable %s on %s role %s.", st.descriptor.ID, st.consumer.Kind(), st.consumer.Name),
			err, map[string]string{"role": st.consumer.Name})
	}
	return nil
}

func (e *Engine) checkProvider(_ context.Context, st *state) error {
	err := roles.ExpectKind(st.provider, st.descriptor.ProviderKind)
	if err == nil && !st.provider.HasImport(st.descriptor.ProviderImport) {
		err = fmt.Errorf("role %s does not import %s", st.provider.Name, st.descriptor.ProviderImport)
	}
	if err != nil {
		return errors.WrapWithDetails(errors.ENotAFeatureProvider,
			fmt.Sprintf("%s is not a %s-capable role.", st.provider.Name, st.descriptor.ID),
			err, map[string]string{"role": st.provider.Name})
	}
	return nil
}

func (e *Engine) checkNotEnabled(_ context.Context, st *state) error {
	if st.descriptor.EnabledOn(st.consumer) {
		return errors.NewWithDetails(errors.EAlreadyEnabled,
			fmt.Sprintf("%s has already been enabled for %s.", st.descriptor.ID, st.consumer.Name),
			map[string]string{"role": st.consumer.Name})
	}
	return nil
}

// apply mutates the loaded project only. Scaffold writes are staged on the
// project and committed by persist.
func (e *Engine) apply(_ context.Context, st *state) error {
	consumer := st.consumer
	settings := st.project.RoleSettings(consumer.Name)
	dir := st.project.RoleDir(consumer.Name)

	for _, d := range st.descriptor.Directives {
		switch d := d.(type) {
		case feature.AddInternalEndpoint:
			consumer.AddInternalEndpoint(d.Endpoint)
		case feature.AddLocalStore:
			consumer.AddLocalStore(d.Store)
		case feature.AddDefinitionSetting:
			consumer.AddSetting(d.Name)
		case feature.AddSettingValue:
			for _, rs := range settings {
				if rs != nil {
					rs.SetSetting(d.Name, d.Value)
				}
			}
		case feature.AddStartupTask:
			consumer.AddStartupTask(d.Task.Clone())
		case feature.CopyScaffold:
			if _, err := scaffold.Copy(e.FS, st.project, d.Template, dir); err != nil {
				return errors.Wrap(errors.EIOFailure, "failed to read scaffold for "+consumer.Name, err)
			}
		case feature.InjectConfigSections:
			frag, err := scaffold.RenderFragment(d.Fragment, scaffold.FragmentData{
				Consumer: consumer.Name,
				Provider: st.provider.Name,
			})
			if err != nil {
				return err
			}
			path := filepath.Join(dir, d.File)
			if _, err := scaffold.InjectFile(e.FS, st.project, path, d.Sections, frag); err != nil {
				return errors.WrapWithDetails(errors.EIOFailure,
					"failed to update "+filepath.Join(consumer.Name, d.File), err, map[string]string{"path": path})
			}
		default:
			return fmt.Errorf("unhandled directive %T", d)
		}
	}

	// Definition-side settings always have a value in every settings document.
	for _, name := range consumer.SettingNames() {
		for _, rs := range settings {
			if rs != nil {
				rs.AddSetting(name, "")
			}
		}
	}
	return st.project.Check()
}

func (e *Engine) persist(_ context.Context, st *state) error {
	return e.Docs.Save(st.project)
}

// wrapStepError ensures the error is a *CodedError.
// If already coded, returns it unchanged.
// Otherwise wraps it with E_INTERNAL and step name in details.
func wrapStepError(err error, stepName string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsCodedError(err); ok {
		return err
	}
	return errors.WrapWithDetails(
		errors.EInternal,
		"internal error",
		err,
		map[string]string{"step": stepName},
	)
}
