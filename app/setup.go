// Package app contains the application services. SetupService is the
// tenant bootstrap orchestrator: it turns a blank tenant configuration
// into a provisioned, running tenant, and rolls the tenant back to its
// prior state when anything fails.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/artpar/shellhost/domain/tenant"
	"github.com/artpar/shellhost/ports"
)

// CoreFeatures is the mandatory feature set merged into every setup
// request. A tenant cannot function without the hosting layer,
// scripting, recipe execution, and feature management.
var CoreFeatures = []string{"hosting", "scripting", "recipes", "features"}

// fileBackedProviders are single-file engines that need a default file
// name and post-setup pool cleanup.
var fileBackedProviders = map[string]bool{
	"sqlite": true,
}

// SetupDeps carries the orchestrator's collaborators.
type SetupDeps struct {
	Shell      ports.ShellHost
	Validator  ports.ConnectionValidator
	Executor   ports.RecipeExecutor
	Harvesters []ports.RecipeHarvester
	Handlers   []ports.SetupEventHandler
	IDGen      ports.IDGenerator
	Clock      ports.Clock

	// Hasher, when set, replaces the staged admin password property
	// with its hash so the plaintext never reaches recipe steps.
	Hasher ports.Hasher

	// PoolClosers maps provider name to its pool cleanup, consulted
	// only for file-backed providers.
	PoolClosers map[string]ports.PoolCloser

	Logger zerolog.Logger
}

// SetupService orchestrates tenant bootstrap. One execution per Setup
// call; steps run strictly sequentially with no internal parallelism.
// Two concurrent Setup calls for the same tenant are not made safe
// here; callers must serialize per tenant.
type SetupService struct {
	deps SetupDeps

	recipes recipeCache
}

// NewSetupService creates the orchestrator. The setup recipe list is
// harvested synchronously here, during composition, mirroring the
// catalog's eager build.
func NewSetupService(deps SetupDeps) *SetupService {
	s := &SetupService{deps: deps}
	s.ensureRecipes(context.Background())
	return s
}

// Setup provisions the tenant described by sc. It returns the recipe
// execution id on success. A return of ("", nil) means recoverable
// errors were accumulated in sc.Errors and no running tenant was
// produced; the tenant configuration is left as it was before the
// attempt. A non-nil error is an unexpected fault: state has been
// rolled back and the fault is surfaced for upstream monitoring.
func (s *SetupService) Setup(ctx context.Context, sc *tenant.SetupContext) (string, error) {
	if sc.Settings == nil || sc.Settings.Name == "" {
		sc.AddError("name", "tenant name is required")
		return "", nil
	}

	logger := s.deps.Logger.With().Str("tenant", sc.Settings.Name).Logger()

	// Step 1: merge requested features with the mandatory core set.
	sc.EnabledFeatures = mergeFeatures(sc.EnabledFeatures, CoreFeatures)

	// Step 2: flag the unsafe window. The hosting layer answers
	// requests for a non-Running tenant with "unavailable".
	priorState := sc.Settings.State
	sc.Settings.State = tenant.Initializing

	// Step 3: generate the admin user id. Case-normalized; no
	// uniqueness check is needed because no users exist yet.
	adminID := strings.ToLower(s.deps.IDGen.New())

	// Step 4: stage environment properties for later recipe steps.
	if sc.Property(tenant.PropAdminUsername) == "" {
		sc.SetProperty(tenant.PropAdminUsername, "admin")
	}
	sc.SetProperty(tenant.PropAdminUserID, adminID)
	if sc.Property(tenant.PropSiteName) == "" {
		sc.SetProperty(tenant.PropSiteName, sc.Settings.Name)
	}
	if pw := sc.Property(tenant.PropAdminPassword); pw != "" && s.deps.Hasher != nil {
		hash, err := s.deps.Hasher.Hash(pw)
		if err != nil {
			sc.Settings.State = priorState
			return "", fmt.Errorf("hash admin password: %w", err)
		}
		sc.SetProperty(tenant.PropAdminPassword, string(hash))
	}

	// Step 5: resolve effective connection parameters. Explicit tenant
	// settings win over caller-supplied properties; a file-backed
	// provider with no file gets a default.
	s.resolveConnection(sc)

	// Step 6: validate the connection. This is the primary guard
	// against creating a tenant on an occupied or broken schema.
	status := s.deps.Validator.Validate(ctx, tenant.ConnectionInfo{
		Provider:         sc.Settings.DatabaseProvider,
		ConnectionString: sc.Settings.ConnectionString,
		TablePrefix:      sc.Settings.TablePrefix,
		Schema:           sc.Settings.Schema,
	})
	if status != tenant.ConnectionOk {
		sc.Settings.State = priorState
		sc.AddError("connection", connectionMessage(status))
		logger.Info().Str("status", status.String()).Msg("tenant setup rejected by connection validation")
		return "", nil
	}

	// Steps 7-11 run under the rollback guard: any fault restores the
	// entry state, reloads silently, and is rethrown.
	executionID, err := s.provision(ctx, sc, logger)
	if err != nil {
		sc.Settings.State = priorState
		s.silentReload(ctx, sc, logger)
		return "", err
	}

	if sc.HasErrors() {
		sc.Settings.State = priorState
		return "", nil
	}

	return executionID, nil
}

// provision runs the durable-write half of setup. Recoverable recipe
// failures land in sc.Errors; only unexpected faults return an error.
func (s *SetupService) provision(ctx context.Context, sc *tenant.SetupContext, logger zerolog.Logger) (executionID string, err error) {
	defer func() {
		if r := recover(); r != nil {
			// Let the caller roll back, then surface the fault.
			err = fmt.Errorf("unexpected fault during tenant setup: %v", r)
		}
	}()

	// Step 7: minimal isolated context scoped to the merged feature
	// set, used solely to persist the initial feature descriptor. It
	// must never interact with any running tenant container.
	minCtx, err := s.deps.Shell.CreateMinimumContext(ctx, sc.Settings, sc.EnabledFeatures)
	if err != nil {
		return "", fmt.Errorf("create minimum context: %w", err)
	}

	descriptor := tenant.FeatureDescriptor{
		SerialNumber: 1,
		Features:     sc.EnabledFeatures,
		Updated:      s.deps.Clock.Now(),
	}
	if err := minCtx.StoreDescriptor(ctx, descriptor); err != nil {
		minCtx.Release()
		return "", fmt.Errorf("store feature descriptor: %w", err)
	}

	// Step 8: execute the recipe. Structured step failures and any
	// other executor fault are recovered into the error list, never
	// rethrown.
	sc.ExecutionID = s.deps.IDGen.New()
	if sc.Recipe != nil {
		s.executeRecipe(ctx, sc, logger)
	}

	if err := minCtx.Release(); err != nil {
		logger.Warn().Err(err).Msg("minimum context release failed")
	}

	// Step 9: rebuild the shell context. No real running tenant exists
	// yet, so this reload never broadcasts.
	if err := s.deps.Shell.ReloadContext(ctx, sc.Settings, false); err != nil {
		return "", fmt.Errorf("reload context: %w", err)
	}

	if !sc.HasErrors() {
		for _, h := range s.deps.Handlers {
			if err := h.Setup(ctx, sc); err != nil {
				sc.AddError("", err.Error())
			}
		}
	}

	if sc.HasErrors() {
		for _, h := range s.deps.Handlers {
			h.Failed(ctx, sc)
		}
	}

	// Step 10: file-backed engines hold an OS lock on the database
	// file through the pool; close it so the file can be moved or
	// deleted later.
	if fileBackedProviders[sc.Settings.DatabaseProvider] {
		if closer, ok := s.deps.PoolClosers[sc.Settings.DatabaseProvider]; ok {
			if err := closer.CloseTenantPools(sc.Settings.Name); err != nil {
				logger.Warn().Err(err).Msg("closing tenant connection pools failed")
			}
		}
	}

	if sc.HasErrors() {
		return "", nil
	}

	// Step 11: flip availability and announce the new tenant.
	sc.Settings.State = tenant.Running
	if err := s.deps.Shell.UpdateSettings(ctx, sc.Settings); err != nil {
		return "", fmt.Errorf("persist tenant settings: %w", err)
	}
	if err := s.deps.Shell.ReloadContext(ctx, sc.Settings, true); err != nil {
		return "", fmt.Errorf("reload context: %w", err)
	}
	for _, h := range s.deps.Handlers {
		h.Succeeded(ctx)
	}

	logger.Info().Str("execution_id", sc.ExecutionID).Msg("tenant setup succeeded")
	return sc.ExecutionID, nil
}

func (s *SetupService) executeRecipe(ctx context.Context, sc *tenant.SetupContext, logger zerolog.Logger) {
	err := s.deps.Executor.Execute(ctx, sc.ExecutionID, *sc.Recipe, sc.Properties)
	if err == nil {
		return
	}

	var stepErr *tenant.RecipeStepError
	if errors.As(err, &stepErr) {
		logger.Info().Str("step", stepErr.StepName).Msg("recipe step failed")
		for _, msg := range stepErr.Messages {
			sc.AddError(stepErr.StepName, msg)
		}
		return
	}

	// Anything else is reduced to an opaque message; the raw fault is
	// logged for operators, not surfaced to the caller.
	logger.Error().Err(err).Msg("unexpected error during recipe execution")
	sc.AddError("", "an unexpected error occurred while executing the setup recipe")
}

func (s *SetupService) silentReload(ctx context.Context, sc *tenant.SetupContext, logger zerolog.Logger) {
	if err := s.deps.Shell.ReloadContext(ctx, sc.Settings, false); err != nil {
		logger.Warn().Err(err).Msg("silent reload after rollback failed")
	}
}

// resolveConnection fills the effective connection parameters into the
// tenant settings.
func (s *SetupService) resolveConnection(sc *tenant.SetupContext) {
	if sc.Settings.DatabaseProvider == "" {
		sc.Settings.DatabaseProvider = sc.Property("DatabaseProvider")
	}
	if sc.Settings.ConnectionString == "" {
		sc.Settings.ConnectionString = sc.Property("ConnectionString")
	}
	if sc.Settings.TablePrefix == "" {
		sc.Settings.TablePrefix = sc.Property("TablePrefix")
	}

	if fileBackedProviders[sc.Settings.DatabaseProvider] && sc.Settings.ConnectionString == "" {
		file := sc.Property(tenant.PropDatabaseFile)
		if file == "" {
			file = sc.Settings.Name + ".db"
		}
		sc.Settings.ConnectionString = file
	}
}

func connectionMessage(status tenant.ConnectionStatus) string {
	switch status {
	case tenant.ConnectionNoProvider:
		return "no database provider was selected"
	case tenant.ConnectionUnsupportedProvider:
		return "the selected database provider is not supported"
	case tenant.ConnectionInvalid:
		return "the database connection could not be validated"
	case tenant.ConnectionInvalidCertificate:
		return "the database server certificate could not be verified"
	case tenant.ConnectionDocumentTableFound:
		return "the database already contains tenant data for this table prefix"
	default:
		return "the database connection could not be validated"
	}
}

func mergeFeatures(requested, core []string) []string {
	seen := make(map[string]bool, len(requested)+len(core))
	merged := make([]string, 0, len(requested)+len(core))
	for _, id := range core {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	for _, id := range requested {
		if id != "" && !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	return merged
}
