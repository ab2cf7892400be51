package app

import (
	"fmt"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Module is a pluggable feature that mounts its own routes. Modules
// may declare other modules they require; the registry resolves the
// load order so requirements always mount first.
type Module interface {
	// Name is the unique module identifier
	Name() string

	// Requires lists module names that must load before this one
	Requires() []string

	// Mount attaches the module's routes to the router
	Mount(r chi.Router, deps *Dependencies)
}

// ModuleRegistry tracks registered modules and resolves load order
type ModuleRegistry struct {
	modules map[string]Module
	names   []string // registration order, for stable resolution
	logger  *zap.Logger
}

// NewModuleRegistry creates an empty module registry
func NewModuleRegistry(logger *zap.Logger) *ModuleRegistry {
	return &ModuleRegistry{
		modules: make(map[string]Module),
		logger:  logger,
	}
}

// Register adds a module to the registry
func (reg *ModuleRegistry) Register(m Module) error {
	name := m.Name()
	if name == "" {
		return fmt.Errorf("module name cannot be empty")
	}
	if _, exists := reg.modules[name]; exists {
		return fmt.Errorf("module %q already registered", name)
	}

	reg.modules[name] = m
	reg.names = append(reg.names, name)
	reg.logger.Debug("module registered", zap.String("module", name))
	return nil
}

// Resolve returns the modules in dependency order, excluding disabled
// ones. A module that requires a disabled or unknown module is an
// error, as is a requirement cycle.
func (reg *ModuleRegistry) Resolve(disabled []string) ([]Module, error) {
	off := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		off[name] = true
	}

	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(reg.modules))

	var order []Module
	var visit func(name string, requiredBy string) error
	visit = func(name string, requiredBy string) error {
		if off[name] {
			if requiredBy == "" {
				return nil // skipping a disabled root is fine
			}
			return fmt.Errorf("module %q requires disabled module %q", requiredBy, name)
		}

		m, ok := reg.modules[name]
		if !ok {
			return fmt.Errorf("module %q requires unknown module %q", requiredBy, name)
		}

		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("module requirement cycle involving %q", name)
		}

		state[name] = visiting
		for _, req := range m.Requires() {
			if err := visit(req, name); err != nil {
				return err
			}
		}
		state[name] = done

		order = append(order, m)
		return nil
	}

	for _, name := range reg.names {
		if err := visit(name, ""); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// MountAll resolves and mounts every enabled module
func (reg *ModuleRegistry) MountAll(r chi.Router, deps *Dependencies, disabled []string) error {
	modules, err := reg.Resolve(disabled)
	if err != nil {
		return err
	}

	for _, m := range modules {
		m.Mount(r, deps)
		reg.logger.Info("module mounted", zap.String("module", m.Name()))
	}

	return nil
}
