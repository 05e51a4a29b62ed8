package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/getsentry/sentry-go"

	gwerrors "github.com/agentgate/agentgate/internal/errors"
)

// Dispatcher routes a dotted "module.method" tool name to the registered
// provider. A bare method name defaults to the content module.
type Dispatcher struct {
	defaultModule string
	modules       map[string]Provider
	order         []string
	logger        *slog.Logger
}

// DispatcherOption configures the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the logger for the dispatcher.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a Dispatcher whose bare tool names resolve against
// defaultModule.
func NewDispatcher(defaultModule string, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		defaultModule: defaultModule,
		modules:       make(map[string]Provider),
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// RegisterModule adds a provider under its module name. Registering the same
// name again replaces the previous provider.
func (d *Dispatcher) RegisterModule(p Provider) {
	name := p.ModuleName()
	if _, exists := d.modules[name]; !exists {
		d.order = append(d.order, name)
	}
	d.modules[name] = p
}

// ListTools returns every tool of every registered module, in module
// registration order.
func (d *Dispatcher) ListTools() []Tool {
	var list []Tool
	for _, name := range d.order {
		list = append(list, d.modules[name].Tools()...)
	}
	return list
}

// Dispatch resolves the tool name and executes it.
func (d *Dispatcher) Dispatch(ctx context.Context, toolName string, params map[string]any) (*Result, error) {
	moduleName, method := d.parseToolName(toolName)

	module, ok := d.modules[moduleName]
	if !ok {
		return nil, gwerrors.New(gwerrors.CodeModuleNotFound, fmt.Sprintf("module %s not found", moduleName))
	}

	result, err := module.Execute(ctx, method, params)
	if err != nil {
		if gwerrors.IsCode(err, gwerrors.CodeToolExecutionError) {
			d.logger.Error("tool execution failed", "tool", toolName, "error", err)
			sentry.CaptureException(err)
		}
		return nil, err
	}

	d.logger.Debug("tool executed", "tool", toolName)
	return result, nil
}

func (d *Dispatcher) parseToolName(toolName string) (module, method string) {
	parts := strings.SplitN(toolName, ".", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return d.defaultModule, toolName
}
