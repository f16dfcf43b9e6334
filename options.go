package remock

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/remock/internal/config"
)

// Mode selects how an interception point answers calls. Fixed at handle
// creation; there are no runtime transitions between modes.
type Mode int

const (
	// ModeReplay answers calls only from previously recorded fixtures.
	ModeReplay Mode = iota
	// ModeUpdate calls the real function and records fresh fixtures.
	ModeUpdate
)

func (m Mode) String() string {
	if m == ModeUpdate {
		return "update"
	}
	return "replay"
}

// Func is the shape of an interceptable asynchronous dependency. Blocking
// work honors ctx; results and arguments must be canonically serializable
// (or made so by the configured converters).
type Func func(ctx context.Context, args ...any) (any, error)

// InputConverter maps the true call arguments to the representation that
// is serialized for matching and storage. The default keeps the argument
// slice as-is. Converters may read but must not consume one-shot values
// (readers, streams) the real callee still needs; clone first if in doubt.
type InputConverter func(ctx context.Context, args []any) ([]any, error)

// OutputConverter maps the true result to its stored representation.
type OutputConverter func(ctx context.Context, out any) (any, error)

// OutputReverter maps a stored (or fresh) result back to what the caller
// should observe. Convert and revert must round-trip whatever the caller
// expects to see.
type OutputReverter func(ctx context.Context, stored any) (any, error)

type callOptions struct {
	name          string
	path          string
	dir           string
	mode          *Mode
	inputConvert  InputConverter
	outputConvert OutputConverter
	outputRevert  OutputReverter
}

// Option adjusts one interception point.
type Option func(*callOptions)

// WithName sets the fixture key verbatim, bypassing breadcrumb naming.
// The escape hatch for auto-name collisions.
func WithName(name string) Option {
	return func(o *callOptions) { o.name = name }
}

// WithPath sets the fixture file path explicitly.
func WithPath(path string) Option {
	return func(o *callOptions) { o.path = path }
}

// WithDir overrides the fixture subdirectory (default "__mocks__"),
// resolved relative to the invoking test file unless absolute.
func WithDir(dir string) Option {
	return func(o *callOptions) { o.dir = dir }
}

// WithMode overrides the registry's default mode for this point.
func WithMode(m Mode) Option {
	return func(o *callOptions) { o.mode = &m }
}

// WithInputConvert installs an input converter.
func WithInputConvert(fn InputConverter) Option {
	return func(o *callOptions) { o.inputConvert = fn }
}

// WithOutputConvert installs an output converter.
func WithOutputConvert(fn OutputConverter) Option {
	return func(o *callOptions) { o.outputConvert = fn }
}

// WithOutputRevert installs an output reverter.
func WithOutputRevert(fn OutputReverter) Option {
	return func(o *callOptions) { o.outputRevert = fn }
}

func newCallOptions(opts []Option) callOptions {
	o := callOptions{
		inputConvert: func(_ context.Context, args []any) ([]any, error) {
			return args, nil
		},
		outputConvert: func(_ context.Context, out any) (any, error) {
			return out, nil
		},
		outputRevert: func(_ context.Context, stored any) (any, error) {
			return stored, nil
		},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type registryOptions struct {
	cfg    *config.Config
	logger *slog.Logger
	mode   *Mode
	roots  []string
	args   []string
}

// RegistryOption adjusts registry construction.
type RegistryOption func(*registryOptions)

// WithConfig supplies a pre-loaded configuration instead of discovering
// .remock.yaml from the working directory.
func WithConfig(cfg config.Config) RegistryOption {
	return func(o *registryOptions) { o.cfg = &cfg }
}

// WithLogger sets the registry logger. The default logs to stderr;
// tests usually pass a discard logger.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(o *registryOptions) { o.logger = logger }
}

// WithDefaultMode pins the registry default mode, ignoring command-line
// flags and config.
func WithDefaultMode(m Mode) RegistryOption {
	return func(o *registryOptions) { o.mode = &m }
}

// WithWritableRoot adds a directory the flush may write under.
func WithWritableRoot(dir string) RegistryOption {
	return func(o *registryOptions) { o.roots = append(o.roots, dir) }
}

// withArgs substitutes the command line examined for remock flags.
// Used by tests; production registries read os.Args.
func withArgs(args []string) RegistryOption {
	return func(o *registryOptions) { o.args = args }
}

// DiscardLogger returns a logger that drops everything. Convenient for
// quiet registries in tests.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
