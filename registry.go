package remock

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/remock/internal/config"
	"github.com/roach88/remock/internal/fixture"
	"github.com/roach88/remock/internal/journal"
	"github.com/roach88/remock/internal/naming"
)

// TB is the slice of testing.TB the harness needs: a hierarchical name
// for breadcrumbs, Cleanup for scoped release, and failure reporting.
// *testing.T satisfies it.
type TB interface {
	Name() string
	Helper()
	Cleanup(func())
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
}

// Registry owns every fixture store and mock state of a run. It is an
// explicit object rather than a hidden module-level global; Default gives
// the conventional process-wide instance for TestMain integration.
//
// The registry is the sole mutator of states and stores. All state access
// happens under its mutex, so overlapping calls to intercepted functions
// are safe under Go's real parallelism, not just cooperative scheduling.
type Registry struct {
	mu sync.Mutex

	cfg      config.Config
	logger   *slog.Logger
	mode     Mode
	roots    []string
	runToken string

	// stores caches one load per path per process.
	stores map[string]*storeEntry

	jnl       *journal.Journal
	jnlFailed bool

	flushed bool
}

// storeEntry couples a loaded store with the naming resolver and the
// states scoped to it.
type storeEntry struct {
	store    *fixture.Store
	resolver *naming.Resolver
	states   map[string]*state
	// updated is set once any state under this path runs in update mode;
	// only updated stores are rewritten at flush.
	updated bool
}

// NewRegistry creates a registry.
//
// Without options, configuration is discovered from .remock.yaml in the
// working directory, the default mode comes from the -remock.update flag,
// and writable roots from the working directory plus any
// -remock.allow-write flags.
func NewRegistry(opts ...RegistryOption) *Registry {
	var o registryOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.args == nil {
		o.args = os.Args[1:]
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	var cfg config.Config
	if o.cfg != nil {
		cfg = *o.cfg
	} else {
		discovered, err := config.Discover()
		if err != nil {
			logger.Warn("config load failed, using defaults", "error", err)
			discovered = config.Default()
		}
		cfg = discovered
	}

	mode := ModeReplay
	if cfg.UpdateByDefault || hasUpdateFlag(o.args) {
		mode = ModeUpdate
	}
	if o.mode != nil {
		mode = *o.mode
	}

	roots := append([]string{}, o.roots...)
	roots = append(roots, cfg.WritableRoots...)
	roots = append(roots, allowWriteFlags(o.args)...)
	if len(roots) == 0 {
		if wd, err := os.Getwd(); err == nil {
			roots = append(roots, wd)
		}
	}

	r := &Registry{
		cfg:      cfg,
		logger:   logger,
		mode:     mode,
		roots:    roots,
		runToken: uuid.Must(uuid.NewV7()).String(),
		stores:   make(map[string]*storeEntry),
	}

	if cfg.Journal != "" {
		jnl, err := journal.Open(cfg.Journal)
		if err != nil {
			logger.Warn("journal disabled", "path", cfg.Journal, "error", err)
			r.jnlFailed = true
		} else {
			r.jnl = jnl
		}
	}

	return r
}

// RunToken identifies this registry's run in journal rows and flush logs.
func (r *Registry) RunToken() string {
	return r.runToken
}

// Mode returns the registry's default mode.
func (r *Registry) Mode() Mode {
	return r.mode
}

// Intercept installs a substitute for fn and returns its handle. The
// fixture key is derived from tb's hierarchical name, property, and the
// occurrence index of fn's identity; the fixture file sits in the mocks
// directory beside the calling test file.
//
// Loading a missing fixture file in replay mode, or installing a second
// live interception for the same key, fails the test via tb.Fatalf.
func (r *Registry) Intercept(tb TB, property string, fn Func, opts ...Option) *Handle {
	tb.Helper()
	_, callerFile, _, ok := runtime.Caller(1)
	if !ok {
		tb.Fatalf("remock: cannot resolve caller location")
		return nil
	}
	return r.interceptChecked(tb, callerFile, property, fn, opts)
}

func (r *Registry) interceptChecked(tb TB, callerFile, property string, fn Func, opts []Option) *Handle {
	tb.Helper()
	h, err := r.intercept(tb, callerFile, property, fn, opts)
	if err != nil {
		tb.Fatalf("remock: %v", err)
		return nil
	}
	return h
}

func (r *Registry) intercept(tb TB, callerFile, property string, fn Func, opts []Option) (*Handle, error) {
	if fn == nil {
		return nil, fmt.Errorf("intercept %q: nil function", property)
	}
	o := newCallOptions(opts)

	mode := r.mode
	if o.mode != nil {
		mode = *o.mode
	}

	path := r.storePath(callerFile, o)

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, err := r.storeEntryLocked(path, mode)
	if err != nil {
		return nil, err
	}

	identity := reflect.ValueOf(fn).Pointer()
	key := entry.resolver.Resolve(naming.Chain(tb.Name()), property, identity, o.name)

	st, exists := entry.states[key]
	if exists && st.active {
		return nil, &MockError{Code: ErrCodeConflict, Key: key, Property: property}
	}
	if !exists {
		st = newState(key, path, property, mode, entry.store.Records[key])
		entry.states[key] = st
	}
	st.active = true
	if st.mode == ModeUpdate {
		entry.updated = true
	}

	h := &Handle{
		reg:      r,
		st:       st,
		opts:     o,
		original: fn,
	}

	tb.Cleanup(func() {
		if h.Restored() {
			return
		}
		if err := h.Restore(); err != nil {
			tb.Errorf("remock: %v", err)
		}
	})

	return h, nil
}

// storeEntryLocked returns the cached entry for path, loading the store on
// first access. The first access decides missing-file tolerance by its own
// mode; later accesses reuse the load regardless of mode.
func (r *Registry) storeEntryLocked(path string, mode Mode) (*storeEntry, error) {
	if entry, ok := r.stores[path]; ok {
		return entry, nil
	}
	store, err := fixture.Load(path, mode == ModeUpdate)
	if err != nil {
		return nil, err
	}
	entry := &storeEntry{
		store:    store,
		resolver: naming.NewResolver(),
		states:   make(map[string]*state),
	}
	r.stores[path] = entry
	return entry, nil
}

// storePath resolves the fixture file for a test file:
// <dir of test file>/<mocks dir>/<test file base><suffix>, unless an
// explicit path or directory override is present.
func (r *Registry) storePath(callerFile string, o callOptions) string {
	if o.path != "" {
		return o.path
	}
	dir := o.dir
	if dir == "" {
		dir = r.cfg.MocksDir
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(filepath.Dir(callerFile), dir)
	}
	base := strings.TrimSuffix(filepath.Base(callerFile), filepath.Ext(callerFile))
	return filepath.Join(dir, base+r.cfg.Suffix)
}

// checkWritable is the capability gate: every flush target must sit under
// one of the registry's writable roots.
func (r *Registry) checkWritable(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	for _, root := range r.roots {
		rootAbs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(rootAbs, abs)
		if err != nil {
			continue
		}
		if rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..") {
			return nil
		}
	}
	return &PermissionError{Path: abs}
}

// sortedStorePaths returns store paths in deterministic order for flushing.
func (r *Registry) sortedStorePaths() []string {
	paths := make([]string, 0, len(r.stores))
	for p := range r.stores {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// hasUpdateFlag scans the command line for the designated update switch.
// Recognized spellings: -remock.update, --remock.update, and the
// =true/=false forms the flag package produces.
func hasUpdateFlag(args []string) bool {
	on := false
	for _, arg := range args {
		trimmed := strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
		switch {
		case trimmed == "remock.update" || trimmed == "remock.update=true":
			on = true
		case trimmed == "remock.update=false":
			on = false
		}
	}
	return on
}

// allowWriteFlags collects -remock.allow-write=<dir> roots.
func allowWriteFlags(args []string) []string {
	var roots []string
	for _, arg := range args {
		trimmed := strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
		if dir, ok := strings.CutPrefix(trimmed, "remock.allow-write="); ok && dir != "" {
			roots = append(roots, dir)
		}
	}
	return roots
}
