package staging

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"TalkIdeas/internal/domain"
)

// DefaultSettleDelay gives the sync client time to finish writing.
const DefaultSettleDelay = 2 * time.Second

// State is the lifecycle position of one observed filename.
type State string

const (
	StateUnknown   State = "UNKNOWN"
	StateSyncing   State = "SYNCING"
	StateCandidate State = "CANDIDATE"
	StateStaged    State = "STAGED"
	StateDiscarded State = "DISCARDED"
	StateDuplicate State = "DUPLICATE"
	StateFailed    State = "FAILED"
)

// Op is the kind of filesystem change an event carries.
type Op int

const (
	OpCreate Op = iota + 1
	OpMove
	OpWrite
	OpRemove
	OpChmod
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpMove:
		return "move"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpChmod:
		return "chmod"
	default:
		return "unknown"
	}
}

// Event is one observation on the watched directory. For a move, Path is the destination.
type Event struct {
	Op    Op
	Path  string
	IsDir bool
}

// StagedFile is a work item waiting in the staging area.
type StagedFile struct {
	Path         string    `json:"path"`
	Filename     string    `json:"filename"`
	Size         int64     `json:"size"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// Outcome reports where an event left its filename.
type Outcome struct {
	Filename string
	State    State
	Staged   *StagedFile
	Err      error
}

// Config holds the staging area and matching rules.
type Config struct {
	StagingDir  string
	Rules       Rules
	SettleDelay time.Duration
}

// Machine turns watcher events into staged files, one event at a time.
type Machine struct {
	cfg    Config
	logger *slog.Logger

	run    sync.Mutex
	mu     sync.RWMutex
	states map[string]State

	wait func(ctx context.Context, d time.Duration) error
	now  func() time.Time
}

// NewMachine builds a machine; a nil logger discards diagnostics.
func NewMachine(cfg Config, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Rules.Prefix == "" && len(cfg.Rules.Extensions) == 0 {
		cfg.Rules = DefaultRules()
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	return &Machine{
		cfg:    cfg,
		logger: logger,
		states: map[string]State{},
		wait:   sleepContext,
		now:    time.Now,
	}
}

// State returns the last known state for a filename.
func (m *Machine) State(name string) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.states[name]; ok {
		return s
	}
	return StateUnknown
}

// Forget drops tracking for a filename once its work item is done.
func (m *Machine) Forget(name string) {
	m.mu.Lock()
	delete(m.states, name)
	m.mu.Unlock()
}

// Handle runs one event through the machine. Calls are serialized.
func (m *Machine) Handle(ctx context.Context, ev Event) Outcome {
	m.run.Lock()
	defer m.run.Unlock()

	name := filepath.Base(ev.Path)
	if ev.IsDir {
		m.logger.Debug("ignore directory", "path", ev.Path, "op", ev.Op.String())
		return Outcome{Filename: name, State: m.State(name)}
	}
	if ev.Op != OpCreate && ev.Op != OpMove {
		m.logger.Debug("ignore event", "file", name, "op", ev.Op.String())
		return Outcome{Filename: name, State: m.State(name)}
	}

	next := m.cfg.Rules.Classify(name)

	// Temp and non-matching names are reported but not tracked.
	switch next {
	case StateSyncing:
		m.Forget(name)
		m.logger.Debug("skip temp or hidden file", "file", name, "op", ev.Op.String())
		return Outcome{Filename: name, State: next}
	case StateDiscarded:
		m.Forget(name)
		m.logger.Debug("file does not match trigger", "file", name, "prefix", m.cfg.Rules.Prefix)
		return Outcome{Filename: name, State: next}
	}

	m.transition(name, next)
	m.logger.Info("audio file detected", "file", name, "op", ev.Op.String())
	return m.stage(ctx, ev.Path, name)
}

// Sweep feeds every entry of dir to the machine as a create event.
func (m *Machine) Sweep(ctx context.Context, dir string) ([]Outcome, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read watched dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	outcomes := make([]Outcome, 0, len(entries))
	present := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		present[entry.Name()] = struct{}{}
		outcomes = append(outcomes, m.Handle(ctx, Event{
			Op:    OpCreate,
			Path:  filepath.Join(dir, entry.Name()),
			IsDir: entry.IsDir(),
		}))
	}

	m.prune(present)
	return outcomes, nil
}

// prune drops tracking for names whose source is no longer in the watched directory.
func (m *Machine) prune(present map[string]struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name := range m.states {
		if _, ok := present[name]; !ok {
			delete(m.states, name)
		}
	}
}

func (m *Machine) stage(ctx context.Context, src, name string) Outcome {
	dst := filepath.Join(m.cfg.StagingDir, name)

	exists, err := pathExists(dst)
	if err != nil {
		return m.fail(name, fmt.Errorf("check staging area: %w", err))
	}
	if exists {
		return m.duplicate(name, dst)
	}

	if err := m.wait(ctx, m.cfg.SettleDelay); err != nil {
		m.logger.Warn("staging interrupted before copy", "file", name, "error", err)
		return Outcome{Filename: name, State: StateCandidate, Err: err}
	}

	size, err := copyPreservingMetadata(src, m.cfg.StagingDir, name)
	if errors.Is(err, domain.ErrDuplicateStaging) {
		return m.duplicate(name, dst)
	}
	if err != nil {
		return m.fail(name, fmt.Errorf("copy to staging: %w", err))
	}

	staged := &StagedFile{Path: dst, Filename: name, Size: size, DiscoveredAt: m.now()}
	m.transition(name, StateStaged)

	if err := os.Remove(src); err != nil {
		m.logger.Error("staged but could not remove source", "file", name, "source", src, "error", err)
		return Outcome{Filename: name, State: StateStaged, Staged: staged, Err: fmt.Errorf("remove source: %w", err)}
	}

	m.logger.Info("file staged",
		"file", name,
		"path", dst,
		"size_bytes", size,
		"size_mb", fmt.Sprintf("%.1f", float64(size)/(1024*1024)),
	)
	return Outcome{Filename: name, State: StateStaged, Staged: staged}
}

func (m *Machine) duplicate(name, dst string) Outcome {
	m.transition(name, StateDuplicate)
	m.logger.Warn("file already staged, leaving source untouched", "file", name, "staged", dst)
	return Outcome{Filename: name, State: StateDuplicate, Err: fmt.Errorf("%s: %w", name, domain.ErrDuplicateStaging)}
}

func (m *Machine) fail(name string, err error) Outcome {
	m.transition(name, StateFailed)
	m.logger.Error("staging failed, source preserved", "file", name, "error", err)
	return Outcome{Filename: name, State: StateFailed, Err: err}
}

func (m *Machine) transition(name string, to State) {
	m.mu.Lock()
	from, ok := m.states[name]
	if !ok {
		from = StateUnknown
	}
	m.states[name] = to
	m.mu.Unlock()

	if from != to {
		m.logger.Debug("state transition", "file", name, "from", string(from), "to", string(to))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func pathExists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
