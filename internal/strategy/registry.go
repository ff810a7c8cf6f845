package strategy

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/marcelohmariano/blade/internal/play"
)

// Names of the built-in strategies.
const (
	NameMartingale = "martingale"
	NameDualBet    = "dual_bet"
)

// Config carries the parameters of every built-in strategy; a factory reads
// the section it needs.
type Config struct {
	Martingale MartingaleConfig
	DualBet    DualBetConfig
}

// Factory builds a strategy bound to the session wallet.
type Factory func(cfg Config, wallet *play.Wallet, logger *slog.Logger) (play.Strategy, error)

// Registry manages named strategy factories that can be looked up at
// runtime. It is safe for concurrent use.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// DefaultRegistry returns a registry holding the built-in strategies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NameMartingale, func(cfg Config, w *play.Wallet, l *slog.Logger) (play.Strategy, error) {
		return NewMartingale(cfg.Martingale, w, l)
	})
	r.Register(NameDualBet, func(cfg Config, w *play.Wallet, l *slog.Logger) (play.Strategy, error) {
		return NewDualBet(cfg.DualBet, w, l)
	})
	return r
}

// Register adds a factory under the given name. If a factory with the same
// name already exists it will be replaced.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Build constructs the strategy registered under name. It returns an error
// when the name is not registered.
func (r *Registry) Build(name string, cfg Config, wallet *play.Wallet, logger *slog.Logger) (play.Strategy, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("strategy %q: not registered", name)
	}
	return f(cfg, wallet, logger)
}

// List returns the names of all registered strategies in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
