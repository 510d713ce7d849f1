package postcapture

import (
	"image"

	"github.com/bryanchriswhite/ShotMark/internal/history"
	"github.com/bryanchriswhite/ShotMark/internal/logger"
)

// Env is what an action may touch besides the image
type Env struct {
	History *history.Model
	Store   history.Store
}

// record adds an entry to the history, if there is one
func (e Env) record(entry history.Entry) error {
	if e.History == nil {
		return nil
	}
	return e.History.Record(e.Store, entry)
}

// Action runs on the finished screenshot
type Action interface {
	// ID is the stable identifier used in configuration
	ID() string
	Name() string
	Description() string
	Handle(env Env, img *image.RGBA) error
}

// Registry maps identifiers to actions
type Registry struct {
	actions map[string]Action
	order   []string
}

// NewRegistry creates a registry holding the given actions
func NewRegistry(actions ...Action) *Registry {
	r := &Registry{actions: make(map[string]Action)}
	for _, a := range actions {
		r.Register(a)
	}
	return r
}

// DefaultRegistry holds every built-in action. Screenshots are saved under dir.
func DefaultRegistry(dir string) *Registry {
	return NewRegistry(
		NewSaveToDisk(dir),
		NewSaveToPDF(dir),
		NewCopyToClipboard(),
		NewCopyPath(),
		NewNotify(),
	)
}

// Register adds an action, replacing any action with the same ID
func (r *Registry) Register(a Action) {
	if _, exists := r.actions[a.ID()]; !exists {
		r.order = append(r.order, a.ID())
	}
	r.actions[a.ID()] = a
}

// Lookup finds an action by ID
func (r *Registry) Lookup(id string) (Action, bool) {
	a, ok := r.actions[id]
	return a, ok
}

// All returns the actions in registration order
func (r *Registry) All() []Action {
	out := make([]Action, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.actions[id])
	}
	return out
}

// Run invokes the actions named by ids, in that order, each at most once.
// Unknown ids and failing actions are logged and skipped. It returns how
// many actions ran successfully.
func (r *Registry) Run(ids []string, env Env, img *image.RGBA) int {
	log := logger.WithComponent("postcapture")

	done := make(map[string]bool, len(ids))
	succeeded := 0
	for _, id := range ids {
		if done[id] {
			log.Warn().Str("action", id).Msg("Action listed more than once, skipping repeat")
			continue
		}
		done[id] = true

		action, ok := r.Lookup(id)
		if !ok {
			log.Warn().Str("action", id).Msg("Unknown post-capture action, skipping")
			continue
		}

		if err := action.Handle(env, img); err != nil {
			log.Error().Err(err).Str("action", id).Msg("Post-capture action failed")
			continue
		}

		log.Debug().Str("action", id).Msg("Post-capture action done")
		succeeded++
	}
	return succeeded
}
