package internal

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrymomot/autoforge/pkg/metrics"
	"github.com/dmitrymomot/autoforge/pkg/model"
	"github.com/dmitrymomot/autoforge/pkg/sanitizer"
)

// admin serves /{model}/{action}[/{id}] for every registered model.
type admin struct {
	registry *model.Registry
	store    model.Store
	metrics  *metrics.Metrics
	csrf     func(Context) string
	sanitize sanitizer.Func
	prefix   string
}

// actionFunc handles one eligible action.
type actionFunc func(h *admin, c Context, req *Request, m *model.Model) error

// actions is the fixed dispatch table. Every action but ActionUnknown has an entry.
var actions = [...]actionFunc{
	model.ActionBrowse:    (*admin).browse,
	model.ActionNew:       (*admin).newRecord,
	model.ActionCreate:    (*admin).create,
	model.ActionShow:      (*admin).show,
	model.ActionEdit:      (*admin).edit,
	model.ActionUpdate:    (*admin).update,
	model.ActionDelete:    (*admin).deletePage,
	model.ActionDestroy:   (*admin).destroy,
	model.ActionSearch:    (*admin).search,
	model.ActionMtmEdit:   (*admin).mtmEdit,
	model.ActionMtmUpdate: (*admin).mtmUpdate,
}

func (h *admin) Routes(r Router) {
	for _, path := range []string{"/{model}/{action}", "/{model}/{action}/{id}"} {
		r.GET(path, h.dispatch)
		r.POST(path, h.dispatch)
	}
}

// Eligible reports whether an action may run on m for the given method.
// Mutating actions need POST, and the normalized action must be supported.
// The standalone association editor also needs a standalone association.
func Eligible(a model.Action, method string, m *model.Model) bool {
	if a == model.ActionUnknown {
		return false
	}
	if !a.Idempotent() && method != http.MethodPost {
		return false
	}
	if !m.Supports(a.Normalize()) {
		return false
	}
	if a == model.ActionMtmEdit && len(m.StandaloneAssociations()) == 0 {
		return false
	}
	return true
}

func (h *admin) dispatch(c Context) error {
	start := time.Now()

	m, err := h.registry.Lookup(c.Param("model"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhandled, err)
	}
	c.Set(modelKey{}, m.Name())

	req, err := newRequest(c, m, h.csrf, h.sanitize)
	if err != nil {
		return err
	}
	c.Set(actionKey{}, req.Action)

	if !Eligible(req.Action, req.Method, m) {
		label := req.Action.String()
		if req.Action == model.ActionUnknown {
			label = "unknown"
		}
		h.metrics.ObserveAction(m.Name(), label, metrics.OutcomeUnhandled, start)
		return fmt.Errorf("%w: %s %s/%s", ErrUnhandled, req.Method, m.Name(), req.Keyword)
	}

	err = actions[req.Action](h, c, req, m)
	h.metrics.ObserveAction(m.Name(), req.Action.String(), outcome(req, err), start)
	if err != nil {
		return err
	}
	c.LogDebug("action handled", "id", req.ID)
	return nil
}

func outcome(req *Request, err error) string {
	switch {
	case errors.Is(err, ErrUnhandled):
		return metrics.OutcomeUnhandled
	case err != nil:
		return metrics.OutcomeError
	case req.invalid:
		return metrics.OutcomeInvalid
	default:
		return metrics.OutcomeOK
	}
}

// url builds an admin path below the model, e.g. url(m, "edit", "3").
func (h *admin) url(m *model.Model, parts ...string) string {
	u := h.prefix + "/" + m.Name()
	for _, p := range parts {
		u += "/" + p
	}
	return u
}
