package editor

import (
	"context"
	"fmt"
	"sync"

	"mapping-editor/internal/dom"
)

type EventType string

const (
	EventClick      EventType = "click"
	EventMouseEnter EventType = "mouseenter"
	EventMouseLeave EventType = "mouseleave"
	EventInput      EventType = "input"
)

// Event is one interaction on the editor container. Key names the field the
// event originated from; the other members are only set by the actions that
// need them.
type Event struct {
	Type     EventType    `json:"type"`
	Action   string       `json:"action"`
	Key      string       `json:"key,omitempty"`
	Field    string       `json:"field,omitempty"`
	Value    string       `json:"value,omitempty"`
	Category string       `json:"category,omitempty"`
	Geometry *RowGeometry `json:"geometry,omitempty"`
	Add      *AddRequest  `json:"add,omitempty"`
}

// Handler reacts to a delegated event and returns the payload to hand back to
// the caller.
type Handler func(ctx context.Context, ev Event) (any, error)

type route struct {
	typ    EventType
	action string
}

// Delegator routes events arriving on a stable container to handlers keyed by
// event type and action. Registering the same route again replaces the
// previous handler.
type Delegator struct {
	mu       sync.RWMutex
	handlers map[route]Handler
}

func NewDelegator() *Delegator {
	return &Delegator{handlers: make(map[route]Handler)}
}

// On registers h for (typ, action), replacing any earlier registration.
func (d *Delegator) On(typ EventType, action string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[route{typ, action}] = h
}

// Off removes the handler for (typ, action).
func (d *Delegator) Off(typ EventType, action string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.handlers, route{typ, action})
}

// Len returns the number of registered routes.
func (d *Delegator) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers)
}

// Dispatch runs the handler registered for the event.
func (d *Delegator) Dispatch(ctx context.Context, ev Event) (any, error) {
	d.mu.RLock()
	h, ok := d.handlers[route{ev.Type, ev.Action}]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoHandler, ev.Type, ev.Action)
	}
	return h(ctx, ev)
}

// bindEvents registers every editor interaction once, at construction.
func (e *Editor) bindEvents() {
	d := e.events

	d.On(EventClick, "modify", func(_ context.Context, ev Event) (any, error) {
		return nil, e.Modify(ev.Key)
	})
	d.On(EventClick, "accept", func(_ context.Context, _ Event) (any, error) {
		return e.Accept()
	})
	d.On(EventClick, "revert", func(_ context.Context, _ Event) (any, error) {
		return e.Revert()
	})
	d.On(EventClick, "duplicate", func(_ context.Context, ev Event) (any, error) {
		return e.DuplicateField(ev.Key)
	})
	d.On(EventClick, "delete", func(_ context.Context, ev Event) (any, error) {
		deleted, err := e.DeleteField(ev.Key)
		if err != nil {
			return nil, err
		}
		return map[string]bool{"deleted": deleted}, nil
	})
	d.On(EventClick, "generate", func(ctx context.Context, ev Event) (any, error) {
		return e.Generate(ctx, ev.Key)
	})
	d.On(EventClick, "download", func(_ context.Context, ev Event) (any, error) {
		u, err := e.DownloadURL(ev.Key)
		if err != nil {
			return nil, err
		}
		return map[string]string{"url": u}, nil
	})
	d.On(EventClick, "menu", func(ctx context.Context, ev Event) (any, error) {
		html, err := e.OpenAddMenu(ctx, ev.Category)
		if err != nil {
			return nil, err
		}
		return map[string]string{"html": html}, nil
	})
	d.On(EventClick, "add", func(ctx context.Context, ev Event) (any, error) {
		if ev.Add == nil {
			return nil, fmt.Errorf("%w: add event without field request", ErrUnknownCategory)
		}
		return e.AddField(ctx, *ev.Add)
	})
	d.On(EventClick, "save-mapping-file", func(ctx context.Context, _ Event) (any, error) {
		return e.Save(ctx, false)
	})
	d.On(EventClick, "save-mapping-new-file", func(ctx context.Context, _ Event) (any, error) {
		return e.Save(ctx, true)
	})
	d.On(EventInput, "set", func(_ context.Context, ev Event) (any, error) {
		return nil, e.SetValue(ev.Key, ev.Field, ev.Value)
	})

	d.On(EventMouseEnter, "row", func(_ context.Context, ev Event) (any, error) {
		var g RowGeometry
		if ev.Geometry != nil {
			g = *ev.Geometry
		}
		p, err := e.EnterRow(ev.Key, g)
		if err != nil {
			return nil, err
		}
		return map[string]dom.Point{"position": p}, nil
	})
	d.On(EventMouseEnter, "panel", func(_ context.Context, ev Event) (any, error) {
		return nil, e.EnterPanel(ev.Key)
	})
	d.On(EventMouseLeave, "row", func(_ context.Context, ev Event) (any, error) {
		return nil, e.LeaveRow(ev.Key)
	})
	d.On(EventMouseLeave, "panel", func(_ context.Context, ev Event) (any, error) {
		return nil, e.LeavePanel(ev.Key)
	})
}
