package editor

import (
	"fmt"
	"time"

	"mapping-editor/internal/dom"
	"mapping-editor/internal/mapping"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type clockScheduler struct{}

func (clockScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RowGeometry is the layout the client measured when the pointer entered a
// summary row.
type RowGeometry struct {
	Row    dom.Rect  `json:"row"`
	Panel  dom.Size  `json:"panel"`
	Scroll dom.Point `json:"scroll"`
}

// hoverState tracks the disclosed panel. seq identifies the current pending
// hide; any enter bumps it so a callback that already fired does nothing.
type hoverState struct {
	visible     string
	insidePanel bool
	pending     Timer
	seq         uint64
}

// EnterRow discloses the detail panel of key centered on its row and hides
// every other panel.
func (e *Editor) EnterRow(key string, g RowGeometry) (dom.Point, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return dom.Point{}, ErrClosed
	}
	f, ok := e.registry.Lookup(key)
	if !ok {
		return dom.Point{}, fmt.Errorf("%w: %q", mapping.ErrFieldNotFound, key)
	}
	e.cancelHide()
	for _, other := range e.registry.Fields() {
		if other.Key != key {
			dom.RemoveClass(other.Detail, mapping.ClassVisible)
		}
	}
	pos := dom.CenterOn(g.Row, g.Panel, g.Scroll)
	dom.SetPosition(f.Detail, pos)
	dom.AddClass(f.Detail, mapping.ClassVisible)
	e.hover.visible = key
	e.hover.insidePanel = false
	return pos, nil
}

// EnterPanel keeps the disclosed panel open while the pointer is over it.
func (e *Editor) EnterPanel(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.hover.visible == "" || e.hover.visible != key {
		return nil
	}
	e.cancelHide()
	e.hover.insidePanel = true
	return nil
}

// LeaveRow schedules the disclosed panel to hide.
func (e *Editor) LeaveRow(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.hover.visible == "" {
		return nil
	}
	e.scheduleHide()
	return nil
}

// LeavePanel schedules the disclosed panel to hide once the pointer left it.
func (e *Editor) LeavePanel(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.hover.visible == "" || e.hover.visible != key {
		return nil
	}
	e.hover.insidePanel = false
	e.scheduleHide()
	return nil
}

// Visible returns the key of the disclosed panel, if any.
func (e *Editor) Visible() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hover.visible, e.hover.visible != ""
}

// scheduleHide and cancelHide expect e.mu to be held.
func (e *Editor) scheduleHide() {
	e.cancelHide()
	seq := e.hover.seq
	e.hover.pending = e.scheduler.AfterFunc(e.hideDelay, func() {
		e.expireHover(seq)
	})
}

func (e *Editor) cancelHide() {
	if e.hover.pending != nil {
		e.hover.pending.Stop()
		e.hover.pending = nil
	}
	e.hover.seq++
}

func (e *Editor) expireHover(seq uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.hover.seq || e.hover.insidePanel || e.hover.visible == "" {
		return
	}
	if f, ok := e.registry.Lookup(e.hover.visible); ok {
		dom.RemoveClass(f.Detail, mapping.ClassVisible)
	}
	e.hover = hoverState{seq: e.hover.seq + 1}
}
