package mapping

import (
	"fmt"

	"mapping-editor/internal/dom"
)

// Lock is the global edit lock: either unlocked, or one field is being edited
// and every other field is blocked.
type Lock struct {
	editing string
}

// Editing returns the key under edit, if any.
func (l Lock) Editing() (string, bool) {
	return l.editing, l.editing != ""
}

func (l Lock) String() string {
	if l.editing == "" {
		return "unlocked"
	}
	return "editing(" + l.editing + ")"
}

// Lock returns the current lock state.
func (r *Registry) Lock() Lock { return r.lock }

// BeginEdit moves Unlocked -> Editing(key). Asking again for the field already
// under edit is a no-op; asking for another field fails with ErrLocked.
func (r *Registry) BeginEdit(key string) error {
	if _, ok := r.fields[key]; !ok {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, key)
	}
	if editing, ok := r.lock.Editing(); ok {
		if editing == key {
			return nil
		}
		return fmt.Errorf("%w: %q", ErrLocked, editing)
	}
	r.lock = Lock{editing: key}
	r.project()
	return nil
}

// Accept keeps the live values and moves Editing -> Unlocked.
func (r *Registry) Accept() (string, error) {
	key, ok := r.lock.Editing()
	if !ok {
		return "", ErrNotEditing
	}
	r.lock = Lock{}
	r.project()
	return key, nil
}

// Revert restores the edited field to its baseline and moves Editing -> Unlocked.
func (r *Registry) Revert() (string, error) {
	key, ok := r.lock.Editing()
	if !ok {
		return "", ErrNotEditing
	}
	if f, exists := r.fields[key]; exists {
		f.Revert()
	}
	r.lock = Lock{}
	r.project()
	return key, nil
}

// SetValue edits one control of a field. Only the field under edit accepts
// changes, except unlocked controls while nothing is being edited.
func (r *Registry) SetValue(key, name, value string) error {
	f, ok := r.fields[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, key)
	}
	in := f.Input(name)
	if in == nil {
		return fmt.Errorf("%w: %q has no input %q", ErrUnknownInput, key, name)
	}
	editing, locked := r.lock.Editing()
	switch {
	case locked && editing == key:
	case !locked && in.Unlocked:
	case locked:
		return fmt.Errorf("%w: %q", ErrLocked, editing)
	default:
		return fmt.Errorf("%w: %q", ErrNotEditing, key)
	}
	if !in.Set(value) {
		return fmt.Errorf("%w: %q is not an option of %q", ErrInvalidValue, value, name)
	}
	return nil
}

// project writes the lock state onto the detail panels as class markers.
func (r *Registry) project() {
	editing, locked := r.lock.Editing()
	for _, f := range r.fields {
		dom.SetClass(f.Detail, ClassModify, locked && f.Key == editing)
		dom.SetClass(f.Detail, ClassBlocked, locked && f.Key != editing)
	}
}
