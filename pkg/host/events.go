package host

// eventState tracks suppression of an input event. A listener that claims
// an event prevents the host's default action and stops further delivery.
type eventState struct {
	defaultPrevented   bool
	propagationStopped bool
}

// PreventDefault suppresses the host's default action for this event.
func (s *eventState) PreventDefault() { s.defaultPrevented = true }

// StopPropagation stops delivery to any further listener.
func (s *eventState) StopPropagation() { s.propagationStopped = true }

// DefaultPrevented reports whether a listener suppressed the default action.
func (s *eventState) DefaultPrevented() bool { return s.defaultPrevented }

// PropagationStopped reports whether a listener stopped propagation.
func (s *eventState) PropagationStopped() bool { return s.propagationStopped }

// PasteEvent is a clipboard paste observed by the host. Path lists the
// event-region names from the innermost target outward, so region
// containment is a membership check.
type PasteEvent struct {
	eventState

	Path  []string
	Files []*File
	Items []ClipboardItem
}

// WithinRegion reports whether the event originated inside the named region.
func (e *PasteEvent) WithinRegion(region string) bool {
	for _, r := range e.Path {
		if r == region {
			return true
		}
	}
	return false
}

// KeyEvent is a keyboard event observed by the host.
type KeyEvent struct {
	eventState

	Key   string
	Ctrl  bool
	Alt   bool
	Shift bool
	Meta  bool
	Path  []string
}

// HasModifier reports whether any modifier key is held.
func (e *KeyEvent) HasModifier() bool {
	return e.Ctrl || e.Alt || e.Shift || e.Meta
}

// WithinRegion reports whether focus was inside the named region when the
// key was pressed.
func (e *KeyEvent) WithinRegion(region string) bool {
	for _, r := range e.Path {
		if r == region {
			return true
		}
	}
	return false
}
