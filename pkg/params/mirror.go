package params

import "slices"

// Mirror owns the links between a source parameter (for example a
// dashboard-level parameter) and the local parameters that follow it.
// Values set through the Mirror are pushed to every linked parameter.
type Mirror struct {
	source *Parameter
	locals []*Parameter
}

// NewMirror creates a Mirror broadcasting from source.
func NewMirror(source *Parameter, locals ...*Parameter) *Mirror {
	m := &Mirror{source: source}
	m.Link(locals...)
	return m
}

// Source returns the parameter the Mirror broadcasts from.
func (m *Mirror) Source() *Parameter {
	return m.source
}

// Locals returns the linked parameters.
func (m *Mirror) Locals() []*Parameter {
	return slices.Clone(m.locals)
}

// Link adds parameters to the broadcast list and syncs them to the source.
func (m *Mirror) Link(locals ...*Parameter) {
	for _, l := range locals {
		if l == nil || l == m.source || slices.Contains(m.locals, l) {
			continue
		}
		m.locals = append(m.locals, l)
		l.SetValue(m.source.Value())
	}
}

// Unlink removes a parameter from the broadcast list.
func (m *Mirror) Unlink(local *Parameter) {
	m.locals = slices.DeleteFunc(m.locals, func(l *Parameter) bool { return l == local })
}

// SetValue sets the source value and pushes the same raw value to every
// linked parameter, each normalizing it by its own kind.
func (m *Mirror) SetValue(raw any) {
	m.source.SetValue(raw)
	for _, l := range m.locals {
		l.SetValue(raw)
	}
}

// ApplyPendingValue commits the source's staged value, if any, and broadcasts it.
func (m *Mirror) ApplyPendingValue() {
	if !m.source.HasPendingValue() {
		return
	}
	pending, _ := m.source.PendingValue()
	m.SetValue(pending)
}
