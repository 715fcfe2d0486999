package params

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/getredash/redash-sub002/pkg/models"
)

func TestMirror_BroadcastsToLocals(t *testing.T) {
	def := models.ParameterDefinition{Name: "region", Type: "enum", EnumOptions: "emea\napac", Value: "emea"}
	source := newParam(def)
	local1 := newParam(models.ParameterDefinition{Name: "region", Type: "enum", EnumOptions: "emea\napac"})
	local2 := newParam(models.ParameterDefinition{Name: "region", Type: "text"})

	m := NewMirror(source, local1, local2, nil, source)
	assert.Len(t, m.Locals(), 2)
	assert.Same(t, source, m.Source())

	// linking syncs the current value
	assert.Equal(t, "emea", local1.Value())
	assert.Equal(t, "emea", local2.Value())

	m.SetValue("apac")
	assert.Equal(t, "apac", source.Value())
	assert.Equal(t, "apac", local1.Value())
	assert.Equal(t, "apac", local2.Value())

	m.Unlink(local2)
	m.SetValue("emea")
	assert.Equal(t, "emea", local1.Value())
	assert.Equal(t, "apac", local2.Value())
}

func TestMirror_LocalsNormalizeRawValue(t *testing.T) {
	source := newParam(models.ParameterDefinition{Name: "region", Type: "enum", EnumOptions: "emea\napac"}, WithFirstOptionFallback())
	local := newParam(models.ParameterDefinition{Name: "region", Type: "text"})
	m := NewMirror(source, local)

	m.SetValue("latam")
	assert.Equal(t, "emea", source.Value())
	assert.Equal(t, "latam", local.Value())
}

func TestMirror_ApplyPendingValue(t *testing.T) {
	source := newParam(models.ParameterDefinition{Name: "n", Type: "number", Value: 1})
	local := newParam(models.ParameterDefinition{Name: "n", Type: "number"})
	m := NewMirror(source, local)

	m.ApplyPendingValue()
	assert.Equal(t, float64(1), local.Value())

	source.SetPendingValue("2")
	m.ApplyPendingValue()
	assert.Equal(t, float64(2), source.Value())
	assert.Equal(t, float64(2), local.Value())
	assert.False(t, source.HasPendingValue())
}

func TestMirror_ParameterSetValueDoesNotFanOut(t *testing.T) {
	source := newParam(models.ParameterDefinition{Name: "q", Value: "a"})
	local := newParam(models.ParameterDefinition{Name: "q"})
	NewMirror(source, local)

	source.SetValue("b")
	assert.Equal(t, "a", local.Value())
}

func TestMirror_LinkIsIdempotent(t *testing.T) {
	source := newParam(models.ParameterDefinition{Name: "q", Value: "a"})
	local := newParam(models.ParameterDefinition{Name: "q"})
	m := NewMirror(source)

	m.Link(local)
	m.Link(local)
	assert.Len(t, m.Locals(), 1)

	locals := m.Locals()
	locals[0] = nil
	assert.NotNil(t, m.Locals()[0])
}
