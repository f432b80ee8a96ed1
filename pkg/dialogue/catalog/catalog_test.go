package catalog_test

import (
	"testing"

	"docvault-be/pkg/dialogue/catalog"

	"github.com/stretchr/testify/assert"
)

func TestValidCategory(t *testing.T) {
	assert.True(t, catalog.ValidCategory("legal"))
	assert.True(t, catalog.ValidCategory("financiero"))
	assert.False(t, catalog.ValidCategory("rrhh"))
	assert.False(t, catalog.ValidCategory(""))
}

func TestValidSubtype(t *testing.T) {
	assert.True(t, catalog.ValidSubtype("legal", "poderes"))
	assert.True(t, catalog.ValidSubtype("financiero", "f29"))
	assert.False(t, catalog.ValidSubtype("legal", "f29"))
	assert.False(t, catalog.ValidSubtype("financiero", "poderes"))
	assert.False(t, catalog.ValidSubtype("nope", "poderes"))
}

func TestNormalizeCategory(t *testing.T) {
	key, ok := catalog.NormalizeCategory("Legal")
	assert.True(t, ok)
	assert.Equal(t, "legal", key)

	key, ok = catalog.NormalizeCategory("  FINANCIERO ")
	assert.True(t, ok)
	assert.Equal(t, "financiero", key)

	_, ok = catalog.NormalizeCategory("contable")
	assert.False(t, ok)
}

func TestNormalizeSubtype(t *testing.T) {
	key, ok := catalog.NormalizeSubtype("financiero", "Carpeta tributaria")
	assert.True(t, ok)
	assert.Equal(t, "carpeta_tributaria", key)

	key, ok = catalog.NormalizeSubtype("legal", "rut")
	assert.True(t, ok)
	assert.Equal(t, "rut", key)

	_, ok = catalog.NormalizeSubtype("legal", "reporte mensual")
	assert.False(t, ok)
}

func TestRequiresDescription(t *testing.T) {
	assert.True(t, catalog.RequiresDescription("legal", "otros"))
	assert.True(t, catalog.RequiresDescription("financiero", "otros"))
	assert.False(t, catalog.RequiresDescription("legal", "rut"))
	assert.False(t, catalog.RequiresDescription("financiero", "f22"))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Legal", catalog.CategoryLabel("legal"))
	assert.Equal(t, "Formulario F29", catalog.SubtypeLabel("financiero", "f29"))
	// Unknown keys fall through unchanged.
	assert.Equal(t, "x", catalog.CategoryLabel("x"))
}

func TestSubtypesOrder(t *testing.T) {
	subs := catalog.Subtypes("financiero")
	assert.Len(t, subs, 6)
	assert.Equal(t, "reporte_mensual", subs[0].Key)
	assert.Equal(t, "otros", subs[len(subs)-1].Key)
	assert.Nil(t, catalog.Subtypes("unknown"))
}
