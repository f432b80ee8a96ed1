// Package catalog holds the static two-level document taxonomy. Keys are
// stable identifiers used in storage and slot values; labels are the
// Spanish display strings shown to users.
package catalog

import "strings"

type Subtype struct {
	Key                 string
	Label               string
	RequiresDescription bool
}

type Category struct {
	Key      string
	Label    string
	Subtypes []Subtype
}

var categories = []Category{
	{
		Key:   "legal",
		Label: "Legal",
		Subtypes: []Subtype{
			{Key: "estatutos_empresa", Label: "Estatutos de la empresa"},
			{Key: "poderes", Label: "Poderes"},
			{Key: "ci", Label: "Cédula de identidad"},
			{Key: "rut", Label: "RUT"},
			{Key: "otros", Label: "Otros", RequiresDescription: true},
		},
	},
	{
		Key:   "financiero",
		Label: "Financiero",
		Subtypes: []Subtype{
			{Key: "reporte_mensual", Label: "Reporte mensual"},
			{Key: "estados_financieros", Label: "Estados financieros"},
			{Key: "carpeta_tributaria", Label: "Carpeta tributaria"},
			{Key: "f29", Label: "Formulario F29"},
			{Key: "f22", Label: "Formulario F22"},
			{Key: "otros", Label: "Otros", RequiresDescription: true},
		},
	},
}

// Categories returns the catalog in display order.
func Categories() []Category {
	return categories
}

// ValidCategory reports whether the key names a catalog category.
func ValidCategory(key string) bool {
	_, ok := findCategory(key)
	return ok
}

// ValidSubtype reports whether the subtype key belongs to the category.
func ValidSubtype(categoryKey, subtypeKey string) bool {
	_, ok := findSubtype(categoryKey, subtypeKey)
	return ok
}

// CategoryLabel returns the Spanish label of a category key, or the key
// itself when unknown.
func CategoryLabel(key string) string {
	if c, ok := findCategory(key); ok {
		return c.Label
	}
	return key
}

// SubtypeLabel returns the Spanish label of a subtype key, or the key
// itself when unknown.
func SubtypeLabel(categoryKey, subtypeKey string) string {
	if s, ok := findSubtype(categoryKey, subtypeKey); ok {
		return s.Label
	}
	return subtypeKey
}

// Subtypes returns the subtypes of a category in display order.
func Subtypes(categoryKey string) []Subtype {
	if c, ok := findCategory(categoryKey); ok {
		return c.Subtypes
	}
	return nil
}

// RequiresDescription reports whether uploads under this catalog entry
// need a free-text description.
func RequiresDescription(categoryKey, subtypeKey string) bool {
	if s, ok := findSubtype(categoryKey, subtypeKey); ok {
		return s.RequiresDescription
	}
	return false
}

// NormalizeCategory maps free text to a category key. Accepts the key
// itself or the label, case-insensitively.
func NormalizeCategory(raw string) (string, bool) {
	needle := normalize(raw)
	for _, c := range categories {
		if needle == c.Key || needle == normalize(c.Label) {
			return c.Key, true
		}
	}
	return "", false
}

// NormalizeSubtype maps free text to a subtype key within a category.
func NormalizeSubtype(categoryKey, raw string) (string, bool) {
	c, ok := findCategory(categoryKey)
	if !ok {
		return "", false
	}
	needle := normalize(raw)
	for _, s := range c.Subtypes {
		if needle == s.Key || needle == normalize(s.Label) {
			return s.Key, true
		}
	}
	return "", false
}

func findCategory(key string) (Category, bool) {
	for _, c := range categories {
		if c.Key == key {
			return c, true
		}
	}
	return Category{}, false
}

func findSubtype(categoryKey, subtypeKey string) (Subtype, bool) {
	c, ok := findCategory(categoryKey)
	if !ok {
		return Subtype{}, false
	}
	for _, s := range c.Subtypes {
		if s.Key == subtypeKey {
			return s, true
		}
	}
	return Subtype{}, false
}

func normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
