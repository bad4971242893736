// File: internal/portal/labels_test.go
package portal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"lowercases", "CHASSI", "chassi"},
		{"strips trailing colon", "Renavam:", "renavam"},
		{"joins internal whitespace", "Situação do   Gravame", "situação_do_gravame"},
		{"trims surrounding space", "  Placa/UF  ", "placa/uf"},
		{"colon then space", "Cor : ", "cor_:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeLabel(tt.raw))
		})
	}
}

func TestCanonicalizeKnownHeaders(t *testing.T) {
	chassis := NewChassisDictionary("")
	bin := NewBinDictionary("")
	vehicles := NewVehiclesDictionary("")

	assert.Equal(t, "chassis", chassis.Canonicalize("Chassi:"))
	assert.Equal(t, "plate_state", chassis.Canonicalize("Placa/UF"))
	assert.Equal(t, "lien_state", chassis.Canonicalize("Situação do Gravame"))

	assert.Equal(t, "manufacture_model_year", bin.Canonicalize("Ano Fabricação/Modelo"))
	assert.Equal(t, "1st_restriction", bin.Canonicalize("1ª Restrição"))

	assert.Equal(t, "manufacture_year", vehicles.Canonicalize("Ano Fabricação"))
	assert.Equal(t, "status", vehicles.Canonicalize("Situação"))
}

// The same portal header resolves differently per query type: the chassis
// status page publishes its registry number under the historical "reindeer"
// name while the BIN page uses the literal one.
func TestCanonicalizeRenavamDivergence(t *testing.T) {
	assert.Equal(t, "reindeer", NewChassisDictionary("").Canonicalize("Renavam"))
	assert.Equal(t, "renavam", NewBinDictionary("").Canonicalize("Renavam"))
}

func TestCanonicalizeIsTotal(t *testing.T) {
	d := NewChassisDictionary("")

	assert.Equal(t, "unrecognized:novo_campo", d.Canonicalize("Novo Campo"))
	assert.Equal(t, "unrecognized:", d.Canonicalize(""))
	assert.Equal(t, "unrecognized:", d.Canonicalize("   "))
}

func TestCanonicalizeFallbackPrefixConfigurable(t *testing.T) {
	d := NewBinDictionary("x_")

	assert.Equal(t, "x_novo_campo", d.Canonicalize("Novo Campo"))
	// Known headers are unaffected by the prefix.
	assert.Equal(t, "chassis", d.Canonicalize("Chassi"))
}

// Prefixed fallback names must never collide with canonical names, so a
// header the portal adds later cannot silently overwrite a known field.
func TestFallbackNamespaceDoesNotCollide(t *testing.T) {
	for _, d := range []*LabelDictionary{
		NewChassisDictionary(""), NewBinDictionary(""), NewVehiclesDictionary(""),
	} {
		for key, canonical := range d.fields {
			assert.NotEqual(t, canonical, d.fallbackPrefix+key,
				"dictionary %s key %s", d.Name(), key)
		}
	}
}
