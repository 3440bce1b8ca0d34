package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	tok, ok := c.Token("Empresa Visitada")
	require.True(t, ok)
	assert.Equal(t, "{{empresaVisitada}}", tok)

	tok, ok = c.Token("Qué trabajos está ejecutando la empresa 20?")
	require.True(t, ok)
	assert.Equal(t, "{{trabajosEmpresa20}}", tok)

	_, ok = c.Token("Añadir Empresa 21")
	assert.False(t, ok, "no switch after the last slot")
	_, ok = c.Token("Añadir Empresa 20")
	assert.True(t, ok)

	assert.Equal(t, DefaultSlots, c.Slots())
}

func TestVisibilityRules(t *testing.T) {
	c := Default()

	r, ok := c.VisibilityRule("¿Existen zonas de acopio de material?")
	require.True(t, ok)
	assert.True(t, r.Fires(" No "))
	assert.False(t, r.Fires("Sí"))
	assert.Contains(t, r.Hidden, "¿Las zonas de acopio están correctamente delimitadas y en orden?")
	assert.Contains(t, r.Hidden, "{{zonasAcopioDelimitadas}}")
}

func TestAdviceAndDescriptions(t *testing.T) {
	c := Default()
	title := "¿Existe un botiquín en obra que esté completo, accesible y señalizado adecuadamente?"

	text, ok := c.Advice(title, 1)
	require.True(t, ok)
	assert.Contains(t, text, "CRÍTICO:")
	_, ok = c.Advice(title, 6)
	assert.False(t, ok)
	assert.True(t, c.HasAdvice(title))

	d, ok := c.DescriptionRule("Existe Coordinador de Seguridad y Salud en fase de ejecución")
	require.True(t, ok)
	assert.True(t, d.Matches("No procede"))
	assert.False(t, d.Matches("Sí"))
	assert.NotEmpty(t, d.LinkURL)
}

func TestKnownTokens(t *testing.T) {
	c := Default()
	known := c.KnownTokens()

	seen := map[string]bool{}
	for _, tok := range known {
		assert.False(t, seen[tok], "duplicate %s", tok)
		seen[tok] = true
	}
	assert.True(t, seen["{{empresaVisitada}}"])
	assert.True(t, seen["{{nombreEmpresa1}}"])
	assert.True(t, seen["{{disponeBotiquinConsejo}}"])
	assert.True(t, seen["{{existeCoordinadorSysDescripcion}}"])
	assert.False(t, seen["{{empresaVisitadaConsejo}}"])
}

func TestVisitorEmail(t *testing.T) {
	c := Default()
	email, ok := c.VisitorEmail(" Manuel Ponce ")
	require.True(t, ok)
	assert.Equal(t, "manuelponce.mca@gmail.com", email)

	_, ok = c.VisitorEmail("Nadie")
	assert.False(t, ok)
}

func TestDerivedTokens(t *testing.T) {
	assert.Equal(t, "tendidoCables", BaseName("{{tendidoCables}}"))
	assert.Equal(t, "{{tendidoCablesConsejo}}", AdviceToken("{{tendidoCables}}"))
	assert.Equal(t, "{{tendidoCablesDescripcion}}", DescriptionToken("{{tendidoCables}}"))
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "visitors.yaml"), []byte("visitors:\n  - name: Ana Ruiz\n    email: Ana@Example.com\n"), 0o644)
	require.NoError(t, err)

	c, err := Load(dir, 3)
	require.NoError(t, err)

	email, ok := c.VisitorEmail("Ana Ruiz")
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", email)
	_, ok = c.VisitorEmail("Manuel Ponce")
	assert.False(t, ok, "override replaces the embedded table")

	_, ok = c.Token("Nombre Empresa 3")
	assert.True(t, ok)
	_, ok = c.Token("Nombre Empresa 4")
	assert.False(t, ok)
}

func TestLoadRejectsMalformedToken(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "placeholders.yaml"), []byte("placeholders:\n  - title: Provincia\n    token: provincia\n"), 0o644)
	require.NoError(t, err)

	_, err = Load(dir, 1)
	assert.Error(t, err)
}
