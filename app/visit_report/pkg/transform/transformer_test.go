package transform

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/catalog"
	"github.com/iWorld-y/visit_report/app/visit_report/pkg/model"
)

const (
	titleAcopio       = "¿Existen zonas de acopio de material?"
	titleAcopioOrden  = "¿Las zonas de acopio están correctamente delimitadas y en orden?"
	titleBotiquin     = "¿Existe un botiquín en obra que esté completo, accesible y señalizado adecuadamente?"
	titleCoordinador  = "Existe Coordinador de Seguridad y Salud en fase de ejecución"
	titleEquipos      = "¿Equipos de trabajo que utiliza la empresa?"
	titleImagenes     = "Adjuntar imágenes (1 a 10)"
	titleEsfuerzo     = "El trabajo realizado requiere:"
	titleInstalacion  = "¿Existe una instalación eléctrica?"
	titleTomaTierra   = "¿Se dispone de toma de tierra?"
	titleObservacion  = "Utiliza este espacio para añadir cualquier comentario, aclaración o información relevante que consideres importante sobre el trabajo realizado o las condiciones evaluadas."
	titleNoMapping    = "Pregunta que no está en la plantilla"
	titleRatingEffort = "En general, ¿cómo valorarías el equilibrio entre el esfuerzo físico requerido y la aplicación de medidas preventivas en el trabajo realizado?"
	titleExtinction   = "Se dispone de medios de extinción de incendios"
)

func text(title, v string) model.Answer {
	return model.Answer{Title: title, Type: model.TypeText, Value: model.TextValue(v)}
}

func choice(title, v string) model.Answer {
	return model.Answer{Title: title, Type: model.TypeChoice, Value: model.TextValue(v)}
}

func multi(title string, v ...string) model.Answer {
	return model.Answer{Title: title, Type: model.TypeMultiChoice, Value: model.ListValue(v)}
}

func scale(title string, n float64) model.Answer {
	return model.Answer{Title: title, Type: model.TypeRating, Value: model.NumberValue(n)}
}

func newTestTransformer(t *testing.T) (*Transformer, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)
	return New(catalog.Default(), WithLogger(logger), WithLocation(madrid)), hook
}

func TestPrimaryCompany(t *testing.T) {
	tr, _ := newTestTransformer(t)

	b := tr.Transform([]model.Answer{text("Empresa Visitada", "Acme S.L.")})
	assert.Equal(t, "Acme S.L.", b.PrimaryCompany)
	v, ok := b.Value("{{empresaVisitada}}")
	require.True(t, ok)
	assert.Equal(t, "Acme S.L.", v)

	b = tr.Transform(nil)
	assert.Equal(t, model.DefaultCompanyName, b.PrimaryCompany)
}

func TestCompanySlots(t *testing.T) {
	tr, _ := newTestTransformer(t)

	b := tr.Transform([]model.Answer{
		text("Nombre Empresa 1", "Foo S.A."),
		text("CIF Empresa 1", "B12345678"),
		text("Correo Electrónico Contacto Empresa 1", "Jefe@Foo.es"),
		multi("Qué trabajos está ejecutando la empresa 1?", "Albañilería", " ", "Encofrado"),
		text("Nombre Empresa 2", ""),
		text("CIF Empresa 2", "X000"),
		text("Nombre Empresa 3", "Bar S.L."),
	})

	require.Len(t, b.Companies, 2)
	assert.Equal(t, "Foo S.A.", b.Companies[0].Name)
	assert.Equal(t, "B12345678", b.Companies[0].TaxID)
	assert.Equal(t, "➤ Albañilería\n➤ Encofrado", b.Companies[0].WorkScope)
	assert.Equal(t, "Bar S.L.", b.Companies[1].Name)
	assert.Equal(t, 3, b.Companies[1].Slot)

	// consumed slot titles are never substituted from their answers, only blanked
	for _, tok := range []string{"{{nombreEmpresa1}}", "{{cifEmpresa2}}", "{{nombreEmpresa3}}"} {
		v, ok := b.Value(tok)
		require.True(t, ok, tok)
		assert.Equal(t, EmptyValue, v, tok)
	}

	assert.Contains(t, b.IndividualRecipients, "jefe@foo.es")
}

func TestGroupCompaniesMarksEmptySlotsConsumed(t *testing.T) {
	answers := []model.Answer{
		text("Nombre Empresa 1", "Foo S.A."),
		text("Nombre Empresa 2", ""),
	}
	g := GroupCompanies(catalog.DefaultSlots, IndexByTitle(answers))

	require.Len(t, g.Companies, 1)
	assert.Equal(t, "Foo S.A.", g.Companies[0].Name)
	for _, title := range catalog.Slot(2).Titles() {
		assert.True(t, g.Consumed.Has(title), title)
	}
	assert.True(t, g.Consumed.Has(catalog.Slot(20).WorkScope))
}

func TestVisibilityHidesFollowUps(t *testing.T) {
	tr, _ := newTestTransformer(t)

	b := tr.Transform([]model.Answer{
		choice(titleAcopio, "No"),
		scale(titleAcopioOrden, 4),
	})

	assert.True(t, b.Hidden.Has(titleAcopioOrden))
	assert.True(t, b.Hidden.Has("{{zonasAcopioDelimitadas}}"))
	_, ok := b.Value("{{zonasAcopioDelimitadas}}")
	assert.False(t, ok, "hidden tokens get no substitution")
	_, ok = b.Value("{{zonasAcopioDelimitadasConsejo}}")
	assert.False(t, ok)
	assert.Empty(t, b.RatingStyles)
}

func TestVisibilityRuleNotFiring(t *testing.T) {
	tr, _ := newTestTransformer(t)

	b := tr.Transform([]model.Answer{
		choice(titleAcopio, "Sí"),
		choice(titleInstalacion, "No"),
	})

	assert.False(t, b.Hidden.Has(titleAcopioOrden))
	assert.False(t, b.Hidden.Has("{{zonasAcopioDelimitadas}}"))
	assert.True(t, b.Hidden.Has(titleTomaTierra), "unrelated rule still applies")
}

func TestVisibilityIsNotTransitive(t *testing.T) {
	// the high voltage rule hides its own trigger; the trigger is still evaluated
	hidden := ResolveHidden(catalog.Default(), []model.Answer{
		choice("¿Las líneas de alta tensión están bien identificadas?", "No"),
	})
	assert.True(t, hidden.Has("¿Las líneas de alta tensión están bien identificadas?"))
	assert.True(t, hidden.Has("LÍNEAS DE ALTA TENSIÓN EN PROXIMIDADES"))
}

func TestRatingWithAdvice(t *testing.T) {
	tr, _ := newTestTransformer(t)

	b := tr.Transform([]model.Answer{scale(titleBotiquin, 3)})

	stars, _ := b.Value("{{disponeBotiquin}}")
	assert.Equal(t, "★★★☆☆", stars)
	advice, _ := b.Value("{{disponeBotiquinConsejo}}")
	assert.Contains(t, advice, "MEJORABLE:")

	require.Len(t, b.RatingStyles, 1)
	assert.Equal(t, model.RatingStyle{Score: 3, Glyph: "★★★☆☆", Title: titleBotiquin, Advice: advice}, b.RatingStyles[0])
}

func TestRatingWithoutAdviceEntry(t *testing.T) {
	tr, hook := newTestTransformer(t)

	b := tr.Transform([]model.Answer{scale(titleExtinction, 3)})

	stars, _ := b.Value("{{disponeMediosExtincion}}")
	assert.Equal(t, "★★★☆☆", stars)
	advice, ok := b.Value("{{disponeMediosExtincionConsejo}}")
	require.True(t, ok)
	assert.Equal(t, "", advice)
	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, logrus.WarnLevel, e.Level)
	}
}

func TestRatingOutOfIntRange(t *testing.T) {
	tr, _ := newTestTransformer(t)

	var b *model.ReportBundle
	require.NotPanics(t, func() {
		b = tr.Transform([]model.Answer{{
			Title: titleBotiquin,
			Type:  model.TypeRating,
			Value: model.TextValue("9223372036854775807"),
		}})
	})

	stars, _ := b.Value("{{disponeBotiquin}}")
	assert.Equal(t, "★★★★★", stars)
	advice, _ := b.Value("{{disponeBotiquinConsejo}}")
	assert.Equal(t, "", advice)
}

func TestUnparsableRating(t *testing.T) {
	tr, hook := newTestTransformer(t)

	b := tr.Transform([]model.Answer{{
		Title: titleBotiquin,
		Type:  model.TypeRating,
		Value: model.TextValue("n/a"),
	}})

	stars, ok := b.Value("{{disponeBotiquin}}")
	require.True(t, ok)
	assert.Equal(t, "", stars)
	advice, _ := b.Value("{{disponeBotiquinConsejo}}")
	assert.Equal(t, "", advice)
	assert.Empty(t, b.RatingStyles)

	var warned bool
	for _, e := range hook.AllEntries() {
		warned = warned || e.Level == logrus.WarnLevel
	}
	assert.True(t, warned)
}

func TestConditionalDescription(t *testing.T) {
	tr, _ := newTestTransformer(t)

	b := tr.Transform([]model.Answer{choice(titleCoordinador, " No procede ")})
	d, ok := b.RichDescription("{{existeCoordinadorSysDescripcion}}")
	require.True(t, ok)
	assert.Contains(t, d.Summary, "Coordinador de Seguridad y Salud")
	assert.Contains(t, d.LinkURL, "boe.es")
	_, ok = b.Value("{{existeCoordinadorSysDescripcion}}")
	assert.False(t, ok)

	b = tr.Transform([]model.Answer{choice(titleCoordinador, "Sí")})
	assert.Empty(t, b.RichDescriptions)
	v, ok := b.Value("{{existeCoordinadorSysDescripcion}}")
	require.True(t, ok)
	assert.Equal(t, "", v)
}

func TestListFormatting(t *testing.T) {
	tr, _ := newTestTransformer(t)

	b := tr.Transform([]model.Answer{
		multi(titleEquipos, "Radial", "", "Hormigonera"),
		multi("Visitador Principal", "Manuel Ponce", "Carlos Parra"),
		multi(catalog.TitleRiskSignage, "Caída de objetos", "Riesgo eléctrico"),
		multi(titleEsfuerzo),
	})

	v, _ := b.Value("{{equiposTrabajoUtilizados}}")
	assert.Equal(t, "➤ Radial\n➤ Hormigonera", v)
	v, _ = b.Value("{{visitadorPrincipal}}")
	assert.Equal(t, "Manuel Ponce, Carlos Parra", v)
	v, _ = b.Value("{{senalizacionRiesgosEspecificos}}")
	assert.Equal(t, "Caída de objetos, Riesgo eléctrico", v)
	v, _ = b.Value("{{trabajoRequiereEsfuerzo}}")
	assert.Equal(t, EmptyValue, v)

	assert.Equal(t, []string{"manuelponce.mca@gmail.com", "organizacion.sevilla@fica.ugt.org"}, b.VisitorRecipients)
}

func TestRequiredPPE(t *testing.T) {
	tr, _ := newTestTransformer(t)

	b := tr.Transform([]model.Answer{text(catalog.TitleRequiredPPE, "Casco, Guantes de seguridad;Botas\n")})
	v, _ := b.Value("{{episNecesarios}}")
	assert.Equal(t, "➤ Casco\n➤ Guantes de seguridad\n➤ Botas", v)

	b = tr.Transform([]model.Answer{multi(catalog.TitleRequiredPPE, "Arnés", " Chaleco ")})
	v, _ = b.Value("{{episNecesarios}}")
	assert.Equal(t, "➤ Arnés\n➤ Chaleco", v)

	b = tr.Transform([]model.Answer{text(catalog.TitleRequiredPPE, " , ")})
	v, _ = b.Value("{{episNecesarios}}")
	assert.Equal(t, EmptyValue, v)
}

func TestScalarFallback(t *testing.T) {
	tr, _ := newTestTransformer(t)

	b := tr.Transform([]model.Answer{text(titleObservacion, "")})
	v, ok := b.Value("{{observacionesGenerales}}")
	require.True(t, ok)
	assert.Equal(t, EmptyValue, v)
}

func TestCompanionsAndExtraEmail(t *testing.T) {
	tr, _ := newTestTransformer(t)

	b := tr.Transform([]model.Answer{
		text("Acompañantes", "Jane Doe, jane@x.com"),
		text("Correo Adicional (Opcional):", "JANE@x.com; otro@empresa.es"),
	})

	v, _ := b.Value("{{acompanantes}}")
	assert.Equal(t, "Jane Doe", v)
	assert.Equal(t, []string{"jane@x.com", "otro@empresa.es"}, b.IndividualRecipients)
}

func TestVisitDate(t *testing.T) {
	tr, _ := newTestTransformer(t)

	b := tr.Transform([]model.Answer{{Title: "Fecha Visita", Type: model.TypeDate, Value: model.TextValue("2025-03-03")}})

	require.NotNil(t, b.VisitDate)
	assert.Equal(t, "2025-03-03", b.VisitDate.Format(time.DateOnly))
	v, _ := b.Value("{{fechaVisita}}")
	assert.Equal(t, "lunes, 3 de marzo de 2025", v)
}

func TestFileUploadsAndFirstAid(t *testing.T) {
	tr, _ := newTestTransformer(t)

	b := tr.Transform([]model.Answer{
		{Title: titleImagenes, Type: model.TypeFileUpload, Value: model.FilesValue([]string{"a1", "a2"})},
		{Title: titleImagenes, Type: model.TypeFileUpload, Value: model.FilesValue([]string{"a3"})},
		{Title: "Adjuntar imágenes (11 a 20)", Type: model.TypeFileUpload, Value: model.FilesValue(nil)},
		choice(catalog.TitleFirstAidRoom, "Sí"),
	})

	require.Len(t, b.Images, 1)
	assert.Equal(t, "{{adjuntarImagenes1a10}}", b.Images[0].Token)
	assert.Equal(t, []string{"a1", "a2", "a3"}, b.Images[0].FileIDs)
	assert.Equal(t, "Sí", b.FirstAidRoom)

	v, ok := b.Value("{{adjuntarImagenes1a10}}")
	require.True(t, ok)
	assert.Equal(t, EmptyValue, v, "image tokens are blanked, images are laid out separately")
}

func TestInvalidItemSkipped(t *testing.T) {
	tr, hook := newTestTransformer(t)

	b := tr.Transform([]model.Answer{
		{Title: "Provincia", Value: model.InvalidValue("bad payload")},
		text("Municipio", "Sevilla"),
		text(titleNoMapping, "ignored"),
	})

	v, _ := b.Value("{{municipio}}")
	assert.Equal(t, "Sevilla", v)
	v, _ = b.Value("{{provincia}}")
	assert.Equal(t, EmptyValue, v)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["title"] == "Provincia" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestReconciliationCoversEveryKnownToken(t *testing.T) {
	tr, _ := newTestTransformer(t)
	c := catalog.Default()

	b := tr.Transform([]model.Answer{
		text("Empresa Visitada", "Acme S.L."),
		choice(titleInstalacion, "No"),
		choice(titleCoordinador, "No"),
		scale(titleBotiquin, 5),
		scale(titleRatingEffort, 2),
		text("Empresa Visitada", "Acme Obras S.L."),
	})

	counts := map[string]int{}
	for _, s := range b.Substitutions {
		counts[s.Token]++
	}
	for _, d := range b.RichDescriptions {
		counts[d.Token]++
	}
	for _, tok := range c.KnownTokens() {
		if b.Hidden.Has(tok) {
			assert.Zero(t, counts[tok], "hidden %s", tok)
			continue
		}
		assert.Equal(t, 1, counts[tok], tok)
	}

	v, _ := b.Value("{{empresaVisitada}}")
	assert.Equal(t, "Acme Obras S.L.", v, "last write wins")
	assert.Equal(t, "{{empresaVisitada}}", b.Substitutions[0].Token, "first position kept")
}

func TestTransformConcurrent(t *testing.T) {
	tr, _ := newTestTransformer(t)
	answers := []model.Answer{
		text("Empresa Visitada", "Acme S.L."),
		scale(titleBotiquin, 2),
		text("Nombre Empresa 1", "Foo S.A."),
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := tr.Transform(answers)
			assert.Equal(t, "Acme S.L.", b.PrimaryCompany)
			assert.Len(t, b.Companies, 1)
		}()
	}
	wg.Wait()
}

func TestStripEmails(t *testing.T) {
	assert.Equal(t, "Jane Doe", StripEmails("Jane Doe, jane@x.com"))
	assert.Equal(t, "Jane Doe", StripEmails("jane@x.com, Jane Doe"))
	assert.Equal(t, "Ana, Luis", StripEmails("Ana, Luis, ana@a.es, luis@b.es"))
	assert.Equal(t, "", StripEmails("solo@correo.com"))
}
