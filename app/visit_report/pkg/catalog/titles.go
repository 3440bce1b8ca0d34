package catalog

// Questions with behaviour beyond the generic title -> token mapping.
const (
	TitlePrimaryCompany   = "Empresa Visitada"
	TitleVisitDate        = "Fecha Visita"
	TitlePrincipalVisitor = "Visitador Principal"
	TitleCompanions       = "Acompañantes"
	TitleExtraEmail       = "Correo Adicional (Opcional):"
	TitleFirstAidRoom     = "Se dispone de local de primeros auxilios (en obras con más de 50 trabajadores)"
	TitleRequiredPPE      = "¿Equipos de Protección Individuales (EPI) necesarios según la actividad?"
	TitleRiskSignage      = "¿Existen señales para riesgos específicos en el lugar de trabajo concreto?"
)

// InlineListTitles multi-select questions rendered as a comma separated line
var InlineListTitles = map[string]bool{
	TitlePrincipalVisitor: true,
	TitleRiskSignage:      true,
}

// EmailSourceTitles free text questions scanned for recipient addresses
var EmailSourceTitles = map[string]bool{
	TitleCompanions: true,
	TitleExtraEmail: true,
}
