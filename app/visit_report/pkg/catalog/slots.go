package catalog

import (
	"fmt"
	"strings"
)

// AddCompanyPrefix titles of the "add another company" section switches
const AddCompanyPrefix = "Añadir Empresa"

// SlotTitles question titles of one company slot
type SlotTitles struct {
	Index            int
	Name             string
	TaxID            string
	ContactPerson    string
	ContactRole      string
	ContactEmail     string
	InterventionRole string
	WorkScope        string
}

// Titles returns the seven field titles of the slot
func (s SlotTitles) Titles() []string {
	return []string{s.Name, s.TaxID, s.ContactPerson, s.ContactRole, s.ContactEmail, s.InterventionRole, s.WorkScope}
}

// Slot returns the question titles of company slot i (1-based)
func Slot(i int) SlotTitles {
	return SlotTitles{
		Index:            i,
		Name:             fmt.Sprintf("Nombre Empresa %d", i),
		TaxID:            fmt.Sprintf("CIF Empresa %d", i),
		ContactPerson:    fmt.Sprintf("Persona Contacto Empresa %d", i),
		ContactRole:      fmt.Sprintf("Cargo contacto Empresa %d", i),
		ContactEmail:     fmt.Sprintf("Correo Electrónico Contacto Empresa %d", i),
		InterventionRole: fmt.Sprintf("La empresa %d interviene como", i),
		WorkScope:        fmt.Sprintf("Qué trabajos está ejecutando la empresa %d?", i),
	}
}

// IsAddCompany reports whether title is one of the "Añadir Empresa N" switches
func IsAddCompany(title string) bool {
	return strings.HasPrefix(title, AddCompanyPrefix)
}

func slotPlaceholders(n int) []Placeholder {
	out := make([]Placeholder, 0, n*8)
	for i := 1; i <= n; i++ {
		s := Slot(i)
		out = append(out,
			Placeholder{Title: s.Name, Token: fmt.Sprintf("{{nombreEmpresa%d}}", i)},
			Placeholder{Title: s.TaxID, Token: fmt.Sprintf("{{cifEmpresa%d}}", i)},
			Placeholder{Title: s.ContactPerson, Token: fmt.Sprintf("{{contactoEmpresa%d}}", i)},
			Placeholder{Title: s.ContactRole, Token: fmt.Sprintf("{{cargoContactoEmpresa%d}}", i)},
			Placeholder{Title: s.ContactEmail, Token: fmt.Sprintf("{{emailEmpresa%d}}", i)},
			Placeholder{Title: s.InterventionRole, Token: fmt.Sprintf("{{intervencionEmpresa%d}}", i)},
			Placeholder{Title: s.WorkScope, Token: fmt.Sprintf("{{trabajosEmpresa%d}}", i)},
		)
		if i < n {
			out = append(out, Placeholder{
				Title: fmt.Sprintf("%s %d", AddCompanyPrefix, i+1),
				Token: fmt.Sprintf("{{anadirEmpresa%d}}", i+1),
			})
		}
	}
	return out
}
