package document

import (
	"strings"
	"time"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/model"
)

// FileDateLayout date part of report names
const FileDateLayout = "2006-01-02"

var unsafeName = strings.NewReplacer("/", "-", "\\", "-", ":", "-", "\x00", "")

// FileName "Informe Visita - <company> - <yyyy-MM-dd>" using the visit date,
// or now when the visit date is unknown, in loc
func FileName(b *model.ReportBundle, loc *time.Location, now time.Time) string {
	if loc == nil {
		loc = time.UTC
	}
	company := strings.TrimSpace(b.PrimaryCompany)
	if company == "" {
		company = model.DefaultCompanyName
	}
	day := now
	if b.VisitDate != nil {
		day = *b.VisitDate
	}
	return unsafeName.Replace("Informe Visita - " + company + " - " + day.In(loc).Format(FileDateLayout))
}
