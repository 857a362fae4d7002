package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/cetinnova/registro-escolar/internal/models"
)

// Roster column headers.
var (
	rosterAllHeaders = []string{
		"No.", "Nombre", "Apellidos", "Fecha Nacimiento", "Grado", "Jornada", "Modalidad",
		"Nombre Encargado", "Teléfono Encargado", "Estado", "Fecha Registro",
	}
	rosterGradeHeaders = []string{
		"No.", "Nombre", "Apellidos", "Fecha Nacimiento", "Jornada", "Modalidad",
		"Nombre Encargado", "Teléfono Encargado", "Estado",
	}
	rosterShiftHeaders    = []string{"No.", "Nombre Completo", "Grado", "Modalidad", "Encargado", "Teléfono"}
	rosterModalityHeaders = []string{"No.", "Nombre Completo", "Grado", "Jornada", "Encargado", "Teléfono"}
)

// RosterDataset flattens students into the "Todos los Estudiantes" layout.
func RosterDataset(students []models.Student) Dataset {
	rows := make([]map[string]string, 0, len(students))
	for i, st := range students {
		rows = append(rows, map[string]string{
			"No.":                strconv.Itoa(i + 1),
			"Nombre":             st.FirstName,
			"Apellidos":          st.LastName,
			"Fecha Nacimiento":   FormatShortDate(st.BirthDate),
			"Grado":              st.Grade,
			"Jornada":            st.Shift,
			"Modalidad":          st.Modality,
			"Nombre Encargado":   st.GuardianName,
			"Teléfono Encargado": st.GuardianPhone,
			"Estado":             st.Status,
			"Fecha Registro":     FormatShortDate(st.RegisteredAt),
		})
	}
	return Dataset{Headers: rosterAllHeaders, Rows: rows}
}

// FormatShortDate turns backend dates (RFC 3339 or YYYY-MM-DD) into dd/mm/yyyy.
// Empty values print as "-" and unknown layouts are returned unchanged.
func FormatShortDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "-"
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return raw
}
