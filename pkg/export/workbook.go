package export

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/cetinnova/registro-escolar/internal/models"
)

// SheetAll is the name of the first worksheet of the roster workbook.
const SheetAll = "Todos los Estudiantes"

const maxSheetName = 31

var sheetNameReplacer = strings.NewReplacer(`\`, "", "/", "", "*", "", "?", "", ":", "", "[", "", "]", "")

// WorkbookExporter renders the student roster into an xlsx workbook with
// one sheet for everyone plus sheets per grade, shift and modality.
type WorkbookExporter struct{}

// NewWorkbookExporter constructs the exporter.
func NewWorkbookExporter() *WorkbookExporter {
	return &WorkbookExporter{}
}

// RosterFilename names the workbook after the export date.
func RosterFilename(now time.Time) string {
	return fmt.Sprintf("Reporte_Estudiantes_%s.xlsx", now.Format("02-01-2006"))
}

// Render builds the workbook. Callers must reject empty rosters beforehand.
func (e *WorkbookExporter) Render(students []models.Student) ([]byte, error) {
	if len(students) == 0 {
		return nil, fmt.Errorf("workbook requires at least one student")
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	names := newSheetNamer()
	all := RosterDataset(students)
	if err := f.SetSheetName("Sheet1", names.take(SheetAll)); err != nil {
		return nil, fmt.Errorf("rename first sheet: %w", err)
	}
	if err := writeSheet(f, SheetAll, all, header); err != nil {
		return nil, err
	}

	byGrade := groupBy(students, func(s models.Student) string { return s.Grade })
	grades := append([]string(nil), byGrade.order...)
	sort.Strings(grades)
	for _, grade := range grades {
		if err := addSheet(f, names.take(orDefault(grade, "Sin grado")), gradeDataset(byGrade.groups[grade]), header); err != nil {
			return nil, err
		}
	}

	byShift := groupBy(students, func(s models.Student) string { return s.Shift })
	for _, shift := range byShift.order {
		if err := addSheet(f, names.take("Jornada "+orDefault(shift, "N/A")), shiftDataset(byShift.groups[shift]), header); err != nil {
			return nil, err
		}
	}

	byModality := groupBy(students, func(s models.Student) string { return s.Modality })
	for _, modality := range byModality.order {
		if err := addSheet(f, names.take(orDefault(modality, "Sin modalidad")), modalityDataset(byModality.groups[modality]), header); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func addSheet(f *excelize.File, name string, data Dataset, header int) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %q: %w", name, err)
	}
	return writeSheet(f, name, data, header)
}

func writeSheet(f *excelize.File, sheet string, data Dataset, header int) error {
	headerRow := make([]interface{}, len(data.Headers))
	for i, h := range data.Headers {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("write header of %q: %w", sheet, err)
	}
	for i, row := range data.Rows {
		values := make([]interface{}, len(data.Headers))
		for j, h := range data.Headers {
			if h == "No." {
				values[j] = i + 1
				continue
			}
			values[j] = row[h]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d of %q: %w", i+1, sheet, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(data.Headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", header); err != nil {
		return fmt.Errorf("style header of %q: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 6); err != nil {
		return err
	}
	if len(data.Headers) > 1 {
		if err := f.SetColWidth(sheet, "B", last, 22); err != nil {
			return err
		}
	}
	return nil
}

type grouped struct {
	order  []string
	groups map[string][]models.Student
}

// groupBy keeps keys in first-seen order.
func groupBy(students []models.Student, key func(models.Student) string) grouped {
	g := grouped{groups: map[string][]models.Student{}}
	for _, st := range students {
		k := key(st)
		if _, ok := g.groups[k]; !ok {
			g.order = append(g.order, k)
		}
		g.groups[k] = append(g.groups[k], st)
	}
	return g
}

func gradeDataset(students []models.Student) Dataset {
	rows := make([]map[string]string, 0, len(students))
	for i, st := range students {
		rows = append(rows, map[string]string{
			"No.":                strconv.Itoa(i + 1),
			"Nombre":             st.FirstName,
			"Apellidos":          st.LastName,
			"Fecha Nacimiento":   FormatShortDate(st.BirthDate),
			"Jornada":            st.Shift,
			"Modalidad":          st.Modality,
			"Nombre Encargado":   st.GuardianName,
			"Teléfono Encargado": st.GuardianPhone,
			"Estado":             st.Status,
		})
	}
	return Dataset{Headers: rosterGradeHeaders, Rows: rows}
}

func shiftDataset(students []models.Student) Dataset {
	rows := make([]map[string]string, 0, len(students))
	for i, st := range students {
		rows = append(rows, map[string]string{
			"No.":             strconv.Itoa(i + 1),
			"Nombre Completo": st.FullName(),
			"Grado":           st.Grade,
			"Modalidad":       st.Modality,
			"Encargado":       st.GuardianName,
			"Teléfono":        st.GuardianPhone,
		})
	}
	return Dataset{Headers: rosterShiftHeaders, Rows: rows}
}

func modalityDataset(students []models.Student) Dataset {
	rows := make([]map[string]string, 0, len(students))
	for i, st := range students {
		rows = append(rows, map[string]string{
			"No.":             strconv.Itoa(i + 1),
			"Nombre Completo": st.FullName(),
			"Grado":           st.Grade,
			"Jornada":         st.Shift,
			"Encargado":       st.GuardianName,
			"Teléfono":        st.GuardianPhone,
		})
	}
	return Dataset{Headers: rosterModalityHeaders, Rows: rows}
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// sheetNamer hands out valid, unique worksheet names. Excel compares names
// case-insensitively.
type sheetNamer struct {
	used map[string]struct{}
}

func newSheetNamer() *sheetNamer {
	return &sheetNamer{used: map[string]struct{}{}}
}

// SanitizeSheetName strips characters Excel forbids and truncates to 31 characters.
func SanitizeSheetName(name string) string {
	clean := strings.TrimSpace(sheetNameReplacer.Replace(name))
	if clean == "" {
		clean = "Hoja"
	}
	return truncateRunes(clean, maxSheetName)
}

func (n *sheetNamer) take(name string) string {
	base := SanitizeSheetName(name)
	candidate := base
	for i := 2; ; i++ {
		key := strings.ToLower(candidate)
		if _, taken := n.used[key]; !taken {
			n.used[key] = struct{}{}
			return candidate
		}
		suffix := fmt.Sprintf(" (%d)", i)
		candidate = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
