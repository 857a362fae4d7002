package service

import "github.com/cetinnova/registro-escolar/internal/models"

var (
	gradesMorning = []string{
		"Kinder", "Prepa", "1ro Primaria", "2do Primaria", "3ro Primaria",
		"7mo", "8vo", "9no", "4to BACO", "5to BACO", "4to PCB", "5to PCB", "6to PCB",
	}
	gradesAfternoon = []string{
		"4to. BACH en Diseño", "4to. BACH en Mecánica", "4to. BACH en Electricidad",
		"4to. PCB", "4to Magisterio Infantil",
		"5to. BACH en Diseño", "5to. BACH en Mecánica", "5to. BACH en Electricidad", "5to. PCB",
	}
	gradesWeekend = []string{
		"1ro. Basico", "2do. Básico", "3ro. Básico",
		"1er. Año - Básico por Madurez", "2do. Año - Basico por Madurez",
		"4to. BACO Comercial", "5to. BACO Comercial",
		"4to. PCB en Compu", "5to. PCB en Compu", "6to. PCB en Compu",
		"BACH por Madurez",
	}
)

// RegistrationCatalog lists the values the registration form offers.
type RegistrationCatalog struct {
	Modalities []string            `json:"modalidades"`
	Shifts     []string            `json:"jornadas"`
	Kinds      []string            `json:"tipos_estudiante"`
	Grades     map[string][]string `json:"grados"`
}

// Catalog returns the registration catalogue. Grades are keyed by "modalidad/jornada".
func Catalog() RegistrationCatalog {
	return RegistrationCatalog{
		Modalities: []string{models.ModalityDaily, models.ModalityWeekend, models.ModalityCourse},
		Shifts:     []string{models.ShiftMorning, models.ShiftAfternoon},
		Kinds:      []string{string(models.StudentKindRegular), string(models.StudentKindCourse)},
		Grades: map[string][]string{
			models.ModalityDaily + "/" + models.ShiftMorning:   append([]string(nil), gradesMorning...),
			models.ModalityDaily + "/" + models.ShiftAfternoon: append([]string(nil), gradesAfternoon...),
			models.ModalityWeekend + "/" + models.ShiftFull:    append([]string(nil), gradesWeekend...),
		},
	}
}

// GradesFor returns the grades offered for a modality and shift.
func GradesFor(modality, shift string) []string {
	switch modality {
	case models.ModalityWeekend:
		return gradesWeekend
	case models.ModalityDaily:
		switch shift {
		case models.ShiftMorning:
			return gradesMorning
		case models.ShiftAfternoon:
			return gradesAfternoon
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
