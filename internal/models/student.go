package models

import "strings"

// StudentKind distinguishes regular grade students from course-only students.
type StudentKind string

// Student kinds accepted by the backend.
const (
	StudentKindRegular StudentKind = "REGULAR"
	StudentKindCourse  StudentKind = "CURSO"
)

// Modalities and shifts offered by the school.
const (
	ModalityDaily   = "Diario"
	ModalityWeekend = "Fin de semana"
	ModalityCourse  = "Curso extra"

	ShiftMorning   = "Matutina"
	ShiftAfternoon = "Vespertina"
	ShiftFull      = "Completa"
)

// ExtraCourse is an extracurricular course from the course catalog.
type ExtraCourse struct {
	ID          FlexString `json:"id"`
	Name        string     `json:"nombre"`
	Description string     `json:"descripcion,omitempty"`
}

// Student mirrors the student resource of the school backend.
type Student struct {
	ID            FlexString   `json:"id"`
	FirstName     string       `json:"nombre"`
	LastName      string       `json:"apellidos"`
	BirthDate     string       `json:"fecha_nacimiento,omitempty"`
	Phone         string       `json:"telefono_estudiante,omitempty"`
	GuardianName  string       `json:"nombre_encargado,omitempty"`
	GuardianPhone string       `json:"telefono_encargado,omitempty"`
	Grade         string       `json:"grado,omitempty"`
	Shift         string       `json:"jornada,omitempty"`
	Modality      string       `json:"modalidad,omitempty"`
	Kind          StudentKind  `json:"tipo_estudiante,omitempty"`
	ExtraCourseID FlexString   `json:"curso_extra_id,omitempty"`
	ExtraCourse   *ExtraCourse `json:"extra_courses,omitempty"`
	Status        string       `json:"estado,omitempty"`
	RegisteredAt  string       `json:"fecha_registro,omitempty"`
}

// FullName joins first and last names.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// HasExtraCourse reports whether the student is linked to an extracurricular course.
func (s Student) HasExtraCourse() bool {
	return s.ExtraCourseID != ""
}

// CourseName returns the linked course name when the backend embedded it.
func (s Student) CourseName() string {
	if s.ExtraCourse == nil {
		return ""
	}
	return s.ExtraCourse.Name
}

// StudentInput is the create/update payload sent to the backend.
type StudentInput struct {
	FirstName     string      `json:"nombre"`
	LastName      string      `json:"apellidos"`
	BirthDate     string      `json:"fecha_nacimiento"`
	Phone         string      `json:"telefono_estudiante"`
	GuardianName  string      `json:"nombre_encargado"`
	GuardianPhone string      `json:"telefono_encargado"`
	Grade         string      `json:"grado"`
	Shift         string      `json:"jornada"`
	Modality      string      `json:"modalidad"`
	Kind          StudentKind `json:"tipo_estudiante"`
	ExtraCourseID *string     `json:"curso_extra_id"`
	Status        string      `json:"estado,omitempty"`
}

// StudentFilter narrows the roster. Empty fields match everything.
type StudentFilter struct {
	Search   string
	Grade    string
	Shift    string
	Modality string
}

// StudentFilterOptions lists the values the cascading roster filters can take.
type StudentFilterOptions struct {
	Modalities []string `json:"modalidades"`
	Shifts     []string `json:"jornadas"`
	Grades     []string `json:"grados"`
}
