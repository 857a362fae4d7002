package service

import (
	"context"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cetinnova/registro-escolar/internal/models"
	appErrors "github.com/cetinnova/registro-escolar/pkg/errors"
)

// StudentBackend is the student part of the school backend.
type StudentBackend interface {
	ListStudents(ctx context.Context) ([]models.Student, error)
	GetStudent(ctx context.Context, id string) (*models.Student, error)
	CreateStudent(ctx context.Context, input models.StudentInput) (*models.Student, error)
	UpdateStudent(ctx context.Context, id string, input models.StudentInput) (*models.Student, error)
	DeleteStudent(ctx context.Context, id string) error
}

// StudentRequest holds the registration and edit form payload.
type StudentRequest struct {
	FirstName     string `json:"nombre" validate:"required"`
	LastName      string `json:"apellidos" validate:"required"`
	BirthDate     string `json:"fecha_nacimiento" validate:"required"`
	Phone         string `json:"telefono_estudiante"`
	GuardianName  string `json:"nombre_encargado" validate:"required"`
	GuardianPhone string `json:"telefono_encargado" validate:"required"`
	Grade         string `json:"grado"`
	Shift         string `json:"jornada"`
	Modality      string `json:"modalidad" validate:"required,oneof='Diario' 'Fin de semana' 'Curso extra'"`
	Kind          string `json:"tipo_estudiante" validate:"omitempty,oneof=REGULAR CURSO"`
	ExtraCourseID string `json:"curso_extra_id"`
	Status        string `json:"estado"`
}

// StudentService handles registration and roster use-cases.
type StudentService struct {
	backend   StudentBackend
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(backend StudentBackend, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{backend: backend, validator: validate, logger: logger}
}

// List returns the students matching filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	students, err := s.backend.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	return FilterStudents(students, filter), nil
}

// Options returns the cascading roster filter values. Shifts depend on the
// chosen modality and grades on both modality and shift.
func (s *StudentService) Options(ctx context.Context, modality, shift string) (*models.StudentFilterOptions, error) {
	students, err := s.backend.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	opts := FilterOptions(students, modality, shift)
	return &opts, nil
}

// Get loads one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "estudiante no encontrado")
	}
	return s.backend.GetStudent(ctx, id)
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.Student, error) {
	input, err := s.validate(req, true)
	if err != nil {
		return nil, err
	}
	student, err := s.backend.CreateStudent(ctx, input)
	if err != nil {
		return nil, err
	}
	s.logger.Info("student registered", zap.String("student_id", student.ID.String()), zap.String("kind", string(input.Kind)))
	return student, nil
}

// Update edits an existing student.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*models.Student, error) {
	input, err := s.validate(req, false)
	if err != nil {
		return nil, err
	}
	return s.backend.UpdateStudent(ctx, id, input)
}

// Delete deactivates a student.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if err := s.backend.DeleteStudent(ctx, id); err != nil {
		return err
	}
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}

// validate applies the registration form rules. Grade membership in the
// catalogue is only enforced for new registrations; older records may carry
// grade names that are no longer offered.
func (s *StudentService) validate(req StudentRequest, strictGrade bool) (models.StudentInput, error) {
	req = trimRequest(req)
	if err := s.validator.Struct(req); err != nil {
		return models.StudentInput{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Por favor completa todos los campos")
	}

	kind := models.StudentKind(req.Kind)
	if kind == "" {
		kind = models.StudentKindRegular
	}
	if req.Modality == models.ModalityWeekend {
		req.Shift = models.ShiftFull
	}
	if req.Shift == "" {
		return models.StudentInput{}, appErrors.Validation("Por favor completa todos los campos")
	}

	switch kind {
	case models.StudentKindCourse:
		if req.ExtraCourseID == "" {
			return models.StudentInput{}, appErrors.Validation("Por favor selecciona un curso extra")
		}
		req.Grade = ""
	default:
		if req.Grade == "" {
			return models.StudentInput{}, appErrors.Validation("Por favor selecciona el grado")
		}
		if strictGrade && !contains(GradesFor(req.Modality, req.Shift), req.Grade) {
			return models.StudentInput{}, appErrors.Validation("El grado no corresponde a la modalidad y jornada seleccionadas")
		}
	}

	input := models.StudentInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		BirthDate:     req.BirthDate,
		Phone:         req.Phone,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
		Grade:         req.Grade,
		Shift:         req.Shift,
		Modality:      req.Modality,
		Kind:          kind,
		Status:        req.Status,
	}
	if req.ExtraCourseID != "" {
		id := req.ExtraCourseID
		input.ExtraCourseID = &id
	}
	return input, nil
}

func trimRequest(req StudentRequest) StudentRequest {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.BirthDate = strings.TrimSpace(req.BirthDate)
	req.Phone = strings.TrimSpace(req.Phone)
	req.GuardianName = strings.TrimSpace(req.GuardianName)
	req.GuardianPhone = strings.TrimSpace(req.GuardianPhone)
	req.Grade = strings.TrimSpace(req.Grade)
	req.Shift = strings.TrimSpace(req.Shift)
	req.Modality = strings.TrimSpace(req.Modality)
	req.Kind = strings.ToUpper(strings.TrimSpace(req.Kind))
	req.ExtraCourseID = strings.TrimSpace(req.ExtraCourseID)
	return req
}

// FilterStudents applies the roster search box and the three exact-match filters.
func FilterStudents(students []models.Student, filter models.StudentFilter) []models.Student {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := make([]models.Student, 0, len(students))
	for _, st := range students {
		if search != "" &&
			!strings.Contains(strings.ToLower(st.FirstName), search) &&
			!strings.Contains(strings.ToLower(st.LastName), search) {
			continue
		}
		if filter.Grade != "" && st.Grade != filter.Grade {
			continue
		}
		if filter.Shift != "" && st.Shift != filter.Shift {
			continue
		}
		if filter.Modality != "" && st.Modality != filter.Modality {
			continue
		}
		result = append(result, st)
	}
	return result
}

// FilterOptions derives the distinct, sorted, non-empty filter values.
func FilterOptions(students []models.Student, modality, shift string) models.StudentFilterOptions {
	modalities := map[string]struct{}{}
	shifts := map[string]struct{}{}
	grades := map[string]struct{}{}
	for _, st := range students {
		addNonEmpty(modalities, st.Modality)
		if modality != "" && st.Modality != modality {
			continue
		}
		addNonEmpty(shifts, st.Shift)
		if shift != "" && st.Shift != shift {
			continue
		}
		addNonEmpty(grades, st.Grade)
	}
	return models.StudentFilterOptions{
		Modalities: sortedKeys(modalities),
		Shifts:     sortedKeys(shifts),
		Grades:     sortedKeys(grades),
	}
}

func addNonEmpty(set map[string]struct{}, v string) {
	if v = strings.TrimSpace(v); v != "" {
		set[v] = struct{}{}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
