package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/cetinnova/registro-escolar/internal/fees"
	"github.com/cetinnova/registro-escolar/internal/models"
)

// CategoryView is the state of one flat-fee category.
type CategoryView struct {
	Category models.FeeCategory `json:"category"`
	Label    string             `json:"label"`
	State    fees.State         `json:"state"`
	Balance  *fees.Balance      `json:"balance,omitempty"`
}

// MonthOption is a month the operator can still pay.
type MonthOption struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TuitionView lists paid and payable tuition months.
type TuitionView struct {
	Payments  []models.TuitionPayment `json:"payments"`
	Available []MonthOption           `json:"available"`
}

// CourseView lists paid and payable course months.
type CourseView struct {
	Enrolled  bool                   `json:"enrolled"`
	Course    string                 `json:"course,omitempty"`
	Payments  []models.CoursePayment `json:"payments"`
	Available []MonthOption          `json:"available"`
	TotalPaid decimal.Decimal        `json:"total_paid"`
}

// GraduationView is the graduation state shown to the operator.
type GraduationView struct {
	Eligible bool          `json:"eligible"`
	State    fees.State    `json:"state"`
	Balance  *fees.Balance `json:"balance,omitempty"`
}

// View is a consistent copy of the ledger state.
type View struct {
	Student    models.Student `json:"student"`
	Categories []CategoryView `json:"categories"`
	Tuition    TuitionView    `json:"tuition"`
	Course     CourseView     `json:"course"`
	Graduation GraduationView `json:"graduation"`
	Busy       bool           `json:"busy"`
}

// View snapshots the selected student's payment state. ok is false when
// nothing has been selected yet.
func (l *Ledger) View() (View, bool) {
	busy := l.Busy()

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.student == nil {
		return View{}, false
	}

	view := View{Student: *l.student, Busy: busy}

	for _, category := range models.FlatFeeCategories {
		cv := CategoryView{Category: category, Label: category.Label(), State: fees.StateNoRecord}
		if balance, ok := l.flat[category]; ok {
			b := balance
			cv.Balance = &b
			cv.State = fees.StateOf(&b)
		}
		view.Categories = append(view.Categories, cv)
	}

	view.Tuition.Payments = append([]models.TuitionPayment(nil), l.tuition...)
	for _, m := range fees.AvailableMonths(fees.TuitionMonths, l.paidTuitionLocked()) {
		view.Tuition.Available = append(view.Tuition.Available, MonthOption{ID: int(m), Name: m.String()})
	}

	if l.student.HasExtraCourse() {
		view.Course.Enrolled = true
		view.Course.Course = l.student.CourseName()
		view.Course.Payments = append([]models.CoursePayment(nil), l.coursePayments...)
		sort.SliceStable(view.Course.Payments, func(i, j int) bool {
			return view.Course.Payments[i].MonthID < view.Course.Payments[j].MonthID
		})
		paid := l.paidCourseLocked()
		names := make(map[fees.Month]string, len(l.courseMonths))
		for _, m := range l.courseMonths {
			names[fees.Month(m.ID)] = m.Name
		}
		for _, m := range fees.AvailableMonths(monthsOf(l.courseMonths), paid) {
			name := names[m]
			if name == "" {
				name = m.String()
			}
			view.Course.Available = append(view.Course.Available, MonthOption{ID: int(m), Name: name})
		}
		total := decimal.Zero
		for _, p := range l.coursePayments {
			total = total.Add(p.Total())
		}
		view.Course.TotalPaid = total
	}

	view.Graduation = GraduationView{Eligible: l.graduation.Eligible, State: fees.StateOf(l.graduation.Balance)}
	if l.graduation.Balance != nil {
		b := *l.graduation.Balance
		view.Graduation.Balance = &b
	}

	return view, true
}

// PaidTuitionMonths returns the months present in the tuition history.
func (l *Ledger) PaidTuitionMonths() []fees.Month {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.paidTuitionLocked()
}

// PaidCourseMonths returns the months present in the course history.
func (l *Ledger) PaidCourseMonths() []fees.Month {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.paidCourseLocked()
}

func (l *Ledger) paidTuitionLocked() []fees.Month {
	months := make([]fees.Month, 0, len(l.tuition))
	for _, p := range l.tuition {
		if m, err := fees.ParseMonthName(p.Month); err == nil {
			months = append(months, m)
		}
	}
	return months
}

func (l *Ledger) paidCourseLocked() []fees.Month {
	months := make([]fees.Month, 0, len(l.coursePayments))
	for _, p := range l.coursePayments {
		if m, err := fees.MonthFromID(p.MonthID); err == nil {
			months = append(months, m)
		}
	}
	return months
}
