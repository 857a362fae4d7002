package fees

import (
	"fmt"
	"strings"
)

// Month is the canonical month number (1-12) shared by tuition and course flows.
type Month int

var monthNames = [...]string{
	"ENERO", "FEBRERO", "MARZO", "ABRIL", "MAYO", "JUNIO",
	"JULIO", "AGOSTO", "SEPTIEMBRE", "OCTUBRE", "NOVIEMBRE", "DICIEMBRE",
}

// TuitionMonths are the months offered by the tuition picker.
var TuitionMonths = []Month{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

// ParseMonthName maps a Spanish month name to its number. Matching ignores case and surrounding spaces.
func ParseMonthName(name string) (Month, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, candidate := range monthNames {
		if candidate == upper {
			return Month(i + 1), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMonth, name)
}

// MonthFromID validates a numeric month id coming from the course month catalogue.
func MonthFromID(id int) (Month, error) {
	m := Month(id)
	if !m.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidMonth, id)
	}
	return m, nil
}

// Valid reports whether m is between 1 and 12.
func (m Month) Valid() bool {
	return m >= 1 && m <= 12
}

// String returns the uppercase Spanish name used by the backend.
func (m Month) String() string {
	if !m.Valid() {
		return fmt.Sprintf("MES(%d)", int(m))
	}
	return monthNames[m-1]
}

// Title returns the capitalised name printed on receipts ("Marzo").
func (m Month) Title() string {
	name := m.String()
	if !m.Valid() {
		return name
	}
	return name[:1] + strings.ToLower(name[1:])
}
