package fees

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// graduationGrades are the final-year grades that pay a graduation fee.
var graduationGrades = []string{
	"9NO",
	"3RO BÁSICO",
	"2DO. AÑO - BÁSICO POR MADUREZ",
	"2DO. AÑO - BASICO POR MADUREZ",
	"5TO BACH EN DISEÑO",
	"5TO BACH EN MECÁNICA",
	"5TO BACH EN ELECTRICIDAD",
	"5TO BACO",
	"5TO BACO COMERCIAL",
	"5TO BACH EN CC Y LL",
	"5TO BACH CON ORIENTACIÓN EN EDUCACIÓN",
	"BACH POR MADUREZ",
	"6TO PCB",
	"6TO PCB EN COMPU",
	"6TO FCB",
	"PREPA",
}

var normalizedGraduationGrades = func() []string {
	out := make([]string, 0, len(graduationGrades))
	for _, g := range graduationGrades {
		out = append(out, NormalizeGrade(g))
	}
	return out
}()

// NormalizeGrade trims, upper-cases with Spanish rules and drops periods,
// so "5to. BACO" and "5TO BACO" compare equal.
func NormalizeGrade(grade string) string {
	// cases.Caser keeps state and is not safe for concurrent use.
	upper := cases.Upper(language.Spanish).String(strings.TrimSpace(grade))
	return strings.ReplaceAll(upper, ".", "")
}

// IsGraduationEligible reports whether grade contains one of the graduating grades.
func IsGraduationEligible(grade string) bool {
	normalized := NormalizeGrade(grade)
	if normalized == "" {
		return false
	}
	for _, candidate := range normalizedGraduationGrades {
		if strings.Contains(normalized, candidate) {
			return true
		}
	}
	return false
}
