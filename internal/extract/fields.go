// Package extract turns the plain text of an ITR document into structured
// profile fields.
package extract

import (
	"regexp"
	"strings"

	"finassist/internal/model"
)

type normalizer func(string) string

// fieldSpec binds one document field to the pattern that captures it.
// The first capture group holds the raw value.
type fieldSpec struct {
	column    string
	pattern   *regexp.Regexp
	normalize normalizer
}

// Patterns are compiled by the RE2 engine, so matching is linear in the
// input length whatever the text looks like. RE2's \w and \d are ASCII only;
// word and digit classes are spelled with Unicode categories so names and
// figures in any script are captured whole.
var fieldTable = []fieldSpec{
	{model.ColName, regexp.MustCompile(`Name:\s*([\p{L}\p{M}\p{N}_ ]+)`), strings.TrimSpace},
	{model.ColPAN, regexp.MustCompile(`PAN:\s*([\p{L}\p{M}\p{N}_]+)`), keep},
	{model.ColAddress, regexp.MustCompile(`Address:\s*(.+)`), strings.TrimSpace},
	{model.ColContact, regexp.MustCompile(`Contact:\s*(\p{Nd}+)`), keep},
	{model.ColSalaryIncome, amount(`Salary Income:\s*`), stripSeparators},
	{model.ColBusinessTurnover, amount(`Business Turnover:\s*`), stripSeparators},
	{model.ColDeduction80C, amount(`80C.*?:\s*`), stripSeparators},
	{model.ColDeduction80D, amount(`80D.*?:\s*`), stripSeparators},
	{model.ColTaxableIncome, amount(`Taxable Income:\s*`), stripSeparators},
	{model.ColTotalTaxPayable, amount(`Total Tax Payable:\s*`), stripSeparators},
	{model.ColTDSDeducted, amount(`TDS Deducted:\s*`), stripSeparators},
	{model.ColRefundDue, amount(`Refund Due:\s*`), stripSeparators},
}

// amount compiles label followed by a rupee figure such as "Rs.1,50,000".
func amount(label string) *regexp.Regexp {
	return regexp.MustCompile(label + `Rs\.([\p{Nd},]+)`)
}

func keep(s string) string { return s }

func stripSeparators(s string) string {
	return strings.ReplaceAll(s, ",", "")
}

// Parse extracts every known field from text and derives the income mode.
// Each field is matched independently; a field that does not match, or whose
// value normalizes to nothing, is left nil. Parse never fails.
func Parse(text string) model.ExtractedFields {
	var out model.ExtractedFields
	for _, fs := range fieldTable {
		m := fs.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v := fs.normalize(m[1])
		if v == "" {
			continue
		}
		*out.Field(fs.column) = &v
	}
	mode := ClassifyIncome(out)
	out.IncomeMode = &mode
	return out
}
