package model

import "strings"

// Column names shared by the SQL schema and the Mongo document layout.
const (
	ColUsername         = "username"
	ColEmail            = "email"
	ColAge              = "age"
	ColGoal             = "goal"
	ColRiskTolerance    = "risk_tolerance"
	ColWorkType         = "work_type"
	ColDocumentKey      = "document_key"
	ColName             = "name"
	ColPAN              = "pan"
	ColAddress          = "address"
	ColContact          = "contact"
	ColSalaryIncome     = "salary_income"
	ColBusinessTurnover = "business_turnover"
	ColIncomeMode       = "income_mode"
	ColDeduction80C     = "deduction_80c"
	ColDeduction80D     = "deduction_80d"
	ColTaxableIncome    = "taxable_income"
	ColTotalTaxPayable  = "total_tax_payable"
	ColTDSDeducted      = "tds_deducted"
	ColRefundDue        = "refund_due"
)

// FieldValue is one column assignment of a ProfileUpdate.
type FieldValue struct {
	Column string
	Value  string
}

// ProfileUpdate is a partial update of a User. Nil and blank values mean
// "leave unchanged"; they are never written.
type ProfileUpdate struct {
	Username    *string
	Email       *string
	Profile     Profile
	Document    ExtractedFields
	DocumentKey *string
}

// Fields lists the assignments carried by u in a fixed column order,
// skipping nil and blank values.
func (u ProfileUpdate) Fields() []FieldValue {
	var out []FieldValue
	add := func(col string, v *string) {
		if v == nil || strings.TrimSpace(*v) == "" {
			return
		}
		out = append(out, FieldValue{Column: col, Value: *v})
	}

	add(ColUsername, u.Username)
	add(ColEmail, u.Email)
	add(ColAge, u.Profile.Age)
	add(ColGoal, u.Profile.Goal)
	add(ColRiskTolerance, u.Profile.RiskTolerance)
	add(ColWorkType, u.Profile.WorkType)
	add(ColDocumentKey, u.DocumentKey)
	doc := u.Document
	for _, col := range DocumentColumns {
		add(col, *doc.Field(col))
	}
	return out
}

// IsEmpty reports whether applying u would change nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return len(u.Fields()) == 0
}

// NonEmpty returns nil for blank strings so optional form values can be
// carried as *string without smuggling empties into an update.
func NonEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
