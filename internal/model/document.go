package model

// Income modes derived from extracted document fields.
const (
	IncomeSalary   = "salary"
	IncomeBusiness = "business"
	IncomeUnknown  = "unknown"
)

// ExtractedFields is the structured view of an ITR document.
// Absent values stay nil and serialize as null.
type ExtractedFields struct {
	Name             *string `json:"name"`
	PAN              *string `json:"pan"`
	Address          *string `json:"address"`
	Contact          *string `json:"contact"`
	SalaryIncome     *string `json:"salary_income"`
	BusinessTurnover *string `json:"business_turnover"`
	IncomeMode       *string `json:"income_mode"`
	Deduction80C     *string `json:"deduction_80C"`
	Deduction80D     *string `json:"deduction_80D"`
	TaxableIncome    *string `json:"taxable_income"`
	TotalTaxPayable  *string `json:"total_tax_payable"`
	TDSDeducted      *string `json:"tds_deducted"`
	RefundDue        *string `json:"refund_due"`
}

// Field returns a pointer to the slot backing the given column, or nil when
// the column is not a document field.
func (e *ExtractedFields) Field(col string) **string {
	switch col {
	case ColName:
		return &e.Name
	case ColPAN:
		return &e.PAN
	case ColAddress:
		return &e.Address
	case ColContact:
		return &e.Contact
	case ColSalaryIncome:
		return &e.SalaryIncome
	case ColBusinessTurnover:
		return &e.BusinessTurnover
	case ColIncomeMode:
		return &e.IncomeMode
	case ColDeduction80C:
		return &e.Deduction80C
	case ColDeduction80D:
		return &e.Deduction80D
	case ColTaxableIncome:
		return &e.TaxableIncome
	case ColTotalTaxPayable:
		return &e.TotalTaxPayable
	case ColTDSDeducted:
		return &e.TDSDeducted
	case ColRefundDue:
		return &e.RefundDue
	}
	return nil
}

// DocumentColumns lists the document fields in storage order.
var DocumentColumns = []string{
	ColName, ColPAN, ColAddress, ColContact,
	ColSalaryIncome, ColBusinessTurnover, ColIncomeMode,
	ColDeduction80C, ColDeduction80D,
	ColTaxableIncome, ColTotalTaxPayable, ColTDSDeducted, ColRefundDue,
}
