package extract

import "finassist/internal/model"

// ClassifyIncome labels the primary income source. A salary figure wins over
// a business turnover when a document carries both.
func ClassifyIncome(f model.ExtractedFields) string {
	switch {
	case f.SalaryIncome != nil && *f.SalaryIncome != "":
		return model.IncomeSalary
	case f.BusinessTurnover != nil && *f.BusinessTurnover != "":
		return model.IncomeBusiness
	default:
		return model.IncomeUnknown
	}
}
