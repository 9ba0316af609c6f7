package extract

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finassist/internal/model"
)

func str(s string) *string { return &s }

const sampleITR = `INCOME TAX RETURN - ASSESSMENT YEAR 2024-25
Name: Ravi Kumar
PAN: ABCDE1234F
Address: 12 MG Road, Bengaluru 560001
Contact: 9876543210

Salary Income: Rs.12,50,000
Deduction u/s 80C (PPF, ELSS): Rs.1,50,000
Deduction u/s 80D (Health Insurance): Rs.25,000
Taxable Income: Rs.10,75,000
Total Tax Payable: Rs.1,22,500
TDS Deducted: Rs.1,30,000
Refund Due: Rs.7,500
`

func TestParse_FullDocument(t *testing.T) {
	got := Parse(sampleITR)

	want := model.ExtractedFields{
		Name:            str("Ravi Kumar"),
		PAN:             str("ABCDE1234F"),
		Address:         str("12 MG Road, Bengaluru 560001"),
		Contact:         str("9876543210"),
		SalaryIncome:    str("1250000"),
		IncomeMode:      str(model.IncomeSalary),
		Deduction80C:    str("150000"),
		Deduction80D:    str("25000"),
		TaxableIncome:   str("1075000"),
		TotalTaxPayable: str("122500"),
		TDSDeducted:     str("130000"),
		RefundDue:       str("7500"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_NonASCIIText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		col  string
		want string
	}{
		{"accented name", "Name: José Kumar\nPAN: ABCDE1234F\n", model.ColName, "José Kumar"},
		{"devanagari name", "Name: राम कुमार\n", model.ColName, "राम कुमार"},
		{"devanagari contact digits", "Contact: ९८७६५४३२१०\n", model.ColContact, "९८७६५४३२१०"},
		{"devanagari amount", "Refund Due: Rs.१,५००\n", model.ColRefundDue, "१५००"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)

			v := *got.Field(tt.col)
			require.NotNil(t, v)
			assert.Equal(t, tt.want, *v)
		})
	}
}

func TestParse_SalaryLine(t *testing.T) {
	got := Parse("Salary Income: Rs.50,000")

	require.NotNil(t, got.SalaryIncome)
	assert.Equal(t, "50000", *got.SalaryIncome)
	assert.Equal(t, model.IncomeSalary, *got.IncomeMode)
}

func TestParse_SalaryTakesPrecedenceOverBusiness(t *testing.T) {
	got := Parse("Business Turnover: Rs.9,00,000\nSalary Income: Rs.50,000")

	assert.Equal(t, "900000", *got.BusinessTurnover)
	assert.Equal(t, "50000", *got.SalaryIncome)
	assert.Equal(t, model.IncomeSalary, *got.IncomeMode)
}

func TestParse_BusinessOnly(t *testing.T) {
	got := Parse("Business Turnover: Rs.9,00,000")

	assert.Nil(t, got.SalaryIncome)
	assert.Equal(t, model.IncomeBusiness, *got.IncomeMode)
}

func TestParse_NoIncomeLines(t *testing.T) {
	got := Parse("Name: Asha\nNothing else of interest here.")

	assert.Equal(t, "Asha", *got.Name)
	for _, col := range []string{
		model.ColSalaryIncome, model.ColBusinessTurnover,
		model.ColDeduction80C, model.ColDeduction80D,
		model.ColTaxableIncome, model.ColTotalTaxPayable,
		model.ColTDSDeducted, model.ColRefundDue,
	} {
		assert.Nil(t, *got.Field(col), col)
	}
	assert.Equal(t, model.IncomeUnknown, *got.IncomeMode)
}

func TestParse_SeparatorOnlyAmountIsAbsent(t *testing.T) {
	got := Parse("Salary Income: Rs.,,,\nBusiness Turnover: Rs.4,000")

	assert.Nil(t, got.SalaryIncome)
	assert.Equal(t, model.IncomeBusiness, *got.IncomeMode)
}

func TestParse_FieldsAreIndependent(t *testing.T) {
	withPAN := Parse("PAN: ABCDE1234F\nRefund Due: Rs.100")
	withoutPAN := Parse("Refund Due: Rs.100")

	assert.Equal(t, *withPAN.RefundDue, *withoutPAN.RefundDue)
	assert.Nil(t, withoutPAN.PAN)
}

func TestParse_DeterministicAndTotal(t *testing.T) {
	inputs := []string{
		"",
		sampleITR,
		"\x00\xff\xfe garbage",
		strings.Repeat("Rs.", 10000),
		strings.Repeat("80C", 5000) + strings.Repeat(" ", 5000),
		"Name:\nPAN:\nSalary Income: Rs.",
	}
	for _, in := range inputs {
		first := Parse(in)
		second := Parse(in)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("Parse not deterministic (-first +second):\n%s", diff)
		}
		require.NotNil(t, first.IncomeMode)
	}
}

func TestClassifyIncome(t *testing.T) {
	tests := []struct {
		name string
		in   model.ExtractedFields
		want string
	}{
		{"salary", model.ExtractedFields{SalaryIncome: str("1")}, model.IncomeSalary},
		{"both", model.ExtractedFields{SalaryIncome: str("1"), BusinessTurnover: str("2")}, model.IncomeSalary},
		{"business", model.ExtractedFields{BusinessTurnover: str("2")}, model.IncomeBusiness},
		{"empty salary", model.ExtractedFields{SalaryIncome: str(""), BusinessTurnover: str("2")}, model.IncomeBusiness},
		{"none", model.ExtractedFields{}, model.IncomeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyIncome(tt.in))
		})
	}
}
