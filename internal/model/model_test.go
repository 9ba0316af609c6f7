package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string { return &s }

func TestProfileUpdate_FieldsSkipsBlank(t *testing.T) {
	u := ProfileUpdate{
		Username: ptr(""),
		Email:    nil,
		Profile:  Profile{Age: ptr("30"), Goal: ptr("   ")},
		Document: ExtractedFields{SalaryIncome: ptr("50000"), IncomeMode: ptr(IncomeSalary)},
	}

	assert.Equal(t, []FieldValue{
		{Column: ColAge, Value: "30"},
		{Column: ColSalaryIncome, Value: "50000"},
		{Column: ColIncomeMode, Value: IncomeSalary},
	}, u.Fields())
	assert.False(t, u.IsEmpty())
}

func TestProfileUpdate_IsEmpty(t *testing.T) {
	assert.True(t, ProfileUpdate{}.IsEmpty())
	assert.True(t, ProfileUpdate{Profile: Profile{Goal: ptr("")}}.IsEmpty())
}

func TestUser_ApplyLeavesOtherFieldsUntouched(t *testing.T) {
	usr := User{
		Username: "asha",
		Profile:  Profile{Goal: ptr("retire early")},
		Document: ExtractedFields{PAN: ptr("ABCDE1234F")},
	}

	usr.Apply(ProfileUpdate{
		Profile:     Profile{Age: ptr("30")},
		Document:    ExtractedFields{RefundDue: ptr("1200")},
		DocumentKey: ptr("itr/u1/doc.txt"),
	})

	assert.Equal(t, "asha", usr.Username)
	assert.Equal(t, "retire early", *usr.Profile.Goal)
	assert.Equal(t, "30", *usr.Profile.Age)
	assert.Equal(t, "ABCDE1234F", *usr.Document.PAN)
	assert.Equal(t, "1200", *usr.Document.RefundDue)
	assert.Equal(t, "itr/u1/doc.txt", *usr.DocumentKey)
}

func TestNonEmpty(t *testing.T) {
	assert.Nil(t, NonEmpty(""))
	assert.Nil(t, NonEmpty("  "))
	assert.Equal(t, "x", *NonEmpty("x"))
}
