package model

import "time"

// Profile holds the self-declared attributes a user can edit through forms.
type Profile struct {
	Age           *string `json:"age"`
	Goal          *string `json:"goal"`
	RiskTolerance *string `json:"risk_tolerance"`
	WorkType      *string `json:"work_type"`
}

// User is the persisted identity record together with its profile and the
// fields last extracted from an uploaded ITR document.
// PasswordHash is never serialized.
type User struct {
	ID           string          `json:"id"`
	Username     string          `json:"username"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Profile      Profile         `json:"profile"`
	Document     ExtractedFields `json:"document"`
	DocumentKey  *string         `json:"-"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Apply copies every assignment of u onto the in-memory record.
// Repositories use it to materialize a new user before the first insert.
func (usr *User) Apply(u ProfileUpdate) {
	for _, f := range u.Fields() {
		v := f.Value
		switch f.Column {
		case ColUsername:
			usr.Username = v
		case ColEmail:
			usr.Email = v
		case ColDocumentKey:
			usr.DocumentKey = &v
		case ColAge:
			usr.Profile.Age = &v
		case ColGoal:
			usr.Profile.Goal = &v
		case ColRiskTolerance:
			usr.Profile.RiskTolerance = &v
		case ColWorkType:
			usr.Profile.WorkType = &v
		default:
			if p := usr.Document.Field(f.Column); p != nil {
				*p = &v
			}
		}
	}
}
