// Package mongodb is the MongoDB implementation of the user repository.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"finassist/internal/model"
	"finassist/internal/repository"
)

// UsersCollection holds one document per user.
const UsersCollection = "users"

// userDocument is the stored layout. Field names match the SQL columns.
type userDocument struct {
	ID               string    `bson:"_id"`
	Username         string    `bson:"username"`
	Email            string    `bson:"email"`
	PasswordHash     string    `bson:"password_hash"`
	Age              *string   `bson:"age,omitempty"`
	Goal             *string   `bson:"goal,omitempty"`
	RiskTolerance    *string   `bson:"risk_tolerance,omitempty"`
	WorkType         *string   `bson:"work_type,omitempty"`
	DocumentKey      *string   `bson:"document_key,omitempty"`
	Name             *string   `bson:"name,omitempty"`
	PAN              *string   `bson:"pan,omitempty"`
	Address          *string   `bson:"address,omitempty"`
	Contact          *string   `bson:"contact,omitempty"`
	SalaryIncome     *string   `bson:"salary_income,omitempty"`
	BusinessTurnover *string   `bson:"business_turnover,omitempty"`
	IncomeMode       *string   `bson:"income_mode,omitempty"`
	Deduction80C     *string   `bson:"deduction_80c,omitempty"`
	Deduction80D     *string   `bson:"deduction_80d,omitempty"`
	TaxableIncome    *string   `bson:"taxable_income,omitempty"`
	TotalTaxPayable  *string   `bson:"total_tax_payable,omitempty"`
	TDSDeducted      *string   `bson:"tds_deducted,omitempty"`
	RefundDue        *string   `bson:"refund_due,omitempty"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

// collection is the subset of *mongo.Collection the repository uses.
type collection interface {
	InsertOne(ctx context.Context, document any, opts ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	FindOneAndUpdate(ctx context.Context, filter any, update any, opts ...options.Lister[options.FindOneAndUpdateOptions]) *mongo.SingleResult
	Indexes() mongo.IndexView
}

// UserMongo implements repository.UserRepository on a MongoDB collection.
type UserMongo struct {
	client *mongo.Client
	coll   collection
	now    func() time.Time
}

// NewUserMongo binds the repository to database/users.
func NewUserMongo(client *mongo.Client, database string) *UserMongo {
	return &UserMongo{
		client: client,
		coll:   client.Database(database).Collection(UsersCollection),
		now:    time.Now,
	}
}

var _ repository.UserRepository = (*UserMongo)(nil)

// EnsureIndexes creates the unique email index that makes Create race-safe.
func (r *UserMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: model.ColEmail, Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_1"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

// Create inserts a new user document.
func (r *UserMongo) Create(ctx context.Context, u *model.User) (*model.User, error) {
	doc := toDocument(u)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return fromDocument(doc), nil
}

// FindByID fetches a user by its ID.
func (r *UserMongo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

// FindByEmail fetches a user by email.
func (r *UserMongo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.D{{Key: model.ColEmail, Value: email}})
}

func (r *UserMongo) findOne(ctx context.Context, filter bson.D) (*model.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return fromDocument(&doc), nil
}

// ApplyUpdate issues one FindOneAndUpdate with $set over the supplied fields.
// The server returns the document as it was before the write, which yields the
// replaced document key; the updated record is that document with upd applied.
func (r *UserMongo) ApplyUpdate(ctx context.Context, id string, upd model.ProfileUpdate) (*model.User, *string, error) {
	now := r.now().UTC()
	set := setDocument(upd, now)
	if set == nil {
		return nil, nil, errors.New("empty update")
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var doc userDocument
	err := r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		opts,
	).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, nil, repository.ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, nil, repository.ErrDuplicateEmail
		}
		return nil, nil, err
	}

	prev := fromDocument(&doc)
	updated := *prev
	updated.Apply(upd)
	updated.UpdatedAt = now
	return &updated, prev.DocumentKey, nil
}

// Ping checks connectivity with the server.
func (r *UserMongo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// setDocument renders the $set payload for upd, or nil when upd is empty.
func setDocument(upd model.ProfileUpdate, now time.Time) bson.D {
	fields := upd.Fields()
	if len(fields) == 0 {
		return nil
	}
	set := make(bson.D, 0, len(fields)+1)
	for _, f := range fields {
		set = append(set, bson.E{Key: f.Column, Value: f.Value})
	}
	return append(set, bson.E{Key: "updated_at", Value: now})
}

func toDocument(u *model.User) *userDocument {
	d := u.Document
	return &userDocument{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		PasswordHash:     u.PasswordHash,
		Age:              u.Profile.Age,
		Goal:             u.Profile.Goal,
		RiskTolerance:    u.Profile.RiskTolerance,
		WorkType:         u.Profile.WorkType,
		DocumentKey:      u.DocumentKey,
		Name:             d.Name,
		PAN:              d.PAN,
		Address:          d.Address,
		Contact:          d.Contact,
		SalaryIncome:     d.SalaryIncome,
		BusinessTurnover: d.BusinessTurnover,
		IncomeMode:       d.IncomeMode,
		Deduction80C:     d.Deduction80C,
		Deduction80D:     d.Deduction80D,
		TaxableIncome:    d.TaxableIncome,
		TotalTaxPayable:  d.TotalTaxPayable,
		TDSDeducted:      d.TDSDeducted,
		RefundDue:        d.RefundDue,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func fromDocument(doc *userDocument) *model.User {
	return &model.User{
		ID:           doc.ID,
		Username:     doc.Username,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Profile: model.Profile{
			Age:           doc.Age,
			Goal:          doc.Goal,
			RiskTolerance: doc.RiskTolerance,
			WorkType:      doc.WorkType,
		},
		Document: model.ExtractedFields{
			Name:             doc.Name,
			PAN:              doc.PAN,
			Address:          doc.Address,
			Contact:          doc.Contact,
			SalaryIncome:     doc.SalaryIncome,
			BusinessTurnover: doc.BusinessTurnover,
			IncomeMode:       doc.IncomeMode,
			Deduction80C:     doc.Deduction80C,
			Deduction80D:     doc.Deduction80D,
			TaxableIncome:    doc.TaxableIncome,
			TotalTaxPayable:  doc.TotalTaxPayable,
			TDSDeducted:      doc.TDSDeducted,
			RefundDue:        doc.RefundDue,
		},
		DocumentKey: doc.DocumentKey,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}
