package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"finassist/internal/model"
	"finassist/internal/repository"
)

func ptr(s string) *string { return &s }

func TestSetDocument(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	set := setDocument(model.ProfileUpdate{
		Profile:  model.Profile{Age: ptr("30"), Goal: ptr("")},
		Document: model.ExtractedFields{SalaryIncome: ptr("50000"), IncomeMode: ptr(model.IncomeSalary)},
	}, now)

	assert.Equal(t, bson.D{
		{Key: "age", Value: "30"},
		{Key: "salary_income", Value: "50000"},
		{Key: "income_mode", Value: model.IncomeSalary},
		{Key: "updated_at", Value: now},
	}, set)

	assert.Nil(t, setDocument(model.ProfileUpdate{}, now))
}

// The BSON keys written by $set must be the ones the stored document decodes from.
func TestSetDocument_KeysMatchStoredLayout(t *testing.T) {
	usr := &model.User{ID: "u-1"}
	full := model.ProfileUpdate{
		Username:    ptr("asha"),
		Email:       ptr("asha@example.com"),
		Profile:     model.Profile{Age: ptr("1"), Goal: ptr("2"), RiskTolerance: ptr("3"), WorkType: ptr("4")},
		DocumentKey: ptr("itr/u-1/x.txt"),
	}
	for _, col := range model.DocumentColumns {
		v := col + "-value"
		*full.Document.Field(col) = &v
	}
	usr.Apply(full)

	raw, err := bson.Marshal(toDocument(usr))
	require.NoError(t, err)
	var stored bson.M
	require.NoError(t, bson.Unmarshal(raw, &stored))

	for _, e := range setDocument(full, time.Now()) {
		assert.Contains(t, stored, e.Key)
	}
}

func TestDocumentConversionKeepsAbsentFieldsNil(t *testing.T) {
	usr := &model.User{
		ID:       "u-1",
		Email:    "asha@example.com",
		Profile:  model.Profile{Goal: ptr("retire early")},
		Document: model.ExtractedFields{PAN: ptr("ABCDE1234F")},
	}

	raw, err := bson.Marshal(toDocument(usr))
	require.NoError(t, err)
	var doc userDocument
	require.NoError(t, bson.Unmarshal(raw, &doc))
	got := fromDocument(&doc)

	assert.Equal(t, "retire early", *got.Profile.Goal)
	assert.Nil(t, got.Profile.Age)
	assert.Equal(t, "ABCDE1234F", *got.Document.PAN)
	assert.Nil(t, got.Document.SalaryIncome)
}

// fakeCollection answers driver calls with canned results.
type fakeCollection struct {
	insertErr  error
	found      *mongo.SingleResult
	updated    *mongo.SingleResult
	lastUpdate any
	lastOpts   []options.Lister[options.FindOneAndUpdateOptions]
}

func (f *fakeCollection) InsertOne(_ context.Context, _ any, _ ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	return &mongo.InsertOneResult{}, nil
}

func (f *fakeCollection) FindOne(_ context.Context, _ any, _ ...options.Lister[options.FindOneOptions]) *mongo.SingleResult {
	return f.found
}

func (f *fakeCollection) FindOneAndUpdate(_ context.Context, _ any, update any, opts ...options.Lister[options.FindOneAndUpdateOptions]) *mongo.SingleResult {
	f.lastUpdate = update
	f.lastOpts = opts
	return f.updated
}

func (f *fakeCollection) Indexes() mongo.IndexView { return mongo.IndexView{} }

func result(doc any, err error) *mongo.SingleResult {
	return mongo.NewSingleResultFromDocument(doc, err, bson.NewRegistry())
}

func newFakeRepo(coll *fakeCollection, now time.Time) *UserMongo {
	return &UserMongo{coll: coll, now: func() time.Time { return now }}
}

func TestUserMongo_Create(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}}}

	tests := []struct {
		name      string
		insertErr error
		wantErr   error
	}{
		{"inserted", nil, nil},
		{"duplicate email", dup, repository.ErrDuplicateEmail},
		{"server down", errors.New("connection refused"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo(&fakeCollection{insertErr: tt.insertErr}, time.Now())

			got, err := repo.Create(context.Background(), &model.User{ID: "u-1", Email: "asha@example.com"})

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			case tt.insertErr != nil:
				assert.ErrorIs(t, err, tt.insertErr)
				assert.NotErrorIs(t, err, repository.ErrDuplicateEmail)
			default:
				require.NoError(t, err)
				assert.Equal(t, "u-1", got.ID)
			}
		})
	}
}

func TestUserMongo_FindByID(t *testing.T) {
	repo := newFakeRepo(&fakeCollection{found: result(&userDocument{ID: "u-1", Email: "asha@example.com"}, nil)}, time.Now())
	got, err := repo.FindByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", got.Email)

	repo = newFakeRepo(&fakeCollection{found: result(bson.D{}, mongo.ErrNoDocuments)}, time.Now())
	_, err = repo.FindByEmail(context.Background(), "gone@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserMongo_ApplyUpdate(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	upd := model.ProfileUpdate{
		Profile:     model.Profile{Age: ptr("30")},
		DocumentKey: ptr("itr/u-1/new.txt"),
	}

	t.Run("returns the applied record and the replaced key", func(t *testing.T) {
		before := &userDocument{
			ID: "u-1", Email: "asha@example.com",
			Goal: ptr("retire early"), Age: ptr("25"), DocumentKey: ptr("itr/u-1/old.txt"),
		}
		coll := &fakeCollection{updated: result(before, nil)}
		repo := newFakeRepo(coll, now)

		got, prev, err := repo.ApplyUpdate(context.Background(), "u-1", upd)

		require.NoError(t, err)
		assert.Equal(t, "30", *got.Profile.Age)
		assert.Equal(t, "retire early", *got.Profile.Goal)
		assert.Equal(t, "itr/u-1/new.txt", *got.DocumentKey)
		assert.Equal(t, now, got.UpdatedAt)
		require.NotNil(t, prev)
		assert.Equal(t, "itr/u-1/old.txt", *prev)
		assert.Equal(t, bson.D{{Key: "$set", Value: setDocument(upd, now)}}, coll.lastUpdate)
		require.Len(t, coll.lastOpts, 1)
	})

	t.Run("error mapping", func(t *testing.T) {
		tests := []struct {
			name    string
			err     error
			wantErr error
		}{
			{"missing user", mongo.ErrNoDocuments, repository.ErrNotFound},
			{"email collision", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error"}, repository.ErrDuplicateEmail},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo := newFakeRepo(&fakeCollection{updated: result(bson.D{}, tt.err)}, now)

				got, prev, err := repo.ApplyUpdate(context.Background(), "u-1", upd)

				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				assert.Nil(t, prev)
			})
		}
	})

	t.Run("empty update never reaches the server", func(t *testing.T) {
		coll := &fakeCollection{}
		_, _, err := newFakeRepo(coll, now).ApplyUpdate(context.Background(), "u-1", model.ProfileUpdate{})
		assert.Error(t, err)
		assert.Nil(t, coll.lastUpdate)
	})
}
