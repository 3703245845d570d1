package databases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/civic-report-api/config"
	"github.com/linesmerrill/civic-report-api/databases"
	"github.com/linesmerrill/civic-report-api/databases/mocks"
	"github.com/linesmerrill/civic-report-api/models"
)

func TestNewReportDatabase(t *testing.T) {
	conf := &config.Config{URL: "mongodb://127.0.0.1:27017", DatabaseName: "test"}

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	reportDB := databases.NewReportDatabase(db)

	assert.NotEmpty(t, reportDB)
}

func TestNewDatabaseUsesConfiguredName(t *testing.T) {
	client := mocks.NewClientHelper(t)
	dbHelper := &mocks.DatabaseHelper{}
	client.On("Database", "civic_reports").Return(dbHelper)

	db := databases.NewDatabase(&config.Config{DatabaseName: "civic_reports"}, client)

	assert.Same(t, dbHelper, db)
}

func TestNewClientRequiresURI(t *testing.T) {
	_, err := databases.NewClient(&config.Config{DatabaseName: "test"})

	assert.True(t, errors.Is(err, config.ErrMissingConfig))
}

func TestReportDatabase_InsertOne(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	insertResult := &mocks.InsertOneResultHelper{}

	oid := primitive.NewObjectID()
	insertResult.On("Decode").Return(oid)

	collectionHelper.
		On("InsertOne", context.Background(), mock.MatchedBy(func(r *models.Report) bool {
			return r.Status == models.StatusOpen &&
				r.Attachments != nil &&
				len(r.Attachments) == 0 &&
				!r.CreatedAt.IsZero() &&
				!r.ID.IsZero()
		})).
		Return(insertResult, nil)

	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDba := databases.NewReportDatabase(dbHelper)

	report := &models.Report{
		Title:       "Pothole",
		Category:    models.CategoryRoad,
		Description: "Deep",
	}
	id, err := reportDba.InsertOne(context.Background(), report)

	assert.NoError(t, err)
	assert.Equal(t, oid.Hex(), id)
	assert.Equal(t, models.StatusOpen, report.Status)
	assert.Equal(t, time.UTC, report.CreatedAt.Location())
	collectionHelper.AssertExpectations(t)
}

func TestReportDatabase_InsertOneError(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.
		On("InsertOne", context.Background(), mock.Anything).
		Return(nil, errors.New("mocked-error"))
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDba := databases.NewReportDatabase(dbHelper)

	id, err := reportDba.InsertOne(context.Background(), &models.Report{Title: "t"})

	assert.Empty(t, id)
	assert.EqualError(t, err, "insert report: mocked-error")
}

func TestReportDatabase_FindRecent(t *testing.T) {
	tests := []struct {
		name          string
		limit         int64
		expectedLimit int64
	}{
		{name: "default cap", limit: 0, expectedLimit: 200},
		{name: "above cap is clamped", limit: 500, expectedLimit: 200},
		{name: "smaller limit kept", limit: 5, expectedLimit: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbHelper := &mocks.DatabaseHelper{}
			collectionHelper := &mocks.CollectionHelper{}
			cursorHelper := &mocks.CursorHelper{}

			cursorHelper.
				On("Decode", context.Background(), mock.Anything).
				Return(nil).Run(func(args mock.Arguments) {
				arg := args.Get(1).(*[]models.Report)
				*arg = []models.Report{{Title: "newest"}, {Title: "older", Attachments: []string{"reports/1_a.jpg"}}}
			})

			expectedSort := bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
			collectionHelper.
				On("Find", context.Background(), bson.M{}, mock.MatchedBy(func(o *options.FindOptions) bool {
					return o.Limit != nil && *o.Limit == tt.expectedLimit && assert.ObjectsAreEqual(expectedSort, o.Sort)
				})).
				Return(cursorHelper, nil)

			dbHelper.On("Collection", "reports").Return(collectionHelper)

			reportDba := databases.NewReportDatabase(dbHelper)
			reports, err := reportDba.FindRecent(context.Background(), tt.limit)

			require.NoError(t, err)
			require.Len(t, reports, 2)
			assert.Equal(t, "newest", reports[0].Title)
			assert.NotNil(t, reports[0].Attachments)
			assert.Equal(t, []string{"reports/1_a.jpg"}, reports[1].Attachments)
		})
	}
}

func TestReportDatabase_FindRecentDecodesWithCallerContext(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	cursorHelper := mocks.NewCursorHelper(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cursorHelper.
		On("Decode", mock.MatchedBy(func(got context.Context) bool {
			deadline, ok := got.Deadline()
			want, _ := ctx.Deadline()
			return ok && deadline.Equal(want)
		}), mock.Anything).
		Return(context.DeadlineExceeded)
	collectionHelper.On("Find", ctx, bson.M{}, mock.Anything).Return(cursorHelper, nil)
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDba := databases.NewReportDatabase(dbHelper)
	reports, err := reportDba.FindRecent(ctx, 10)

	assert.Nil(t, reports)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReportDatabase_FindRecentError(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.
		On("Find", context.Background(), bson.M{}, mock.Anything).
		Return(nil, errors.New("mocked-error"))
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDba := databases.NewReportDatabase(dbHelper)
	reports, err := reportDba.FindRecent(context.Background(), 10)

	assert.Nil(t, reports)
	assert.EqualError(t, err, "find recent reports: mocked-error")
}

func TestReportDatabase_FindByID(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelperMissing := &mocks.SingleResultHelper{}
	srHelperCorrect := &mocks.SingleResultHelper{}

	found := primitive.NewObjectID()
	missing := primitive.NewObjectID()

	srHelperMissing.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	srHelperCorrect.
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Report)
		(*arg).ID = found
		(*arg).Title = "mocked-report"
	})

	collectionHelper.On("FindOne", context.Background(), bson.M{"_id": missing}).Return(srHelperMissing)
	collectionHelper.On("FindOne", context.Background(), bson.M{"_id": found}).Return(srHelperCorrect)
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDba := databases.NewReportDatabase(dbHelper)

	report, err := reportDba.FindByID(context.Background(), "not-hex")
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, databases.ErrReportNotFound))

	report, err = reportDba.FindByID(context.Background(), missing.Hex())
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, databases.ErrReportNotFound))

	report, err = reportDba.FindByID(context.Background(), found.Hex())
	assert.NoError(t, err)
	assert.Equal(t, &models.Report{ID: found, Title: "mocked-report"}, report)
}

func TestReportDatabase_UpdateStatus(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srHelper := &mocks.SingleResultHelper{}

	oid := primitive.NewObjectID()
	srHelper.
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Report)
		(*arg).ID = oid
		(*arg).Status = models.StatusResolved
	})

	collectionHelper.
		On("FindOneAndUpdate", context.Background(), bson.M{"_id": oid}, mock.MatchedBy(func(update bson.M) bool {
			set, ok := update["$set"].(bson.M)
			return ok && set["status"] == models.StatusResolved && set["updatedAt"] != nil && len(set) == 2
		}), mock.Anything).
		Return(srHelper)
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDba := databases.NewReportDatabase(dbHelper)

	report, err := reportDba.UpdateStatus(context.Background(), oid.Hex(), models.StatusResolved)
	require.NoError(t, err)
	assert.Equal(t, models.StatusResolved, report.Status)

	_, err = reportDba.UpdateStatus(context.Background(), "zzz", models.StatusResolved)
	assert.True(t, errors.Is(err, databases.ErrReportNotFound))
}

func TestEnsureReportIndexes(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.
		On("CreateIndexes", context.Background(), mock.MatchedBy(func(m []mongo.IndexModel) bool { return len(m) == 2 })).
		Return([]string{"createdAt_-1__id_-1", "status_1"}, nil)
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	assert.NoError(t, databases.EnsureReportIndexes(context.Background(), dbHelper))
}
