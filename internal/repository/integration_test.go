package repository_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/review-pipeline/internal/database"
	"github.com/review-pipeline/internal/models"
	"github.com/review-pipeline/internal/repository"
	"github.com/review-pipeline/internal/richtext"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres starts a throwaway Postgres via testcontainers-go and
// applies the migrations. Skipped unless GO_TEST_INTEGRATION is set.
func startPostgres(t *testing.T) *database.DB {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "reviews",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("host=%s port=%s user=test password=test dbname=reviews sslmode=disable", host, port.Port())
	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := database.Wrap(sqlDB, zerolog.Nop())
	require.NoError(t, db.RunMigrations("../../migrations"))
	return db
}

func seedReview(t *testing.T, db *database.DB, status models.ReviewStatus) int64 {
	t.Helper()
	var id int64
	err := db.QueryRow(
		`INSERT INTO reviews (title, slug, author_id, status) VALUES ($1, $2, $3, $4) RETURNING id`,
		"A Review", fmt.Sprintf("review-%d", time.Now().UnixNano()), 11, status,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func TestIntegration_ConcurrentCounterIncrements(t *testing.T) {
	db := startPostgres(t)
	repos := repository.New(db)
	reviewID := seedReview(t, db, models.ReviewStatusPublished)
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repos.Review.IncrementCounter(ctx, reviewID, models.CounterViews, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	review, err := repos.Review.GetByID(ctx, reviewID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), review.Views)
}

func TestIntegration_DecrementClampsAtZero(t *testing.T) {
	db := startPostgres(t)
	repos := repository.New(db)
	reviewID := seedReview(t, db, models.ReviewStatusPublished)
	ctx := context.Background()

	likes, err := repos.Review.IncrementCounter(ctx, reviewID, models.CounterLikes, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), likes)

	likes, err = repos.Review.DecrementCounter(ctx, reviewID, models.CounterLikes, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), likes)

	_, err = repos.Review.IncrementCounter(ctx, reviewID+1000, models.CounterLikes, 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repos.Review.IncrementCounter(ctx, reviewID, models.CounterField("title"), 1)
	assert.ErrorIs(t, err, repository.ErrInvalidQuery)
}

func TestIntegration_ReportsAndApproval(t *testing.T) {
	db := startPostgres(t)
	repos := repository.New(db)
	reviewID := seedReview(t, db, models.ReviewStatusPublished)
	ctx := context.Background()

	commenter := &models.Commenter{Name: "Jo", EmailHash: fmt.Sprintf("%064d", 1)}
	require.NoError(t, repos.Commenter.Create(ctx, commenter))
	assert.ErrorIs(t, repos.Commenter.Create(ctx, &models.Commenter{Name: "Dup", EmailHash: commenter.EmailHash}), repository.ErrDuplicate)

	comment := &models.Comment{
		AuthorName:  "Jo",
		Content:     "A lovely read",
		ReviewID:    reviewID,
		CommenterID: commenter.ID,
		Status:      models.CommentStatusPending,
	}
	require.NoError(t, repos.Comment.Create(ctx, comment))

	for i := 1; i <= 3; i++ {
		c, err := repos.Comment.AddReport(ctx, comment.ID, fmt.Sprintf("%064d", 100+i), 3)
		require.NoError(t, err)
		assert.Equal(t, i, c.ReportCount)
		if i < 3 {
			assert.Equal(t, models.CommentStatusPending, c.Status)
		} else {
			assert.Equal(t, models.CommentStatusReported, c.Status)
		}
	}
	_, err := repos.Comment.AddReport(ctx, comment.ID, fmt.Sprintf("%064d", 101), 3)
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	res, err := repos.Comment.Approve(ctx, comment.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, models.CommentStatusReported, res.PreviousStatus)
	assert.Nil(t, res.Commenter, "reported -> approved does not count toward trust")

	_, err = repos.Comment.Approve(ctx, comment.ID, 3)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)

	found, err := repos.Comment.Find(ctx, repository.And(
		repository.Eq("review_id", reviewID),
		repository.In("status", []string{"approved"}),
	), repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, comment.ID, found[0].ID)

	rejected, err := repos.Comment.Reject(ctx, comment.ID)
	require.NoError(t, err)
	_, err = repos.Comment.AddReport(ctx, comment.ID, fmt.Sprintf("%064d", 200), 3)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	after, err := repos.Comment.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Equal(t, rejected.ReportCount, after.ReportCount)
	assert.Equal(t, rejected.UpdatedAt, after.UpdatedAt)
}

func TestIntegration_PendingApprovalsGrantTrust(t *testing.T) {
	db := startPostgres(t)
	repos := repository.New(db)
	reviewID := seedReview(t, db, models.ReviewStatusPublished)
	ctx := context.Background()

	commenter := &models.Commenter{Name: "Sam", EmailHash: fmt.Sprintf("%064d", 2)}
	require.NoError(t, repos.Commenter.Create(ctx, commenter))

	for i := 1; i <= 3; i++ {
		c := &models.Comment{AuthorName: "Sam", Content: "held for review", ReviewID: reviewID, CommenterID: commenter.ID, Status: models.CommentStatusPending}
		require.NoError(t, repos.Comment.Create(ctx, c))

		res, err := repos.Comment.Approve(ctx, c.ID, 3)
		require.NoError(t, err)
		require.NotNil(t, res.Commenter)
		assert.Equal(t, i, res.Commenter.ApprovedCommentCount)
		assert.Equal(t, i >= 3, res.Commenter.Trusted)
	}
}

func TestIntegration_LocaleContent(t *testing.T) {
	db := startPostgres(t)
	repos := repository.New(db)
	reviewID := seedReview(t, db, models.ReviewStatusDraft)
	ctx := context.Background()

	_, err := repos.Review.GetContent(ctx, reviewID, "id")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	published := models.ReviewStatusPublished
	content := &models.ReviewContent{
		ReviewContent:  richtext.FromPlainText("A beautiful journey."),
		FavoriteQuotes: []models.Quote{{Quote: "All we have to decide", Page: "51"}},
	}
	review, err := repos.Review.Update(ctx, reviewID, "en", &models.ReviewUpdate{Status: &published, Content: content})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewStatusPublished, review.Status)
	assert.NotNil(t, review.PublishedAt)
	assert.Equal(t, "A beautiful journey.", richtext.ExtractPlainText(review.Content.ReviewContent))
	assert.Nil(t, review.Content.WhatILoved)

	require.NoError(t, repos.Review.SaveLocaleContent(ctx, reviewID, "id", &models.ReviewContent{
		ReviewContent: richtext.FromPlainText("Perjalanan yang indah."),
	}))
	got, err := repos.Review.GetContent(ctx, reviewID, "id")
	require.NoError(t, err)
	assert.Equal(t, "Perjalanan yang indah.", richtext.ExtractPlainText(got.ReviewContent))
	assert.Empty(t, got.FavoriteQuotes)

	assert.ErrorIs(t, repos.Review.SaveLocaleContent(ctx, reviewID+1000, "id", &models.ReviewContent{}), repository.ErrNotFound)
}

func TestIntegration_MigrationsRoundTrip(t *testing.T) {
	db := startPostgres(t)

	require.NoError(t, db.MigrateDown("../../migrations"))

	var exists bool
	require.NoError(t, db.QueryRow(`SELECT to_regclass('public.comments') IS NOT NULL`).Scan(&exists))
	assert.False(t, exists, "comments table should be dropped")

	require.NoError(t, db.RunMigrations("../../migrations"))
	require.NoError(t, db.HealthCheck(context.Background()))
	seedReview(t, db, models.ReviewStatusPublished)
}
