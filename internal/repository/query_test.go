package repository

import (
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/review-pipeline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWhere(t *testing.T) {
	statuses := []string{"pending", "reported"}

	tests := []struct {
		name     string
		pred     Predicate
		wantSQL  string
		wantArgs []any
	}{
		{"nil matches all", nil, "TRUE", nil},
		{"eq", Eq("review_id", int64(42)), "review_id = $1", []any{int64(42)}},
		{"eq nil", Eq("status", nil), "status IS NULL", nil},
		{"in", In("status", statuses), "status = ANY($1)", []any{pq.Array(statuses)}},
		{"not", Not(Eq("status", "rejected")), "NOT (status = $1)", []any{"rejected"}},
		{
			"and or",
			And(Eq("review_id", 7), Or(Eq("status", "approved"), Eq("commenter_id", 3))),
			"(review_id = $1) AND ((status = $2) OR (commenter_id = $3))",
			[]any{7, "approved", 3},
		},
		{"empty and", And(), "TRUE", nil},
		{"empty or", Or(), "FALSE", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := buildWhere(tt.pred, commentFilterColumns)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestBuildWhere_RejectsUnknownColumn(t *testing.T) {
	_, _, err := buildWhere(And(Eq("review_id", 1), Eq("content; DROP TABLE comments", "x")), commentFilterColumns)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidQuery))
}

func TestBuildSuffix(t *testing.T) {
	args := []any{int64(1)}

	suffix, args, err := buildSuffix(ListOptions{}, commentFilterColumns, "-created_at", args)
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3", suffix)
	assert.Equal(t, []any{int64(1), MaxListLimit, 0}, args)

	suffix, _, err = buildSuffix(ListOptions{Limit: 10, Offset: 20, Sort: "id"}, commentFilterColumns, "-created_at", nil)
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY id ASC, id ASC LIMIT $1 OFFSET $2", suffix)

	_, _, err = buildSuffix(ListOptions{Sort: "content"}, commentFilterColumns, "-created_at", nil)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestMatches(t *testing.T) {
	c := &models.Comment{ID: 5, ReviewID: 42, CommenterID: 9, Status: models.CommentStatusReported, ReportCount: 3}
	row := CommentFields(c)

	assert.True(t, Matches(nil, row))
	assert.True(t, Matches(Eq("review_id", int64(42)), row))
	assert.False(t, Matches(Eq("review_id", int64(41)), row))
	assert.True(t, Matches(Eq("status", "reported"), row))
	assert.True(t, Matches(In("status", []models.CommentStatus{models.CommentStatusPending, models.CommentStatusReported}), row))
	assert.False(t, Matches(In("status", []string{"approved"}), row))
	assert.True(t, Matches(Not(Eq("status", "approved")), row))
	assert.True(t, Matches(And(Eq("review_id", 42), Or(Eq("status", "approved"), Eq("report_count", 3))), row))
	assert.False(t, Matches(Or(), row))
	assert.True(t, Matches(And(), row))
}
