package benchmark

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/review-pipeline/internal/config"
	"github.com/review-pipeline/internal/mocks"
	"github.com/review-pipeline/internal/models"
	"github.com/review-pipeline/internal/ratelimit"
	"github.com/review-pipeline/internal/repository"
	"github.com/review-pipeline/internal/richtext"
	"github.com/review-pipeline/internal/service"
	"github.com/review-pipeline/internal/spam"
	"github.com/rs/zerolog"
)

var comments = []string{
	"Loved this review, it made me pick the book up again.",
	"buy viagra now at http://example.com",
	"The ending felt rushed but the middle chapters were wonderful.",
	"Sooooooo good",
	strings.Repeat("A thoughtful and long comment about pacing. ", 40),
}

// BenchmarkSpamReasons benchmarks classification of typical comments
func BenchmarkSpamReasons(b *testing.B) {
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		spam.Reasons(comments[i%len(comments)])
	}

	b.ReportMetric(float64(b.N)/b.Elapsed().Seconds(), "comments/sec")
}

// BenchmarkLimiterAllow benchmarks admission checks against an in-memory counter
func BenchmarkLimiterAllow(b *testing.B) {
	limiter := ratelimit.New(mocks.NewMockCounter(), zerolog.Nop())
	policy := ratelimit.Policy{Action: "like", Limit: 5, Window: time.Minute}
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		limiter.Allow(ctx, policy, policy.Key("203.0.113.9", i%1000))
	}
}

// BenchmarkRichTextRoundTrip benchmarks extract, rebuild and format sync
// on a ten paragraph document
func BenchmarkRichTextRoundTrip(b *testing.B) {
	var paras []string
	for i := 0; i < 10; i++ {
		paras = append(paras, fmt.Sprintf("Paragraph %d about the book and why it matters.", i))
	}
	src := richtext.FromPlainText(strings.Join(paras, "\n"))

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		text := richtext.ExtractPlainText(src)
		translated := richtext.FromPlainText(strings.ToUpper(text))
		richtext.SyncFormat(src, translated)
	}
}

// BenchmarkSubmitComment benchmarks the full submission path over
// in-memory repositories
func BenchmarkSubmitComment(b *testing.B) {
	store := mocks.NewStore()
	store.AddReview(&models.Review{ID: 42, AuthorID: 1, Status: models.ReviewStatusPublished}, "en", nil)

	cfg := &config.Config{
		Translation: config.TranslationConfig{DefaultLocale: "en"},
		Moderation:  config.ModerationConfig{TrustThreshold: 3, ReportThreshold: 3},
		RateLimit: config.RateLimitConfig{
			CommentLimit: 3, CommentWindow: time.Minute,
			ReportLimit: 5, ReportWindow: time.Minute,
			LikeLimit: 5, LikeWindow: time.Minute,
			ViewLimit: 1, ViewWindow: time.Minute,
		},
	}
	services := service.NewServices(store.Repositories(), ratelimit.New(nil, zerolog.Nop()), nil, cfg, zerolog.Nop())
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, err := services.Comment.SubmitComment(ctx, service.SubmitCommentInput{
			Name:     "Reader",
			Email:    fmt.Sprintf("reader%d@example.com", i%100),
			Content:  comments[i%len(comments)],
			ReviewID: 42,
			ClientIP: "203.0.113.9",
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkMatches benchmarks in-memory predicate evaluation
func BenchmarkMatches(b *testing.B) {
	pred := repository.And(
		repository.Eq("review_id", int64(42)),
		repository.Or(
			repository.Eq("status", models.CommentStatusApproved),
			repository.In("status", []models.CommentStatus{models.CommentStatusPending, models.CommentStatusReported}),
		),
		repository.Not(repository.Eq("commenter_id", int64(7))),
	)
	row := repository.CommentFields(&models.Comment{
		ID:          1,
		ReviewID:    42,
		CommenterID: 3,
		Status:      models.CommentStatusReported,
	})

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		repository.Matches(pred, row)
	}
}
