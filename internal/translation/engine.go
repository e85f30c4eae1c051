package translation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/review-pipeline/internal/metrics"
	"github.com/review-pipeline/internal/models"
	"github.com/review-pipeline/internal/repository"
	"github.com/review-pipeline/internal/richtext"
	"github.com/review-pipeline/internal/worker"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Decision is what the engine chose to do for one review write
type Decision string

const (
	DecisionSkip            Decision = "skip"
	DecisionFullTranslation Decision = "full_translation"
	DecisionFormatSync      Decision = "format_sync"
	DecisionNoop            Decision = "noop"
)

// Scheduler runs detached work; *worker.Pool satisfies it
type Scheduler interface {
	Submit(name string, task worker.Task) (string, error)
}

// LocaleReader reads the stored content of one locale.
// repository.ErrNotFound means the locale has never been written.
type LocaleReader interface {
	GetContent(ctx context.Context, id int64, locale string) (*models.ReviewContent, error)
}

// LocaleWriter persists a locale copy. The engine always writes with
// SkipTranslation set.
type LocaleWriter interface {
	WriteLocale(ctx context.Context, id int64, locale string, content *models.ReviewContent, opts models.WriteOptions) error
}

// EngineConfig holds the engine's tunables
type EngineConfig struct {
	TargetLocale  string
	RunTimeout    time.Duration
	FieldParallel int
}

// Engine decides how to bring the secondary locale up to date and runs
// that work in the background.
type Engine struct {
	text   *TextService
	reader LocaleReader
	writer LocaleWriter
	sched  Scheduler
	cfg    EngineConfig
	log    zerolog.Logger
}

// NewEngine creates an engine. The writer is attached later with
// SetWriter because it is the review service, which also owns the engine.
func NewEngine(text *TextService, reader LocaleReader, sched Scheduler, cfg EngineConfig, log zerolog.Logger) *Engine {
	if cfg.FieldParallel < 1 {
		cfg.FieldParallel = 1
	}
	return &Engine{
		text:   text,
		reader: reader,
		sched:  sched,
		cfg:    cfg,
		log:    log.With().Str("component", "translation").Logger(),
	}
}

// SetWriter sets the locale writer used to persist results
func (e *Engine) SetWriter(w LocaleWriter) {
	e.writer = w
}

// Decide compares the new and previous primary-locale state of a review.
// prev is nil when there is no earlier state.
func Decide(review, prev *models.Review) Decision {
	if !review.Published() {
		return DecisionSkip
	}
	if !prev.Published() {
		return DecisionFullTranslation
	}

	cur, old := &review.Content, &prev.Content
	curFields, oldFields := cur.RichFields(), old.RichFields()

	structural := false
	for i := range curFields {
		a, b := *curFields[i].Doc, *oldFields[i].Doc
		if richtext.ExtractPlainText(a) != richtext.ExtractPlainText(b) {
			return DecisionFullTranslation
		}
		if !richtext.Equal(a, b) {
			structural = true
		}
	}

	if len(cur.FavoriteQuotes) != len(old.FavoriteQuotes) {
		return DecisionFullTranslation
	}
	for i := range cur.FavoriteQuotes {
		if cur.FavoriteQuotes[i].Quote != old.FavoriteQuotes[i].Quote {
			return DecisionFullTranslation
		}
		if cur.FavoriteQuotes[i].Page != old.FavoriteQuotes[i].Page {
			structural = true
		}
	}

	if structural {
		return DecisionFormatSync
	}
	return DecisionNoop
}

// OnReviewPublished is called after every primary-locale write. It
// returns as soon as the decision is made; translation work continues on
// the scheduler.
func (e *Engine) OnReviewPublished(ctx context.Context, review, prev *models.Review) Decision {
	decision := Decide(review, prev)
	metrics.TranslationDecisionsTotal.WithLabelValues(string(decision)).Inc()

	log := e.log.With().Int64("review_id", review.ID).Str("decision", string(decision)).Logger()
	if decision == DecisionSkip || decision == DecisionNoop {
		log.Debug().Msg("No translation needed")
		return decision
	}

	// The task must not see later mutations of the caller's review
	id := review.ID
	content := review.Content.Clone()

	taskID, err := e.sched.Submit("translate-review", func(ctx context.Context) {
		e.run(ctx, id, content, decision)
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to schedule translation")
		return decision
	}

	log.Info().Str("task_id", taskID).Msg("Translation scheduled")
	return decision
}

func (e *Engine) run(ctx context.Context, id int64, content *models.ReviewContent, decision Decision) {
	if e.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.RunTimeout)
		defer cancel()
	}

	start := time.Now()
	strategy := decision
	var err error

	switch decision {
	case DecisionFormatSync:
		strategy, err = e.formatSync(ctx, id, content)
	default:
		err = e.fullTranslation(ctx, id, content)
	}

	metrics.TranslationRunDuration.WithLabelValues(string(strategy)).Observe(time.Since(start).Seconds())
	log := e.log.With().
		Int64("review_id", id).
		Str("strategy", string(strategy)).
		Dur("duration", time.Since(start)).
		Logger()

	if err != nil {
		metrics.TranslationRunsTotal.WithLabelValues(string(strategy), "error").Inc()
		log.Error().Err(err).Msg("Background translation failed")
		return
	}
	metrics.TranslationRunsTotal.WithLabelValues(string(strategy), "ok").Inc()
	log.Info().Msg("Background translation complete")
}

// fullTranslation translates every field independently and writes the
// target locale in one update.
func (e *Engine) fullTranslation(ctx context.Context, id int64, src *models.ReviewContent) error {
	out, err := e.Translate(ctx, src)
	if err != nil {
		return err
	}
	return e.write(ctx, id, out)
}

// Translate produces the target-locale content for src. Fields that fail
// to translate keep their source text.
func (e *Engine) Translate(ctx context.Context, src *models.ReviewContent) (*models.ReviewContent, error) {
	out := &models.ReviewContent{}
	lang := e.cfg.TargetLocale

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.FieldParallel)

	srcFields, outFields := src.RichFields(), out.RichFields()
	for i := range srcFields {
		doc, dst := *srcFields[i].Doc, outFields[i].Doc
		if doc == nil {
			continue
		}
		if doc.IsEmpty() {
			*dst = doc.Clone()
			continue
		}
		g.Go(func() error {
			translated := e.text.Translate(gctx, richtext.ExtractPlainText(doc), lang)
			*dst = richtext.FromPlainText(translated)
			return nil
		})
	}

	if src.FavoriteQuotes != nil {
		out.FavoriteQuotes = make([]models.Quote, len(src.FavoriteQuotes))
		for i, q := range src.FavoriteQuotes {
			g.Go(func() error {
				out.FavoriteQuotes[i] = models.Quote{
					Quote: e.text.Translate(gctx, q.Quote, lang),
					Page:  q.Page,
				}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("translation run aborted: %w", err)
	}
	return out, nil
}

// formatSync carries the existing translated text over to the new
// structure. It escalates to a full translation when there is no usable
// translated copy. The returned decision is the strategy actually run.
func (e *Engine) formatSync(ctx context.Context, id int64, src *models.ReviewContent) (Decision, error) {
	existing, err := e.reader.GetContent(ctx, id, e.cfg.TargetLocale)
	if errors.Is(err, repository.ErrNotFound) {
		e.log.Info().Int64("review_id", id).Msg("No translated copy yet, escalating to full translation")
		return DecisionFullTranslation, e.fullTranslation(ctx, id, src)
	}
	if err != nil {
		return DecisionFormatSync, fmt.Errorf("read target locale: %w", err)
	}

	out, ok := SyncContent(src, existing)
	if !ok {
		e.log.Info().Int64("review_id", id).Msg("Translated copy incomplete, escalating to full translation")
		return DecisionFullTranslation, e.fullTranslation(ctx, id, src)
	}
	return DecisionFormatSync, e.write(ctx, id, out)
}

// SyncContent rebuilds every field of src with the translated leaves of
// existing. It reports false when existing lacks a field or quote that
// src has, since there is no translated text to carry over.
func SyncContent(src, existing *models.ReviewContent) (*models.ReviewContent, bool) {
	out := &models.ReviewContent{}

	srcFields, exFields, outFields := src.RichFields(), existing.RichFields(), out.RichFields()
	for i := range srcFields {
		s, x := *srcFields[i].Doc, *exFields[i].Doc
		if s == nil {
			continue
		}
		if x == nil && !s.IsEmpty() {
			return nil, false
		}
		*outFields[i].Doc = richtext.SyncFormat(s, x)
	}

	if len(existing.FavoriteQuotes) < len(src.FavoriteQuotes) {
		return nil, false
	}
	if src.FavoriteQuotes != nil {
		out.FavoriteQuotes = make([]models.Quote, len(src.FavoriteQuotes))
		for i, q := range src.FavoriteQuotes {
			out.FavoriteQuotes[i] = models.Quote{Quote: existing.FavoriteQuotes[i].Quote, Page: q.Page}
		}
	}
	return out, true
}

func (e *Engine) write(ctx context.Context, id int64, content *models.ReviewContent) error {
	if e.writer == nil {
		return errors.New("translation: no locale writer configured")
	}
	return e.writer.WriteLocale(ctx, id, e.cfg.TargetLocale, content, models.WriteOptions{SkipTranslation: true})
}
