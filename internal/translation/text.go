package translation

import (
	"context"
	"strings"
	"time"

	"github.com/review-pipeline/internal/metrics"
	"github.com/rs/zerolog"
)

// TextService translates single strings. It never fails: on any error or
// timeout the source text comes back unchanged.
type TextService struct {
	translator Translator
	cache      *Cache
	timeout    time.Duration
	log        zerolog.Logger
}

// NewTextService creates a text service. A nil translator passes every
// string through untranslated.
func NewTextService(translator Translator, c *Cache, timeout time.Duration, log zerolog.Logger) *TextService {
	return &TextService{
		translator: translator,
		cache:      c,
		timeout:    timeout,
		log:        log,
	}
}

// Translate returns text in lang, or text itself when translation is
// unavailable.
func (s *TextService) Translate(ctx context.Context, text, lang string) string {
	if strings.TrimSpace(text) == "" {
		metrics.TranslationCallsTotal.WithLabelValues("skipped").Inc()
		return text
	}

	if cached, ok := s.cache.Get(ctx, lang, text); ok {
		metrics.TranslationCallsTotal.WithLabelValues("cached").Inc()
		return cached
	}

	if s.translator == nil {
		metrics.TranslationCallsTotal.WithLabelValues("fallback").Inc()
		return text
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	translated, err := s.call(callCtx, text, lang)
	if err != nil {
		metrics.TranslationCallsTotal.WithLabelValues("fallback").Inc()
		s.log.Warn().Err(err).Str("lang", lang).Int("length", len(text)).Msg("Translation failed, keeping source text")
		return text
	}

	metrics.TranslationCallsTotal.WithLabelValues("translated").Inc()
	s.cache.Set(ctx, lang, text, translated)
	return translated
}

type callResult struct {
	text string
	err  error
}

// call bounds the translator by ctx even if the translator itself ignores
// cancellation.
func (s *TextService) call(ctx context.Context, text, lang string) (string, error) {
	ch := make(chan callResult, 1)
	go func() {
		t, err := s.translator.Translate(ctx, text, lang)
		ch <- callResult{text: t, err: err}
	}()

	select {
	case r := <-ch:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
