// Package translation keeps the secondary locale of a review in step with
// its primary locale. Translation runs detached from the request that
// published the review and never fails it.
package translation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/translate"
	"github.com/review-pipeline/internal/config"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// Translator turns text into the target language
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// GoogleTranslator calls the Cloud Translation v2 API
type GoogleTranslator struct {
	client *translate.Client
	log    zerolog.Logger
}

// NewGoogleTranslator builds a client from inline JSON credentials, a
// credentials file, or application default credentials, in that order.
func NewGoogleTranslator(ctx context.Context, cfg config.TranslationConfig, log zerolog.Logger) (*GoogleTranslator, error) {
	log = log.With().Str("component", "google-translate").Logger()

	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		log.Info().Msg("Using inline credentials")
		opts = append(opts, option.WithCredentialsJSON([]byte(normalizeCredentials(cfg.CredentialsJSON))))
	case cfg.CredentialsFile != "":
		path := cfg.CredentialsFile
		if !filepath.IsAbs(path) {
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("credentials file not found: %s: %w", path, err)
		}
		log.Info().Str("path", path).Msg("Using credentials file")
		opts = append(opts, option.WithCredentialsFile(path))
	default:
		log.Info().Msg("Using application default credentials")
	}
	if cfg.ProjectID != "" {
		opts = append(opts, option.WithQuotaProject(cfg.ProjectID))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create translate client: %w", err)
	}
	return &GoogleTranslator{client: client, log: log}, nil
}

// Translate translates text into target, a BCP 47 language code
func (g *GoogleTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	tag, err := language.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid target language %q: %w", target, err)
	}

	resp, err := g.client.Translate(ctx, []string{text}, tag, &translate.Options{Format: translate.Text})
	if err != nil {
		return "", err
	}
	if len(resp) == 0 {
		return "", errors.New("translation: empty response")
	}
	return resp[0].Text, nil
}

// Close releases the client connection
func (g *GoogleTranslator) Close() error {
	return g.client.Close()
}

// normalizeCredentials undoes the quoting damage inline JSON credentials
// usually pick up on their way through env files and build args.
func normalizeCredentials(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			s = s[1 : len(s)-1]
		}
	}
	if strings.Contains(s, `\"`) {
		s = strings.ReplaceAll(s, `\"`, `"`)
		s = strings.ReplaceAll(s, `\\`, `\`)
	}
	return s
}
