package reply

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tastyreply/reviews-service/internal/app/reviews/entity"
	"tastyreply/pkg/metrics"
)

const DefaultTimeout = 15 * time.Second

var ErrEmptyCompletion = errors.New("completion returned empty text")

type CompletionRequest struct {
	System string
	Prompt string
}

// Completer - внешний сервис генерации текста.
// Одна попытка на вызов, повторы - ответственность реализации.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Generator строит варианты ответа для всех тонов.
// Отказ completion API для тона заменяется шаблоном из каталога.
type Generator struct {
	completer Completer
	catalog   *Catalog
	timeout   time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

type Option func(*Generator)

func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(g *Generator) {
		g.log = l
	}
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator - completer может быть nil, тогда все варианты берутся из каталога
func NewGenerator(completer Completer, catalog *Catalog, opts ...Option) *Generator {
	if catalog == nil {
		catalog = NewCatalog(FirstVariant)
	}
	g := &Generator{
		completer: completer,
		catalog:   catalog,
		timeout:   DefaultTimeout,
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate возвращает ровно один вариант на каждый тон в порядке entity.Tones().
// Вызовы идут параллельно, результат собирается по индексу тона,
// порядок завершения на него не влияет. При отмене ctx возвращается ошибка контекста.
func (g *Generator) Generate(ctx context.Context, review entity.Review, info entity.BusinessInfo) ([]entity.ReplyCandidate, error) {
	tones := entity.Tones()
	info = info.WithDefaults()
	candidates := make([]entity.ReplyCandidate, len(tones))

	var eg errgroup.Group
	for i, tone := range tones {
		i, tone := i, tone
		eg.Go(func() error {
			candidates[i] = g.candidate(ctx, review, info, tone)
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return candidates, nil
}

// GenerateOne - упрощённая форма: один вариант заданного тона
func (g *Generator) GenerateOne(ctx context.Context, review entity.Review, info entity.BusinessInfo, tone entity.Tone) (entity.ReplyCandidate, error) {
	if _, ok := entity.ParseTone(string(tone)); !ok {
		tone = DefaultTone(review.Rating)
	}

	candidate := g.candidate(ctx, review, info.WithDefaults(), tone)
	if err := ctx.Err(); err != nil {
		return entity.ReplyCandidate{}, err
	}
	return candidate, nil
}

// DefaultTone - тон для упрощённой генерации, когда клиент его не указал
func DefaultTone(rating int) entity.Tone {
	switch BandForRating(rating) {
	case BandHigh:
		return entity.ToneFriendly
	case BandMedium:
		return entity.ToneProfessional
	default:
		return entity.ToneApologetic
	}
}

func (g *Generator) candidate(ctx context.Context, review entity.Review, info entity.BusinessInfo, tone entity.Tone) entity.ReplyCandidate {
	text, err := g.complete(ctx, review, info, tone)
	if err != nil {
		g.log.Warn().
			Err(err).
			Str("tone", string(tone)).
			Int("rating", review.Rating).
			Msg("Completion failed, using fallback reply")

		metrics.RecordReplyGeneration(string(tone), string(entity.SourceFallback))
		return entity.ReplyCandidate{
			Text:        g.catalog.Lookup(tone, BandForRating(review.Rating), review.CustomerName),
			Tone:        tone,
			Source:      entity.SourceFallback,
			GeneratedAt: g.now(),
		}
	}

	metrics.RecordReplyGeneration(string(tone), string(entity.SourceAI))
	return entity.ReplyCandidate{
		Text:        text,
		Tone:        tone,
		Source:      entity.SourceAI,
		GeneratedAt: g.now(),
	}
}

func (g *Generator) complete(ctx context.Context, review entity.Review, info entity.BusinessInfo, tone entity.Tone) (string, error) {
	if g.completer == nil {
		return "", errors.New("completion service is not configured")
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	// Буфер на один ответ: горутина не зависнет, если ответ уже не ждут
	done := make(chan result, 1)
	go func() {
		text, err := g.completer.Complete(callCtx, CompletionRequest{
			System: SystemInstruction(tone, info.BusinessType),
			Prompt: BuildPrompt(review, info, tone),
		})
		done <- result{text: text, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-callCtx.Done():
		return "", callCtx.Err()
	}
	// Ответ после дедлайна не принимаем
	if err := callCtx.Err(); err != nil {
		return "", err
	}
	if res.err != nil {
		return "", res.err
	}

	text := strings.TrimSpace(res.text)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
