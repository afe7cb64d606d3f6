package answer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/docqa/ai"
	"github.com/poiesic/docqa/cache"
	"github.com/poiesic/docqa/core"
	"github.com/poiesic/docqa/search"
	"github.com/poiesic/docqa/storage"
)

// Answer is the outcome of asking a question.
type Answer struct {
	// Text is the answer text. For NoAnswer results it is the generator's
	// refusal, containing the no-answer sentinel.
	Text string

	// Sources identifies the chunks the answer was grounded on.
	Sources []core.SourceRef

	// Cached reports whether the answer was served from the cache.
	Cached bool

	// NoAnswer reports that the knowledge base had insufficient evidence.
	NoAnswer bool
}

// Service answers questions against the document knowledge base. It ties
// together role-based visibility, the answer cache, hybrid retrieval and
// grounded generation.
type Service struct {
	documents storage.DocumentRepository
	queries   storage.QueryRepository
	searcher  *search.Searcher
	cache     *cache.Cache
	embedder  ai.Embedder
	generator ai.Generator
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates a new answer service.
func NewService(
	documents storage.DocumentRepository,
	queries storage.QueryRepository,
	searcher *search.Searcher,
	answerCache *cache.Cache,
	provider ai.AIProvider,
	opts ...Option,
) (*Service, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if queries == nil {
		return nil, ErrQueryRepositoryRequired
	}
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if answerCache == nil {
		return nil, ErrCacheRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Service{
		documents: documents,
		queries:   queries,
		searcher:  searcher,
		cache:     answerCache,
		embedder:  provider.Embedder(),
		generator: provider.Generator(),
		logger:    slog.Default().With("component", "answer"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Ask answers a question on behalf of a user with the given role. The
// cache is consulted first; on a miss, retrieval runs over the documents
// visible to the role and the generator produces an answer grounded in
// the retrieved chunks. Successful answers are cached for the role; a
// cache write failure is logged but never fails the ask.
func (s *Service) Ask(ctx context.Context, question string, role core.Role) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if err := core.ValidateRole(role); err != nil {
		return nil, err
	}

	vector, err := s.embedder.EmbedText(ctx, question)
	if err != nil {
		return nil, err
	}

	if entry, hit, err := s.cache.Lookup(ctx, vector, role); err != nil {
		s.logger.Warn("cache lookup failed, continuing without cache", "err", err)
	} else if hit {
		s.logger.Debug("answered from cache", "entry", entry.Id)
		return &Answer{
			Text:     entry.Answer,
			Sources:  entry.Sources,
			Cached:   true,
			NoAnswer: ai.IsNoAnswer(entry.Answer),
		}, nil
	}

	visible, err := s.documents.VisibleDocumentIDs(ctx, role)
	if err != nil {
		return nil, err
	}

	ranked, err := s.searcher.SearchVector(ctx, question, vector, visible)
	if err != nil {
		return nil, err
	}

	passages := make([]string, len(ranked))
	sources := make([]core.SourceRef, len(ranked))
	for i, r := range ranked {
		passages[i] = r.Chunk.Content
		sources[i] = core.SourceRef{
			DocumentId: r.Chunk.DocumentId,
			ChunkId:    r.Chunk.Id,
		}
	}

	text, err := s.generator.Answer(ctx, question, passages)
	if err != nil {
		return nil, err
	}

	if ai.IsNoAnswer(text) {
		s.logger.Info("insufficient evidence to answer", "role", role)
		return &Answer{Text: text, NoAnswer: true}, nil
	}

	if _, err := s.cache.Save(ctx, question, role, vector, text, sources); err != nil {
		// The answer is still good; only future reuse is lost.
		s.logger.Warn("failed to cache answer", "err", err)
	}

	return &Answer{Text: text, Sources: sources}, nil
}

// CaptureQuery records an unanswered customer question for human
// follow-up. Contact details are optional.
func (s *Service) CaptureQuery(ctx context.Context, question, contactName, contactEmail string) (*core.CustomerQuery, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	q, err := s.queries.AddCustomerQuery(ctx, &core.CustomerQuery{
		Question:     question,
		ContactName:  contactName,
		ContactEmail: contactEmail,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("captured customer query", "query", q.Id)
	return q, nil
}
