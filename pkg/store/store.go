package store

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"log/slog"
	"math"
	"os"
	"strings"
	"unicode"

	"github.com/johncui/vega/pkg/model"
	"github.com/johncui/vega/pkg/store/sqlite"
	"github.com/johncui/vega/pkg/store/vector"
)

// DefaultRecallK is how many facts recall returns unless told otherwise.
const DefaultRecallK = 2

// Options configures FactStore.
type Options struct {
	DBPath         string
	EnableVSS      bool
	ExtensionsPath string
	VectorDim      int
	Embedder       model.EmbeddingClient
	Logger         *slog.Logger
}

// FactStore is the content-addressed long-term memory.
type FactStore struct {
	db       *sqlite.Database
	vec      *vector.Store
	embedder model.EmbeddingClient
	logger   *slog.Logger
}

// NewFactStore initializes storage layers.
func NewFactStore(ctx context.Context, opt Options) (*FactStore, error) {
	if opt.Logger == nil {
		opt.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	db, err := sqlite.New(ctx, sqlite.Config{
		Path:           opt.DBPath,
		EnableVSS:      opt.EnableVSS,
		ExtensionsPath: opt.ExtensionsPath,
		VectorDim:      opt.VectorDim,
		Logger:         opt.Logger,
	})
	if err != nil {
		return nil, err
	}

	emb := opt.Embedder
	if emb == nil {
		emb = NewHashEmbedder(db.VectorDim())
	}

	return &FactStore{
		db:       db,
		vec:      vector.New(db.DB(), db.HasVSS(), db.VectorDim()),
		embedder: emb,
		logger:   opt.Logger,
	}, nil
}

// FactID returns the stable id of a statement: the sha256 of its
// whitespace-normalized text.
func FactID(text string) string {
	sum := sha256.Sum256([]byte(normalize(text)))
	return hex.EncodeToString(sum[:])
}

func normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Remember persists text as a Fact. Re-adding known text is a no-op that
// returns the stored Fact.
func (s *FactStore) Remember(ctx context.Context, text string) (model.Fact, error) {
	text = normalize(text)
	if text == "" {
		return model.Fact{}, errors.New("fact text is empty")
	}
	id := FactID(text)

	existing, ok, err := s.db.GetFact(ctx, id)
	if err != nil {
		return model.Fact{}, err
	}
	if ok {
		s.logger.Info("fact already known", "id", id, "text", text)
		return existing, nil
	}

	emb, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		// still keep the statement; it just won't be found by recall
		s.logger.Warn("embedding failed, storing fact without vector", "id", id, "err", err)
		emb = nil
	}

	created, err := s.db.InsertFact(ctx, model.Fact{ID: id, Text: text}, emb)
	if err != nil {
		return model.Fact{}, err
	}
	if created && len(emb) > 0 && s.vec.Enabled() {
		if err := s.vec.UpsertEmbedding(ctx, id, emb); err != nil {
			s.logger.Warn("vss index update failed", "id", id, "err", err)
		}
	}
	s.logger.Info("storing new fact", "id", id, "text", text)

	f, _, err := s.db.GetFact(ctx, id)
	if err != nil {
		return model.Fact{}, err
	}
	return f, nil
}

// Recall returns up to topK facts ranked by similarity to query. Backend
// failures are logged and yield an empty result.
func (s *FactStore) Recall(ctx context.Context, query string, topK int) []model.Fact {
	if topK <= 0 {
		topK = DefaultRecallK
	}
	facts, err := s.recall(ctx, query, topK)
	if err != nil {
		s.logger.Warn("recall failed", "query", query, "err", err)
		return nil
	}
	return facts
}

func (s *FactStore) recall(ctx context.Context, query string, topK int) ([]model.Fact, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	emb, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}

	if s.vec.Enabled() {
		ids, err := s.vec.Search(ctx, emb, topK)
		if err != nil {
			return nil, err
		}
		return s.db.FetchFacts(ctx, ids)
	}

	stored, err := s.db.EmbeddedFacts(ctx)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, nil
	}
	candidates := make([]vector.Candidate, len(stored))
	byID := make(map[string]model.Fact, len(stored))
	for i, e := range stored {
		candidates[i] = vector.Candidate{ID: e.Fact.ID, Embedding: e.Embedding}
		byID[e.Fact.ID] = e.Fact
	}
	matches := vector.TopK(emb, candidates, topK)
	out := make([]model.Fact, 0, len(matches))
	for _, m := range matches {
		out = append(out, byID[m.ID])
	}
	return out, nil
}

// List returns the most recent facts.
func (s *FactStore) List(ctx context.Context, limit int) ([]model.Fact, error) {
	return s.db.RecentFacts(ctx, limit)
}

// Forget deletes a fact. It is an administrative operation; the dialogue
// engine never calls it.
func (s *FactStore) Forget(ctx context.Context, id string) (bool, error) {
	return s.db.DeleteFact(ctx, id)
}

// Count returns the number of stored facts.
func (s *FactStore) Count(ctx context.Context) (int64, error) {
	return s.db.CountFacts(ctx)
}

// Close releases resources.
func (s *FactStore) Close() error {
	return s.db.Close()
}

// HashEmbedder is a deterministic, dependency-free embedder that keeps the
// assistant local-first. Each word is hashed into a signed bucket, so texts
// sharing words end up close under cosine similarity.
type HashEmbedder struct {
	dim int
}

func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashEmbedder{dim: dim}
}

// EmbedText hashes the words of text into a normalized vector.
func (h *HashEmbedder) EmbedText(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, h.dim)
	for _, tok := range tokenize(text) {
		hash := sha256.Sum256([]byte(tok))
		idx := binary.LittleEndian.Uint32(hash[:4]) % uint32(h.dim)
		if hash[4]&1 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return vec, nil
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

var _ model.FactMemory = (*FactStore)(nil)
var _ model.EmbeddingClient = (*HashEmbedder)(nil)
