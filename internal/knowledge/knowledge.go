// Package knowledge implements the Knowledge Index (spec.md 4.9): a
// hybrid text/keyword retrieval surface over corpus documents and
// analysis evidence, backed by an in-memory modernc.org/sqlite database
// the way internal/store/local_vector.go in the reference pack keeps a
// keyword-searchable "vectors" table without a real embedding backend.
// Quote drift classification uses agext/levenshtein's similarity ratio
// in place of the original's Elasticsearch fuzziness score.
package knowledge

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	_ "modernc.org/sqlite"

	"github.com/discernus/discernus-core/internal/artifact"
	"github.com/discernus/discernus-core/internal/cas"
	"github.com/discernus/discernus-core/internal/logutil"
)

// Drift levels a validated quote can fall into, ordered from best to
// worst match.
const (
	DriftExact       = "exact"
	DriftMinor       = "minor"
	DriftSignificant = "significant"
	DriftMajor       = "major"
	DriftHallucination = "hallucination"
)

// Entry is one indexed unit of retrievable content.
type Entry struct {
	Content        string `json:"content"`
	DataType       string `json:"data_type"`
	SourceArtifact string `json:"source_artifact"`
	Speaker        string `json:"speaker,omitempty"`
	DocumentID     string `json:"document_id,omitempty"`
	Offset         int    `json:"offset"`
}

// payload is what gets sealed into a knowledge_index artifact —
// content_addressed so a rebuild over identical inputs reuses the
// previous index instead of re-indexing.
type payload struct {
	IndexID string  `json:"index_id"`
	Entries []Entry `json:"entries"`
}

// Hit is one query result.
type Hit struct {
	Content        string  `json:"content"`
	DataType       string  `json:"data_type"`
	SourceArtifact string  `json:"source_artifact"`
	Relevance      float64 `json:"relevance"`
	Metadata       map[string]string `json:"metadata"`
}

// QuoteValidation is validate_quote's result.
type QuoteValidation struct {
	Found      bool    `json:"found"`
	DriftLevel string  `json:"drift_level"`
	Score      float64 `json:"score"`
	BestMatch  string  `json:"best_match,omitempty"`
	FileMatch  string  `json:"file_match,omitempty"`
}

// Index is a built Knowledge Index: a queryable in-memory sqlite table
// over Entries, plus the artifact id it was cached under.
type Index struct {
	ID      string
	db      *sql.DB
	entries []Entry
}

// Builder constructs Indexes from CAS artifacts.
type Builder struct {
	store  *cas.Store
	logger logutil.LoggerInterface
}

// NewBuilder builds a Knowledge Index builder.
func NewBuilder(store *cas.Store, logger logutil.LoggerInterface) *Builder {
	return &Builder{store: store, logger: logger}
}

// Build computes index id = hash(runID ‖ artifact bytes ‖ types) over
// every corpus_document and analysis_result artifact reachable from
// artifactIDs, reuses a matching cached index if CAS already holds one,
// and otherwise constructs, persists, and returns a fresh one.
func (b *Builder) Build(ctx context.Context, runID string, artifactIDs []string) (*Index, error) {
	sort.Strings(artifactIDs)

	hasher := sha256.New()
	hasher.Write([]byte(runID))
	var entries []Entry
	for _, id := range artifactIDs {
		content, meta, err := b.store.Get(id)
		if err != nil {
			return nil, fmt.Errorf("knowledge: load artifact %s: %w", id, err)
		}
		hasher.Write(content)
		hasher.Write([]byte(meta.ArtifactType))

		switch meta.ArtifactType {
		case artifact.TypeCorpusDocument:
			var doc artifact.CorpusDocument
			if err := json.Unmarshal(content, &doc); err != nil {
				return nil, fmt.Errorf("knowledge: decode corpus document %s: %w", id, err)
			}
			entries = append(entries, Entry{
				Content:        doc.Text,
				DataType:       "corpus_document",
				SourceArtifact: id,
				DocumentID:     doc.DocumentID,
			})
		case artifact.TypeAnalysisResult:
			var result artifact.AnalysisResult
			if err := json.Unmarshal(content, &result); err != nil {
				return nil, fmt.Errorf("knowledge: decode analysis result %s: %w", id, err)
			}
			for _, e := range result.Evidence {
				entries = append(entries, Entry{
					Content:        e.Quote,
					DataType:       "evidence",
					SourceArtifact: id,
					DocumentID:     result.DocumentID,
					Offset:         e.Offset,
				})
			}
		}
	}
	indexID := hex.EncodeToString(hasher.Sum(nil))

	if cached, ok := b.lookupCached(indexID); ok {
		db, err := openIndexDB(cached)
		if err != nil {
			return nil, err
		}
		return &Index{ID: indexID, db: db, entries: cached}, nil
	}

	db, err := openIndexDB(entries)
	if err != nil {
		return nil, err
	}

	if _, err := b.store.PutArtifact(payload{IndexID: indexID, Entries: entries}, artifact.Metadata{
		ArtifactType:      artifact.TypeKnowledgeIndex,
		ProducerComponent: "knowledge",
		Parents:           artifactIDs,
		CustomFields:      map[string]any{"index_id": indexID},
	}); err != nil {
		return nil, fmt.Errorf("knowledge: persist index: %w", err)
	}

	b.logger.InfoContext(ctx, "knowledge: built index %s over %d entries", indexID, len(entries))
	return &Index{ID: indexID, db: db, entries: entries}, nil
}

func (b *Builder) lookupCached(indexID string) ([]Entry, bool) {
	for _, id := range b.store.List(cas.ByType(artifact.TypeKnowledgeIndex)) {
		content, meta, err := b.store.Get(id)
		if err != nil {
			continue
		}
		if got, _ := meta.CustomFields["index_id"].(string); got != indexID {
			continue
		}
		var p payload
		if err := json.Unmarshal(content, &p); err != nil {
			continue
		}
		return p.Entries, true
	}
	return nil, false
}

func openIndexDB(entries []Entry) (*sql.DB, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("knowledge: open index db: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE entries (
		content TEXT, data_type TEXT, source_artifact TEXT,
		speaker TEXT, document_id TEXT, offset_chars INTEGER
	)`)
	if err != nil {
		return nil, fmt.Errorf("knowledge: create index schema: %w", err)
	}
	stmt, err := db.Prepare(`INSERT INTO entries (content, data_type, source_artifact, speaker, document_id, offset_chars) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("knowledge: prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, e := range entries {
		if _, err := stmt.Exec(e.Content, e.DataType, e.SourceArtifact, e.Speaker, e.DocumentID, e.Offset); err != nil {
			return nil, fmt.Errorf("knowledge: index entry: %w", err)
		}
	}
	return db, nil
}

// Query performs keyword pre-filtered lookup, ranking hits by a
// Levenshtein-similarity relevance score against semanticQuery — the
// index's stand-in for real vector embeddings.
func (idx *Index) Query(ctx context.Context, semanticQuery string, contentTypes []string, documentID string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	var conditions []string
	var args []any
	if len(contentTypes) > 0 {
		placeholders := make([]string, len(contentTypes))
		for i, t := range contentTypes {
			placeholders[i] = "?"
			args = append(args, t)
		}
		conditions = append(conditions, "data_type IN ("+strings.Join(placeholders, ",")+")")
	}
	if documentID != "" {
		conditions = append(conditions, "document_id = ?")
		args = append(args, documentID)
	}

	query := "SELECT content, data_type, source_artifact, document_id FROM entries"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := idx.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("knowledge: query: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var content, dataType, sourceArtifact, docID string
		if err := rows.Scan(&content, &dataType, &sourceArtifact, &docID); err != nil {
			continue
		}
		relevance := levenshtein.Match(semanticQuery, content, nil)
		hits = append(hits, Hit{
			Content:        content,
			DataType:       dataType,
			SourceArtifact: sourceArtifact,
			Relevance:      relevance,
			Metadata:       map[string]string{"document_id": docID},
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Relevance > hits[j].Relevance })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// ValidateQuote classifies a synthesis-cited quote by fuzzy match score
// against the text index, guarding against fabricated evidence.
func (idx *Index) ValidateQuote(text string) QuoteValidation {
	best := ""
	bestScore := 0.0
	bestSource := ""
	for _, e := range idx.entries {
		score := levenshtein.Match(text, e.Content, nil)
		if score > bestScore {
			bestScore, best, bestSource = score, e.Content, e.SourceArtifact
		}
	}

	return QuoteValidation{
		Found:      bestScore > 0,
		DriftLevel: classifyDrift(bestScore),
		Score:      bestScore,
		BestMatch:  best,
		FileMatch:  bestSource,
	}
}

func classifyDrift(score float64) string {
	switch {
	case score >= 0.97:
		return DriftExact
	case score >= 0.85:
		return DriftMinor
	case score >= 0.65:
		return DriftSignificant
	case score >= 0.35:
		return DriftMajor
	default:
		return DriftHallucination
	}
}

// Close releases the index's in-memory database.
func (idx *Index) Close() error {
	return idx.db.Close()
}
