package application

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/mkrv/qabot/internal/domain"
	"github.com/mkrv/qabot/internal/metrics"
	"github.com/mkrv/qabot/internal/ports"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSimilarityThreshold = 0.85
	rebuildParallelism         = 4
	keywordResultLimit         = 10
)

type indexEntry struct {
	record domain.QARecord
	vector domain.Vector
}

// Index is one immutable snapshot of the searchable knowledge base. Records
// holds every loaded record; entries only those whose embedding resolved.
type Index struct {
	records []domain.QARecord
	entries []indexEntry
}

func (idx *Index) Size() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// IndexService rebuilds the derived index wholesale whenever the record list
// changes and answers similarity searches against the current snapshot.
// Rebuilds produce a complete new Index and swap it in atomically, so
// concurrent searches always observe one consistent snapshot.
type IndexService struct {
	records   ports.RecordStore
	cache     *VectorCache
	embed     *EmbedService
	threshold float64
	metrics   *metrics.Set

	snapshot atomic.Pointer[Index]
}

func NewIndexService(records ports.RecordStore, cache *VectorCache, embed *EmbedService, threshold float64, set *metrics.Set) *IndexService {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	s := &IndexService{
		records:   records,
		cache:     cache,
		embed:     embed,
		threshold: threshold,
		metrics:   set,
	}
	s.snapshot.Store(&Index{})
	return s
}

// Rebuild loads the record list, invalidates the cache if the aggregate
// content hash moved, resolves every record's vector, and swaps in the new
// snapshot. Records that fail to embed are excluded from the searchable set
// and reported through a domain.IndexIncompleteError; a failed load keeps
// the previous snapshot live.
func (s *IndexService) Rebuild(ctx context.Context) error {
	records, err := s.records.Load(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	if err := s.cache.SetContentHash(ctx, domain.ContentHash(records)); err != nil {
		return err
	}

	vectors := make([]domain.Vector, len(records))
	failures := make([]error, len(records))

	var group errgroup.Group
	group.SetLimit(rebuildParallelism)
	for i := range records {
		i := i
		group.Go(func() error {
			vector, err := s.cache.GetOrCompute(ctx, records[i].Question, s.embed.Embed)
			if err != nil {
				failures[i] = err
				return nil
			}
			vectors[i] = vector
			return nil
		})
	}
	_ = group.Wait()

	index := &Index{records: records}
	var failed []domain.RecordID
	for i, record := range records {
		if failures[i] != nil {
			log.Printf("Excluding record #%d from index: %v", record.ID, failures[i])
			failed = append(failed, record.ID)
			continue
		}
		index.entries = append(index.entries, indexEntry{record: record, vector: vectors[i]})
	}

	s.snapshot.Store(index)
	s.metrics.SetIndexedRecords(len(index.entries))

	if len(failed) > 0 {
		sort.Slice(failed, func(i, j int) bool { return failed[i] < failed[j] })
		return &domain.IndexIncompleteError{Failed: failed}
	}
	return nil
}

// Hydrate refreshes the snapshot's record list without resolving any
// embeddings, for read-only browsing. The searchable entries carry over
// unchanged; only Rebuild recomputes them.
func (s *IndexService) Hydrate(ctx context.Context) error {
	records, err := s.records.Load(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	current := s.snapshot.Load()
	s.snapshot.Store(&Index{records: records, entries: current.entries})
	return nil
}

// Search returns the best match above the threshold, or false. Ties resolve
// to the lowest record id so repeated searches are reproducible.
func (s *IndexService) Search(query domain.Vector) (domain.Match, bool) {
	index := s.snapshot.Load()
	if index.Size() == 0 || len(query) == 0 || query.IsZero() {
		return domain.Match{}, false
	}

	best := domain.Match{Score: -2}
	for _, entry := range index.entries {
		score := domain.Cosine(query, entry.vector)
		if score > best.Score || (score == best.Score && entry.record.ID < best.RecordID) {
			best = domain.Match{RecordID: entry.record.ID, Score: score}
		}
	}

	if best.Score < s.threshold {
		return domain.Match{}, false
	}
	return best, true
}

// Record returns a record from the current snapshot by id.
func (s *IndexService) Record(id domain.RecordID) (domain.QARecord, bool) {
	for _, record := range s.snapshot.Load().records {
		if record.ID == id {
			return record, true
		}
	}
	return domain.QARecord{}, false
}

// Records returns the snapshot's record list in store order.
func (s *IndexService) Records() []domain.QARecord {
	records := s.snapshot.Load().records
	out := make([]domain.QARecord, len(records))
	copy(out, records)
	return out
}

// Lookup is the keyword fallback for administrators browsing the knowledge
// base: case-insensitive substring match over question texts, capped to keep
// replies small. It never feeds the matching path.
func (s *IndexService) Lookup(keywords string) []domain.QARecord {
	needle := strings.ToLower(strings.TrimSpace(keywords))
	if needle == "" {
		return nil
	}

	var out []domain.QARecord
	for _, record := range s.snapshot.Load().records {
		if strings.Contains(strings.ToLower(record.Question), needle) {
			out = append(out, record)
			if len(out) == keywordResultLimit {
				break
			}
		}
	}
	return out
}
