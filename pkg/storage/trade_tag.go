package storage

import (
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/tidwall/buntdb"

	"github.com/raykavin/tradecore/pkg/core"
)

// TradeTagStore persists the append-only trail of filter-gate decisions
// behind every signal (§4.4), independent of whether it resulted in a
// trade, so rejected signals remain auditable.
type TradeTagStore interface {
	Save(tag core.TradeTag) error
	Recent(pair string, limit int) ([]core.TradeTag, error)
	Close() error
}

type buntTradeTagStore struct {
	lastID int64
	db     *buntdb.DB
}

func NewTradeTagStore(sourceFile string) (TradeTagStore, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open trade tag store: %w", err)
	}

	if err := db.CreateIndex("pair_index", "*", buntdb.IndexJSON("Pair")); err != nil {
		return nil, fmt.Errorf("failed to create trade tag index: %w", err)
	}

	return &buntTradeTagStore{db: db}, nil
}

func (s *buntTradeTagStore) Save(tag core.TradeTag) error {
	id := atomic.AddInt64(&s.lastID, 1)
	content, err := json.Marshal(tag)
	if err != nil {
		return fmt.Errorf("failed to marshal trade tag: %w", err)
	}

	return s.db.Update(func(tx *buntdb.Tx) error {
		// Zero-padded so keys sort numerically and Descend returns the
		// newest tags of a pair first.
		_, _, err := tx.Set(fmt.Sprintf("%020d", id), string(content), nil)
		return err
	})
}

func (s *buntTradeTagStore) Recent(pair string, limit int) ([]core.TradeTag, error) {
	var tags []core.TradeTag

	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.Descend("pair_index", func(_, value string) bool {
			var tag core.TradeTag
			if err := json.Unmarshal([]byte(value), &tag); err != nil {
				return true
			}
			if pair != "" && tag.Pair != pair {
				return true
			}
			tags = append(tags, tag)
			return limit <= 0 || len(tags) < limit
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan trade tags: %w", err)
	}
	return tags, nil
}

func (s *buntTradeTagStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
