// Package history persists swap records to a local JSON file, one file
// per wallet address.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/zk-web3/darknodedex-sub000/business/swap/app"
	"github.com/zk-web3/darknodedex-sub000/business/swap/domain"
	"github.com/zk-web3/darknodedex-sub000/internal/apperror"
	"github.com/zk-web3/darknodedex-sub000/internal/logger"
)

const defaultCap = 200

var _ app.HistoryStore = (*Store)(nil)

// Store is a capped, append-only swap history on disk. Newest records
// come first; the file is rewritten whole on every append, which is fine
// at the cap sizes involved.
type Store struct {
	dir    string
	cap    int
	logger logger.LoggerInterface

	mu sync.Mutex
}

// NewStore creates the history directory if needed. An empty dir places
// the history under the user's home directory; cap <= 0 falls back to
// the default.
func NewStore(dir string, cap int, log logger.LoggerInterface) (*Store, error) {
	if cap <= 0 {
		cap = defaultCap
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".darknodedex", "history")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}
	return &Store{dir: dir, cap: cap, logger: log}, nil
}

// Append prepends the record to the wallet's history and drops the
// oldest entries beyond the cap.
func (s *Store) Append(ctx context.Context, wallet common.Address, record domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(wallet)
	if err != nil {
		return err
	}

	records = append([]domain.Record{record}, records...)
	if len(records) > s.cap {
		records = records[:s.cap]
	}

	if err := s.save(wallet, records); err != nil {
		return err
	}

	s.logger.Debug(ctx, "history record appended",
		"wallet", wallet.Hex(),
		"pair", record.Pair,
		"status", string(record.Status),
	)
	return nil
}

// List returns the wallet's records, newest first. A wallet with no
// history gets an empty slice, not an error.
func (s *Store) List(ctx context.Context, wallet common.Address) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(wallet)
}

func (s *Store) load(wallet common.Address) ([]domain.Record, error) {
	data, err := os.ReadFile(s.path(wallet))
	if os.IsNotExist(err) {
		return []domain.Record{}, nil
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeHistoryReadFailed, "reading history file")
	}

	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeHistoryReadFailed, "decoding history file")
	}
	return records, nil
}

func (s *Store) save(wallet common.Address, records []domain.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return apperror.Wrap(err, apperror.CodeHistoryWriteFailed, "encoding history")
	}

	// Write-then-rename keeps the file whole if the process dies mid-write.
	path := s.path(wallet)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return apperror.Wrap(err, apperror.CodeHistoryWriteFailed, "writing history file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return apperror.Wrap(err, apperror.CodeHistoryWriteFailed, "replacing history file")
	}
	return nil
}

func (s *Store) path(wallet common.Address) string {
	name := strings.ToLower(wallet.Hex()) + ".json"
	return filepath.Join(s.dir, name)
}
