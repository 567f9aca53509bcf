// Package ingest loads exported post and user documents (JSON lines) into the store.
// Imported records carry no vector or score; those are written by a refresh.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	dompost "github.com/kailas-cloud/feedrank/internal/domain/post"
	domuser "github.com/kailas-cloud/feedrank/internal/domain/user"
)

// DefaultBatchSize is the number of records written per round-trip.
const DefaultBatchSize = 100

const maxLineBytes = 4 << 20

// Result counts imported records.
type Result struct {
	Posts int
	Users int
}

// Service imports JSON-lines exports.
type Service struct {
	posts     PostWriter
	users     UserWriter
	batchSize int
	logger    *zap.Logger
}

// New creates an import service.
func New(posts PostWriter, users UserWriter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{posts: posts, users: users, batchSize: DefaultBatchSize, logger: logger}
}

// WithBatchSize sets the write batch size.
func (s *Service) WithBatchSize(n int) *Service {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// ImportPosts reads one post document per line. Records without an ID get a UUID.
// A malformed line aborts the import; earlier batches stay written.
func (s *Service) ImportPosts(ctx context.Context, r io.Reader) (int, error) {
	batch := make([]dompost.Post, 0, s.batchSize)
	total := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.posts.InsertMany(ctx, batch); err != nil {
			return fmt.Errorf("insert posts: %w", err)
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	err := eachLine(r, func(n int, line []byte) error {
		var l postLine
		if err := json.Unmarshal(line, &l); err != nil {
			return fmt.Errorf("post line %d: %w", n, err)
		}
		id := firstNonEmpty(l.ID, l.LegacyID)
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := dompost.New(id, l.UserID, l.Caption, nil); err != nil {
			return fmt.Errorf("post line %d: %w", n, err)
		}
		batch = append(batch, l.toDomain(id))
		if len(batch) >= s.batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	if err := flush(); err != nil {
		return total, err
	}
	s.logger.Info("Imported posts", zap.Int("count", total))
	return total, nil
}

// ImportUsers reads one user document per line. Records without an ID get a UUID.
func (s *Service) ImportUsers(ctx context.Context, r io.Reader) (int, error) {
	batch := make([]domuser.User, 0, s.batchSize)
	total := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.users.InsertMany(ctx, batch); err != nil {
			return fmt.Errorf("insert users: %w", err)
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	err := eachLine(r, func(n int, line []byte) error {
		var l userLine
		if err := json.Unmarshal(line, &l); err != nil {
			return fmt.Errorf("user line %d: %w", n, err)
		}
		id := firstNonEmpty(l.ID, l.LegacyID)
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := domuser.New(id, l.Name, l.Bio, nil); err != nil {
			return fmt.Errorf("user line %d: %w", n, err)
		}
		batch = append(batch, l.toDomain(id))
		if len(batch) >= s.batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	if err := flush(); err != nil {
		return total, err
	}
	s.logger.Info("Imported users", zap.Int("count", total))
	return total, nil
}

// eachLine calls fn for every non-blank line with its 1-based number.
func eachLine(r io.Reader, fn func(n int, line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	n := 0
	for sc.Scan() {
		n++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read line %d: %w", n+1, err)
	}
	return nil
}
