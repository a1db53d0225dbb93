// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/I-No-oNe/TuneX/internal/models"
	"github.com/I-No-oNe/TuneX/internal/resolver"
	"github.com/I-No-oNe/TuneX/internal/shared"
)

// MockResolver is a test double for [resolver.Resolver] with per-operation
// call counters. All fields are safe for concurrent use.
type MockResolver struct {
	mu           sync.Mutex
	resolveCalls int
	searchCalls  int
	relatedCalls int

	ResolveFn func(ctx context.Context, id string) (*resolver.Resolution, error)
	SearchFn  func(ctx context.Context, query string) ([]models.Track, error)
	RelatedFn func(ctx context.Context, id string) ([]models.Track, error)
}

func (m *MockResolver) Resolve(ctx context.Context, id string) (*resolver.Resolution, error) {
	m.mu.Lock()
	m.resolveCalls++
	fn := m.ResolveFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}
	return &resolver.Resolution{
		StreamURL: "https://audio.example/" + id,
		Track:     models.Track{ID: id, Title: "Track " + id},
	}, nil
}

func (m *MockResolver) Search(ctx context.Context, query string) ([]models.Track, error) {
	m.mu.Lock()
	m.searchCalls++
	fn := m.SearchFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, query)
	}
	return []models.Track{}, nil
}

func (m *MockResolver) Related(ctx context.Context, id string) ([]models.Track, error) {
	m.mu.Lock()
	m.relatedCalls++
	fn := m.RelatedFn
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, id)
	}
	return []models.Track{}, nil
}

func (m *MockResolver) ResolveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveCalls
}

func (m *MockResolver) SearchCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searchCalls
}

func (m *MockResolver) RelatedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.relatedCalls
}

// SetupTestDB creates an in-memory SQLite database with migrations applied
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// An in-memory database exists per connection; keep the pool at one.
	shared.ConfigureDatabase(db, shared.DatabaseConfig{MaxOpenConns: 1, MaxIdleConns: 1})

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}
