package app

import (
	"context"
	"errors"
	"sync"

	"github.com/bft-labs/radbatch/internal/domain"
	"github.com/bft-labs/radbatch/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// mockExtractor returns a fixed result per mask path.
type mockExtractor struct {
	mu      sync.Mutex
	results map[string]domain.Result
	errs    map[string]error
	calls   []string
	onCall  func()
}

func (m *mockExtractor) Execute(ctx context.Context, imagePath, maskPath string) (domain.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, maskPath)
	onCall := m.onCall
	m.mu.Unlock()
	if onCall != nil {
		onCall()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.errs[maskPath]; ok {
		return nil, err
	}
	if res, ok := m.results[maskPath]; ok {
		return res, nil
	}
	return domain.Result{{Name: "original_firstorder_Mean", Value: domain.Number(1)}}, nil
}

func (m *mockExtractor) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// mockVolumeWriter records written paths.
type mockVolumeWriter struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (m *mockVolumeWriter) Write(path string, vol *domain.Volume) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.paths = append(m.paths, path)
	return nil
}

// mockTableWriter captures written tables.
type mockTableWriter struct {
	mu      sync.Mutex
	path    string
	table   *domain.Table
	writes  int
	written chan struct{}
}

func (m *mockTableWriter) WriteTable(path string, table *domain.Table) error {
	m.mu.Lock()
	m.path = path
	m.table = table
	m.writes++
	ch := m.written
	m.mu.Unlock()
	if ch != nil {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (m *mockTableWriter) Snapshot() (string, *domain.Table, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.path, m.table, m.writes
}

// mockStatusRepo keeps every saved status.
type mockStatusRepo struct {
	mu    sync.Mutex
	saves []domain.RunStatus
}

func (m *mockStatusRepo) Load(ctx context.Context) (domain.RunStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saves) == 0 {
		return domain.RunStatus{}, nil
	}
	return m.saves[len(m.saves)-1], nil
}

func (m *mockStatusRepo) Save(ctx context.Context, status domain.RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, status)
	return nil
}

func (m *mockStatusRepo) Last() domain.RunStatus {
	s, _ := m.Load(context.Background())
	return s
}

var errExtract = errors.New("extraction failed")
