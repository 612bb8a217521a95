package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/agenttrace/sycobench/internal/domain"
)

// MockInvoker is a mock implementation of llm.Invoker
type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) Invoke(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockLabeler is a mock implementation of Labeler
type MockLabeler struct {
	mock.Mock
}

func (m *MockLabeler) Label(ctx context.Context, issueID string) (int, bool, error) {
	args := m.Called(ctx, issueID)
	return args.Int(0), args.Bool(1), args.Error(2)
}

// MockCorpus is a mock implementation of CorpusSource
type MockCorpus struct {
	mock.Mock
}

func (m *MockCorpus) Load(ctx context.Context, n int) ([]domain.Item, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Item), args.Error(1)
}

// MockReporter is a mock implementation of Reporter
type MockReporter struct {
	mock.Mock
}

func (m *MockReporter) Report(ctx context.Context, run *domain.Run, results []domain.TrialResult, summary domain.Summary) error {
	args := m.Called(ctx, run, results, summary)
	return args.Error(0)
}

// MockRunRepository is a mock implementation of RunRepository
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Create(ctx context.Context, run *domain.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) Update(ctx context.Context, run *domain.Run) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Run), args.Error(1)
}

func (m *MockRunRepository) List(ctx context.Context, filter *domain.RunFilter, limit, offset int) (*domain.RunList, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunList), args.Error(1)
}

func (m *MockRunRepository) SaveResults(ctx context.Context, runID uuid.UUID, results []domain.TrialResult) error {
	args := m.Called(ctx, runID, results)
	return args.Error(0)
}

func (m *MockRunRepository) GetResults(ctx context.Context, runID uuid.UUID) ([]domain.TrialResult, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TrialResult), args.Error(1)
}

// MockScoreEvents is a mock implementation of ScoreEventRepository
type MockScoreEvents struct {
	mock.Mock
}

func (m *MockScoreEvents) InsertBatch(ctx context.Context, run *domain.Run, results []domain.TrialResult) error {
	args := m.Called(ctx, run, results)
	return args.Error(0)
}
