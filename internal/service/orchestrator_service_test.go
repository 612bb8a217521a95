package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/agenttrace/sycobench/internal/domain"
	"github.com/agenttrace/sycobench/internal/llm"
	apperrors "github.com/agenttrace/sycobench/internal/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func makeItems(n int) []domain.Item {
	items := make([]domain.Item, n)
	for i := range items {
		items[i] = domain.Item{
			ID:          fmt.Sprintf("issue_%d", i),
			Title:       fmt.Sprintf("Fix bug in function %d", i),
			Description: fmt.Sprintf("Description %d", i),
		}
	}
	return items
}

// deterministicInvoker answers from the prompt alone: generations echo the
// issue title and ratings depend on framing and title length.
func deterministicInvoker(delay time.Duration) llm.InvokerFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		if delay > 0 {
			time.Sleep(delay)
		}
		if strings.HasPrefix(prompt, "Create a PR") {
			title := strings.TrimPrefix(strings.SplitN(prompt, "\n", 4)[2], "Issue: ")
			return fmt.Sprintf("- Title: PR for %s\n- Body: body\n- Diff: + fix", title), nil
		}
		n := len(prompt) % 4
		if strings.HasPrefix(prompt, "You wrote") {
			return fmt.Sprint(6 + n), nil
		}
		return fmt.Sprint(3 + n), nil
	}
}

func newOrchestrator(inv llm.Invoker, labeler Labeler) *OrchestratorService {
	log := zap.NewNop()
	return NewOrchestratorService(NewGeneratorService(inv, 0, log), NewScorerService(inv, log), labeler, log)
}

func TestOrchestratorService_PreservesOrder(t *testing.T) {
	items := makeItems(25)
	orch := newOrchestrator(deterministicInvoker(time.Millisecond), nil)

	for _, mode := range []domain.RunMode{domain.RunModeSequential, domain.RunModeConcurrent} {
		t.Run(string(mode), func(t *testing.T) {
			results, err := orch.Run(context.Background(), items, mode, 8)

			require.NoError(t, err)
			require.Len(t, results, len(items))
			for i, r := range results {
				assert.Equal(t, items[i].ID, r.IssueID)
				assert.Equal(t, items[i].Title, r.IssueTitle)
				assert.Equal(t, "PR for "+items[i].Title, r.PRTitle)
				assert.Equal(t, r.RatingSelf-r.RatingOther, r.SelfOtherDiff)
				assert.Nil(t, r.GroundTruth)
			}
		})
	}
}

func TestOrchestratorService_ConcurrentMatchesSequential(t *testing.T) {
	items := makeItems(10)
	orch := newOrchestrator(deterministicInvoker(0), nil)

	sequential, err := orch.Run(context.Background(), items, domain.RunModeSequential, 1)
	require.NoError(t, err)

	for _, workers := range []int{1, 3, 16} {
		concurrent, err := orch.Run(context.Background(), items, domain.RunModeConcurrent, workers)
		require.NoError(t, err)
		assert.Equal(t, sequential, concurrent, "workers=%d", workers)
	}
}

func TestOrchestratorService_BoundsInFlightCalls(t *testing.T) {
	var inFlight, peak int32
	inv := llm.InvokerFunc(func(ctx context.Context, prompt string) (string, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		return deterministicInvoker(0)(ctx, prompt)
	})

	_, err := newOrchestrator(inv, nil).Run(context.Background(), makeItems(20), domain.RunModeConcurrent, 3)

	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestOrchestratorService_AlwaysFailingInvoker(t *testing.T) {
	inv := llm.InvokerFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", apperrors.ModelUnavailable("down")
	})
	items := makeItems(4)

	for _, mode := range []domain.RunMode{domain.RunModeSequential, domain.RunModeConcurrent} {
		t.Run(string(mode), func(t *testing.T) {
			results, err := newOrchestrator(inv, nil).Run(context.Background(), items, mode, 2)

			require.NoError(t, err)
			require.Len(t, results, 4)
			for i, r := range results {
				assert.Equal(t, "Fix: "+items[i].Title, r.PRTitle)
				assert.Equal(t, domain.NeutralScore, r.RatingSelf)
				assert.Equal(t, domain.NeutralScore, r.RatingOther)
				assert.Zero(t, r.SelfOtherDiff)
				assert.Equal(t, domain.ArtifactSourceFallback, r.ArtifactSource)
				assert.True(t, r.SelfFallback)
				assert.True(t, r.OtherFallback)
			}
		})
	}
}

type panickingGenerator struct{ on string }

func (g panickingGenerator) Generate(ctx context.Context, item domain.Item) domain.Artifact {
	if item.ID == g.on {
		panic("generator exploded")
	}
	return domain.Artifact{IssueID: item.ID, Title: "ok", Body: "ok", Diff: "ok", Source: domain.ArtifactSourceModel}
}

type panickingScorer struct{ framing domain.Framing }

func (s panickingScorer) Score(ctx context.Context, a domain.Artifact, f domain.Framing) (domain.ScoreResult, error) {
	if f == s.framing {
		panic("scorer exploded")
	}
	return domain.MeasuredScore(9), nil
}

func TestOrchestratorService_RecoversPanics(t *testing.T) {
	items := makeItems(3)
	orch := NewOrchestratorService(panickingGenerator{on: "issue_1"}, panickingScorer{framing: domain.FramingOther}, nil, zap.NewNop())

	for _, mode := range []domain.RunMode{domain.RunModeSequential, domain.RunModeConcurrent} {
		t.Run(string(mode), func(t *testing.T) {
			results, err := orch.Run(context.Background(), items, mode, 2)

			require.NoError(t, err)
			require.Len(t, results, 3)
			assert.Equal(t, domain.ArtifactSourceFallback, results[1].ArtifactSource)
			assert.Equal(t, "Fix: "+items[1].Title, results[1].PRTitle)
			assert.Equal(t, domain.ArtifactSourceModel, results[0].ArtifactSource)
			for _, r := range results {
				assert.Equal(t, 9.0, r.RatingSelf)
				assert.Equal(t, domain.NeutralScore, r.RatingOther)
				assert.True(t, r.OtherFallback)
			}
		})
	}
}

func TestOrchestratorService_GroundTruth(t *testing.T) {
	labeler := new(MockLabeler)
	labeler.On("Label", mock.Anything, "issue_0").Return(1, true, nil)
	labeler.On("Label", mock.Anything, "issue_1").Return(0, false, nil)
	labeler.On("Label", mock.Anything, "issue_2").Return(0, false, fmt.Errorf("redis down"))

	results, err := newOrchestrator(deterministicInvoker(0), labeler).
		Run(context.Background(), makeItems(3), domain.RunModeConcurrent, 2)

	require.NoError(t, err)
	require.NotNil(t, results[0].GroundTruth)
	assert.Equal(t, 1, *results[0].GroundTruth)
	assert.Nil(t, results[1].GroundTruth)
	assert.Nil(t, results[2].GroundTruth)
	labeler.AssertExpectations(t)
}

func TestOrchestratorService_Validation(t *testing.T) {
	inv := new(MockInvoker)
	orch := newOrchestrator(inv, nil)

	_, err := orch.Run(context.Background(), makeItems(1), "parallel", 2)
	assert.True(t, apperrors.IsValidation(err))

	_, err = orch.Run(context.Background(), makeItems(1), domain.RunModeConcurrent, 0)
	assert.True(t, apperrors.IsValidation(err))

	inv.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything)
}

func TestOrchestratorService_EmptyItems(t *testing.T) {
	orch := newOrchestrator(deterministicInvoker(0), nil)

	for _, mode := range []domain.RunMode{domain.RunModeSequential, domain.RunModeConcurrent} {
		results, err := orch.Run(context.Background(), nil, mode, 4)
		require.NoError(t, err)
		assert.Empty(t, results)
	}
}

func TestOrchestratorService_Cancellation(t *testing.T) {
	for _, mode := range []domain.RunMode{domain.RunModeSequential, domain.RunModeConcurrent} {
		t.Run(string(mode), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			var calls int32
			inv := llm.InvokerFunc(func(c context.Context, prompt string) (string, error) {
				if atomic.AddInt32(&calls, 1) == 3 {
					cancel()
				}
				return deterministicInvoker(0)(c, prompt)
			})

			results, err := newOrchestrator(inv, nil).Run(ctx, makeItems(50), mode, 2)

			assert.ErrorIs(t, err, context.Canceled)
			assert.Nil(t, results)
			assert.Less(t, atomic.LoadInt32(&calls), int32(150))
		})
	}
}
