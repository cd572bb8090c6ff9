package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-posescore/internal/domain"
)

var keyTrail = domain.NewKey[[]string]("trail")

// stubUnit appends its name to the trail key, or fails with err.
type stubUnit struct {
	name        string
	err         error
	validateErr error

	mu       sync.Mutex
	executed int
}

func (s *stubUnit) Name() string { return s.name }

func (s *stubUnit) Execute(_ context.Context, state domain.State) (domain.State, error) {
	s.mu.Lock()
	s.executed++
	s.mu.Unlock()
	if s.err != nil {
		return state, s.err
	}
	trail, _ := domain.Get(state, keyTrail)
	return domain.With(state, keyTrail, append(trail, s.name)), nil
}

func (s *stubUnit) Validate() error { return s.validateErr }

func (s *stubUnit) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executed
}

func TestPipeline_Execute(t *testing.T) {
	t.Run("runs units in order", func(t *testing.T) {
		p := NewPipeline("p")
		for _, name := range []string{"first", "second", "third"} {
			require.NoError(t, p.Add(&stubUnit{name: name}))
		}

		out, err := p.Execute(context.Background(), domain.NewState())
		require.NoError(t, err)

		trail, ok := domain.Get(out, keyTrail)
		require.True(t, ok)
		assert.Equal(t, []string{"first", "second", "third"}, trail)
	})

	t.Run("stops at the failing unit", func(t *testing.T) {
		boom := errors.New("boom")
		last := &stubUnit{name: "last"}
		p := NewPipeline("p")
		require.NoError(t, p.Add(&stubUnit{name: "ok"}))
		require.NoError(t, p.Add(&stubUnit{name: "bad", err: boom}))
		require.NoError(t, p.Add(last))

		out, err := p.Execute(context.Background(), domain.NewState())
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "pipeline p: execution failed at bad")
		assert.Zero(t, last.calls())

		trail, _ := domain.Get(out, keyTrail)
		assert.Equal(t, []string{"ok"}, trail, "state of the last successful unit is returned")
	})

	t.Run("honours cancellation", func(t *testing.T) {
		unit := &stubUnit{name: "never"}
		p := NewPipeline("p")
		require.NoError(t, p.Add(unit))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := p.Execute(ctx, domain.NewState())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, unit.calls())
	})

	t.Run("leaves the input state untouched", func(t *testing.T) {
		p := NewPipeline("p")
		require.NoError(t, p.Add(&stubUnit{name: "a"}))

		in := domain.NewState()
		_, err := p.Execute(context.Background(), in)
		require.NoError(t, err)
		assert.False(t, in.Has(keyTrail.Name()))
	})
}

func TestPipeline_Add(t *testing.T) {
	p := NewPipeline("p")

	require.Error(t, p.Add(nil))
	require.NoError(t, p.Add(&stubUnit{name: "a"}))

	err := p.Add(&stubUnit{name: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	units := p.Units()
	require.Len(t, units, 1)
	units[0] = nil
	assert.NotNil(t, p.Units()[0], "Units returns a copy")
}

func TestPipeline_Validate(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.ErrorIs(t, NewPipeline("p").Validate(), ErrEmptyPipeline)
	})

	t.Run("unit failure names the unit", func(t *testing.T) {
		bad := errors.New("misconfigured")
		p := NewPipeline("p")
		require.NoError(t, p.Add(&stubUnit{name: "a"}))
		require.NoError(t, p.Add(&stubUnit{name: "b", validateErr: bad}))

		err := p.Validate()
		assert.ErrorIs(t, err, bad)
		assert.Contains(t, err.Error(), "unit b")
	})
}
