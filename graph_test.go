package graphdi_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/junioryono/graphdi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderGraph_Register(t *testing.T) {
	t.Run("duplicate rule", func(t *testing.T) {
		g := graphdi.NewProviderGraph()
		require.NoError(t, g.Register(newSourceRule(graphdi.Singleton, &counter{})))

		err := g.Register(newSourceRule(graphdi.Unscoped, &counter{}))
		require.Error(t, err)
		assert.True(t, graphdi.IsDuplicate(err))

		var dup graphdi.DuplicateRuleError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, graphdi.ID[*TSource](), dup.ID)
		assert.Equal(t, 1, g.Len())
	})

	t.Run("same type under different names", func(t *testing.T) {
		g := graphdi.NewProviderGraph()
		require.NoError(t, g.Register(graphdi.Value(&TSource{ID: 1}, graphdi.Named("primary"))))
		require.NoError(t, g.Register(graphdi.Value(&TSource{ID: 2}, graphdi.Named("replica"))))
		require.NoError(t, g.Register(graphdi.Value(&TSource{ID: 3})))
		assert.Equal(t, 3, g.Len())
	})

	t.Run("nil rule", func(t *testing.T) {
		g := graphdi.NewProviderGraph()
		assert.ErrorIs(t, g.Register(nil), graphdi.ErrRuleNil)
	})

	t.Run("nil factory", func(t *testing.T) {
		g := graphdi.NewProviderGraph()
		err := g.Register(graphdi.Provide[*TSource](graphdi.Singleton, nil))
		assert.ErrorIs(t, err, graphdi.ErrFactoryNil)
	})

	t.Run("invalid lifetime", func(t *testing.T) {
		g := graphdi.NewProviderGraph()
		err := g.Register(newSourceRule(graphdi.Lifetime(5), &counter{}))
		var lifetimeErr graphdi.LifetimeError
		assert.ErrorAs(t, err, &lifetimeErr)
	})

	t.Run("too many injected names", func(t *testing.T) {
		g := graphdi.NewProviderGraph()
		rule := graphdi.Provide1(graphdi.Singleton, func(src *TSource) (*TRepository, error) {
			return &TRepository{Source: src}, nil
		}, graphdi.Inject("a", "b"))
		assert.Error(t, g.Register(rule))
	})

	t.Run("sealed after build", func(t *testing.T) {
		g := graphdi.NewProviderGraph()
		require.NoError(t, g.Register(newSourceRule(graphdi.Singleton, &counter{})))

		c, err := g.Build()
		require.NoError(t, err)
		defer c.Close()

		err = g.Register(newRepositoryRule(graphdi.Singleton, &counter{}))
		assert.ErrorIs(t, err, graphdi.ErrGraphSealed)
	})
}

func TestProviderGraph_Lookup(t *testing.T) {
	g := graphdi.NewProviderGraph()
	require.NoError(t, g.Register(newSourceRule(graphdi.Singleton, &counter{})))
	require.NoError(t, g.Register(newRepositoryRule(graphdi.Unscoped, &counter{})))

	rule, err := g.Lookup(graphdi.ID[*TRepository]())
	require.NoError(t, err)
	assert.Equal(t, graphdi.Unscoped, rule.Lifetime())
	assert.Equal(t, []graphdi.TypeID{graphdi.ID[*TSource]()}, rule.Dependencies())
	assert.Equal(t, "*TRepository (Unscoped)", rule.String())

	_, err = g.Lookup(graphdi.ID[*TConsumer]())
	require.Error(t, err)
	assert.True(t, graphdi.IsUnknownType(err))

	assert.True(t, g.Contains(graphdi.ID[*TSource]()))
	assert.False(t, g.Contains(graphdi.NamedID[*TSource]("other")))

	rules := g.Rules()
	require.Len(t, rules, 2)
	assert.Equal(t, graphdi.ID[*TSource](), rules[0].ID())
	assert.Equal(t, graphdi.ID[*TRepository](), rules[1].ID())
}

func TestProviderGraph_Validate(t *testing.T) {
	t.Run("missing dependency", func(t *testing.T) {
		g := graphdi.NewProviderGraph()
		require.NoError(t, g.Register(newRepositoryRule(graphdi.Singleton, &counter{})))

		err := g.Validate()
		var unknown graphdi.UnknownTypeError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, graphdi.ID[*TSource](), unknown.ID)
		assert.Equal(t, graphdi.ID[*TRepository](), unknown.RequiredBy)
		assert.Contains(t, err.Error(), "required by *TRepository")
	})

	t.Run("cycle", func(t *testing.T) {
		g := graphdi.NewProviderGraph()
		for _, rule := range cycleRules() {
			require.NoError(t, g.Register(rule))
		}

		err := g.Validate()
		require.True(t, graphdi.IsCycle(err))

		_, err = g.Build()
		var buildErr graphdi.BuildError
		require.ErrorAs(t, err, &buildErr)
		assert.Equal(t, "validation", buildErr.Phase)
		assert.True(t, graphdi.IsCycle(err))
	})

	t.Run("valid", func(t *testing.T) {
		g := graphdi.NewProviderGraph()
		require.NoError(t, g.Register(newSourceRule(graphdi.Singleton, &counter{})))
		require.NoError(t, g.Register(newRepositoryRule(graphdi.Singleton, &counter{})))
		require.NoError(t, g.Register(newConsumerRule(graphdi.Unscoped)))
		assert.NoError(t, g.Validate())
	})
}

func TestProviderGraph_Queries(t *testing.T) {
	g := graphdi.NewProviderGraph()
	require.NoError(t, g.Register(newSourceRule(graphdi.Singleton, &counter{})))
	require.NoError(t, g.Register(newRepositoryRule(graphdi.Singleton, &counter{})))
	require.NoError(t, g.Register(newConsumerRule(graphdi.Unscoped)))

	source := graphdi.ID[*TSource]()
	repo := graphdi.ID[*TRepository]()
	consumer := graphdi.ID[*TConsumer]()

	assert.ElementsMatch(t, []graphdi.TypeID{repo, source}, g.TransitiveDependencies(consumer))
	assert.Empty(t, g.TransitiveDependencies(source))
	assert.Contains(t, g.Dependents(source), repo)
	assert.Equal(t, []graphdi.TypeID{source}, g.Roots())
}

func TestProviderGraph_WriteDOT(t *testing.T) {
	g := graphdi.NewProviderGraph()
	require.NoError(t, g.Register(newSourceRule(graphdi.Singleton, &counter{})))
	require.NoError(t, g.Register(newRepositoryRule(graphdi.Singleton, &counter{})))

	var buf bytes.Buffer
	require.NoError(t, g.WriteDOT(&buf))
	assert.Contains(t, buf.String(), `label="*TRepository"`)
	assert.Contains(t, buf.String(), "n1 -> n0;")
}

func TestProviderGraph_EagerSingletons(t *testing.T) {
	var order []string
	g := graphdi.NewProviderGraph()

	// Registered dependents first to show construction follows dependencies.
	require.NoError(t, g.Register(graphdi.Provide1(graphdi.Singleton, func(src *TSource) (*TRepository, error) {
		order = append(order, "repository")
		return &TRepository{Source: src}, nil
	})))
	require.NoError(t, g.Register(graphdi.Provide(graphdi.Singleton, func() (*TSource, error) {
		order = append(order, "source")
		return &TSource{}, nil
	})))
	require.NoError(t, g.Register(graphdi.Provide2(graphdi.Unscoped, func(r *TRepository, s *TSource) (*TConsumer, error) {
		order = append(order, "consumer")
		return &TConsumer{Repo: r, Source: s}, nil
	})))

	c, err := g.BuildWithOptions(&graphdi.Options{EagerSingletons: true})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, []string{"source", "repository"}, order)
}

func TestProviderGraph_EagerSingletonFailure(t *testing.T) {
	boom := errors.New("boom")
	g := graphdi.NewProviderGraph()
	require.NoError(t, g.Register(graphdi.Provide(graphdi.Singleton, func() (*TSource, error) {
		return nil, boom
	})))

	_, err := g.BuildWithOptions(&graphdi.Options{EagerSingletons: true})
	var buildErr graphdi.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "singleton-creation", buildErr.Phase)
	assert.ErrorIs(t, err, boom)
}
