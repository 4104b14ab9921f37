package dataloader

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/quantfold/volarb/internal/types"
)

type SyntheticTestSuite struct {
	suite.Suite
}

func TestSyntheticSuite(t *testing.T) {
	suite.Run(t, new(SyntheticTestSuite))
}

func (s *SyntheticTestSuite) TestGenerateShape() {
	config := DefaultSyntheticConfig()
	config.Count = 100

	observations := NewSyntheticGenerator(42).Generate(config)
	s.Require().Len(observations, 100)

	for i, obs := range observations {
		s.Equal("TEST", obs.Symbol)
		s.Greater(obs.Close, 0.0)
		s.GreaterOrEqual(obs.High, math.Max(obs.Open, obs.Close))
		s.LessOrEqual(obs.Low, math.Min(obs.Open, obs.Close))

		if i > 0 {
			s.True(observations[i-1].Time.Before(obs.Time))
		}
	}
}

func (s *SyntheticTestSuite) TestReproducibleWithSeed() {
	config := DefaultSyntheticConfig()
	config.Count = 50

	first := NewSyntheticGenerator(7).Generate(config)
	second := NewSyntheticGenerator(7).Generate(config)
	s.Equal(first, second)
}

func (s *SyntheticTestSuite) TestImpliedVolatilityAttached() {
	config := DefaultSyntheticConfig()
	config.Count = 20
	config.ImpliedVolatility = 0.35

	observations := NewSyntheticGenerator(1).Generate(config)

	for _, obs := range observations {
		s.True(obs.HasAux(types.AuxImpliedVolatility))
		s.InDelta(0.35, obs.GetAux(types.AuxImpliedVolatility), 1e-9)
	}
}

func (s *SyntheticTestSuite) TestNoImpliedVolatilityByDefault() {
	observations := NewSyntheticGenerator(1).Generate(DefaultSyntheticConfig())

	for _, obs := range observations {
		s.False(obs.HasAux(types.AuxImpliedVolatility))
	}
}
