package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"retiro/internal/retreat/models"
	"retiro/internal/retreat/store/memory"
	rostermodels "retiro/internal/roster/models"
	rostermemory "retiro/internal/roster/store/memory"
	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
)

type RetreatServiceSuite struct {
	suite.Suite
	store   *memory.Store
	states  *rostermemory.StateStore
	service *Service
}

func TestRetreatServiceSuite(t *testing.T) {
	suite.Run(t, new(RetreatServiceSuite))
}

func (s *RetreatServiceSuite) SetupTest() {
	s.store = memory.New()
	s.states = rostermemory.NewStateStore()

	var err error
	s.service, err = New(s.store, s.states, rostermemory.NewTxRunner())
	s.Require().NoError(err)
}

func (s *RetreatServiceSuite) TestCreate() {
	ctx := context.Background()

	s.Run("missing name is rejected", func() {
		_, err := s.service.Create(ctx, CreateInput{Edition: 1})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("dates out of order are rejected", func() {
		_, err := s.service.Create(ctx, CreateInput{
			Name:     "Retiro 2026",
			Edition:  12,
			StartsOn: time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
			EndsOn:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("creation seeds all three roster boards", func() {
		retreat, err := s.service.Create(ctx, CreateInput{
			Name:     "Retiro 2026",
			Edition:  12,
			StartsOn: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
			EndsOn:   time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC),
		})
		s.Require().NoError(err)
		s.False(retreat.ID.IsNil())
		s.Equal(models.StatusDraft, retreat.Status)

		for _, kind := range []rostermodels.Kind{rostermodels.KindFamily, rostermodels.KindTent, rostermodels.KindService} {
			state, err := s.states.Get(ctx, kind, retreat.ID)
			s.Require().NoError(err, "board %s must exist", kind)
			s.Equal(int64(0), state.Version)
			s.False(state.Locked)
		}
	})
}

func (s *RetreatServiceSuite) TestLifecycle() {
	ctx := context.Background()
	retreat, err := s.service.Create(ctx, CreateInput{
		Name:     "Retiro 2026",
		Edition:  12,
		StartsOn: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:   time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	s.Run("draft cannot close", func() {
		_, err := s.service.Close(ctx, retreat.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("draft opens then closes", func() {
		opened, err := s.service.Open(ctx, retreat.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusOpen, opened.Status)

		closed, err := s.service.Close(ctx, retreat.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusClosed, closed.Status)
	})

	s.Run("closed stays closed", func() {
		_, err := s.service.Open(ctx, retreat.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("unknown retreat maps to not found", func() {
		_, err := s.service.Open(ctx, id.NewRetreatID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
