package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"retiro/internal/registration/models"
	"retiro/internal/registration/store/memory"
	id "retiro/pkg/domain"
	dErrors "retiro/pkg/domain-errors"
)

type RegistrationServiceSuite struct {
	suite.Suite
	service   *Service
	retreatID id.RetreatID
}

func TestRegistrationServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistrationServiceSuite))
}

func (s *RegistrationServiceSuite) SetupTest() {
	var err error
	s.service, err = New(memory.NewParticipantStore(), memory.NewServerStore())
	s.Require().NoError(err)
	s.retreatID = id.NewRetreatID()
}

func (s *RegistrationServiceSuite) register() *models.Registration {
	reg, err := s.service.RegisterParticipant(context.Background(), RegisterInput{
		RetreatID: s.retreatID,
		Name:      "Ana",
		Surname:   "Souza",
		Gender:    models.GenderFemale,
		City:      "Campinas",
	})
	s.Require().NoError(err)
	return reg
}

func (s *RegistrationServiceSuite) TestRegisterParticipant() {
	ctx := context.Background()

	s.Run("valid input starts pending and enabled", func() {
		reg := s.register()
		s.Equal(models.StatusPending, reg.Status)
		s.True(reg.Enabled)
		s.False(reg.ID.IsNil())
	})

	s.Run("missing surname is rejected", func() {
		_, err := s.service.RegisterParticipant(ctx, RegisterInput{
			RetreatID: s.retreatID, Name: "Ana", Gender: models.GenderFemale,
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown gender is rejected", func() {
		_, err := s.service.RegisterParticipant(ctx, RegisterInput{
			RetreatID: s.retreatID, Name: "Ana", Surname: "Souza", Gender: "other",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *RegistrationServiceSuite) TestParticipantLifecycle() {
	ctx := context.Background()
	reg := s.register()

	s.Run("pending cannot be marked paid directly", func() {
		_, err := s.service.MarkPaid(ctx, reg.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("pending confirms then pays", func() {
		confirmed, err := s.service.Confirm(ctx, reg.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusConfirmed, confirmed.Status)

		paid, err := s.service.MarkPaid(ctx, reg.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPaid, paid.Status)
	})

	s.Run("paid cannot be cancelled", func() {
		_, err := s.service.Cancel(ctx, reg.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("cancelling disables the registration", func() {
		other := s.register()
		cancelled, err := s.service.Cancel(ctx, other.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusCancelled, cancelled.Status)
		s.False(cancelled.Enabled)
	})

	s.Run("unknown registration maps to not found", func() {
		_, err := s.service.Confirm(ctx, id.NewMemberID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *RegistrationServiceSuite) TestServerLifecycle() {
	ctx := context.Background()
	reg, err := s.service.RegisterServer(ctx, RegisterInput{
		RetreatID: s.retreatID,
		Name:      "Bruno",
		Surname:   "Pereira",
		Gender:    models.GenderMale,
	})
	s.Require().NoError(err)
	s.Equal(models.ServiceStatusActive, reg.Status)

	s.Run("double deactivation is rejected", func() {
		_, err := s.service.DeactivateServer(ctx, reg.ID)
		s.Require().NoError(err)
		_, err = s.service.DeactivateServer(ctx, reg.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("reactivation restores eligibility", func() {
		restored, err := s.service.ReactivateServer(ctx, reg.ID)
		s.Require().NoError(err)
		s.Equal(models.ServiceStatusActive, restored.Status)
	})
}

func (s *RegistrationServiceSuite) TestListByRetreat() {
	ctx := context.Background()
	s.register()
	s.register()

	regs, err := s.service.ListParticipants(ctx, s.retreatID)
	s.Require().NoError(err)
	s.Len(regs, 2)

	empty, err := s.service.ListParticipants(ctx, id.NewRetreatID())
	s.Require().NoError(err)
	s.Empty(empty)
}
