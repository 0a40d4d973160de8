package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"zettahub/internal/dto"
	"zettahub/internal/model"
	"zettahub/internal/qr"
	"zettahub/internal/repo"
	"zettahub/pkg/auth"
	"zettahub/pkg/validator"
)

const recentRegistrationsLimit = 5

// Publisher sends registration-created notifications to the broker.
type Publisher interface {
	Publish(message []byte) error
}

type Service interface {
	Register(ctx *ginext.Context)
	GetEventRegistrations(ctx *ginext.Context)
	GetUserRegistrations(ctx *ginext.Context)
	CreateUser(ctx *ginext.Context)
	GetAllEvents(ctx *ginext.Context)
	CreateEvent(ctx *ginext.Context)

	AdminSignup(ctx *ginext.Context)
	AdminLogin(ctx *ginext.Context)
	Dashboard(ctx *ginext.Context)
	AdminListEvents(ctx *ginext.Context)
	AdminCreateEvent(ctx *ginext.Context)
	AdminUpdateEvent(ctx *ginext.Context)
	AdminDeleteEvent(ctx *ginext.Context)
	AdminEventStats(ctx *ginext.Context)
	AdminListRegistrations(ctx *ginext.Context)
	AdminDeleteRegistration(ctx *ginext.Context)
	AdminListUsers(ctx *ginext.Context)
	AdminGetUser(ctx *ginext.Context)
}

type service struct {
	repo    repo.Repository
	log     *zerolog.Logger
	rbt     Publisher
	encoder *qr.Encoder
	tokens  *auth.TokenManager
}

func NewService(repo repo.Repository, logger *zerolog.Logger, rbt Publisher, encoder *qr.Encoder, tokens *auth.TokenManager) Service {
	return &service{
		repo:    repo,
		log:     logger,
		rbt:     rbt,
		encoder: encoder,
		tokens:  tokens,
	}
}

// Register runs the registration workflow: validate the event, resolve or
// create the user, then create the registration row and its QR credential in
// one transaction. The (event, user) unique constraint is the authoritative
// duplicate guard; the in-tx pre-check only gives a cheaper error.
func (s *service) Register(ctx *ginext.Context) {
	var req dto.CreateRegistrationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.ValidationError(ctx, fmt.Sprintf("%v", verr))
		return
	}

	event, err := s.repo.GetEventByID(ctx, req.EventID)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to fetch event for registration")
		dto.InternalServerError(ctx)
		return
	}

	user, err := s.repo.ResolveOrCreateUser(ctx, req.Name, req.Email, req.UserID)
	if err != nil {
		s.log.Error().Err(err).Str("email", req.Email).Msg("failed to resolve user")
		dto.InternalServerError(ctx)
		return
	}

	registration := &model.Registration{
		ID:           model.NewID(),
		EventID:      event.ID,
		UserID:       user.ID,
		TeamName:     req.TeamName,
		Phone:        req.Phone,
		RegisteredAt: time.Now().UTC(),
	}

	err = s.repo.CreateRegistrationTx(ctx, registration, func() (string, error) {
		return s.encoder.Encode(registration.ID, req.Name, event.Title)
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateRegistration) {
			dto.RegistrationDuplicateError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to create registration")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().
		Str("registration_id", registration.ID).
		Str("event_id", event.ID).
		Str("user_id", user.ID).
		Msg("registration created successfully")

	s.publishRegistrationCreated(registration, user.Email)

	registration.User = user
	dto.SuccessCreatedResponse(ctx, registrationResponse(registration))
}

func (s *service) publishRegistrationCreated(reg *model.Registration, email string) {
	if s.rbt == nil {
		return
	}
	msg := dto.RegistrationCreatedMessage{
		RegistrationID: reg.ID,
		EventID:        reg.EventID,
		Email:          email,
		CreatedAt:      reg.RegisteredAt,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal registration-created message")
		return
	}
	if err := s.rbt.Publish(payload); err != nil {
		// Confirmation mail is best-effort; the registration stands.
		s.log.Warn().Err(err).Msg("failed to publish registration-created message")
	}
}

func registrationResponse(reg *model.Registration) dto.RegistrationResponse {
	resp := dto.RegistrationResponse{
		ID:      reg.ID,
		EventID: reg.EventID,
		QRCode:  reg.QRCode,
	}
	if reg.TeamName != "" {
		teamName := reg.TeamName
		resp.TeamName = &teamName
	}
	if reg.User != nil {
		resp.User = dto.UserResponse{
			ID:    reg.User.ID,
			Name:  reg.User.Name,
			Email: reg.User.Email,
		}
	}
	return resp
}

func registrationResponses(regs []model.Registration) []dto.RegistrationResponse {
	resp := make([]dto.RegistrationResponse, 0, len(regs))
	for i := range regs {
		resp = append(resp, registrationResponse(&regs[i]))
	}
	return resp
}

// GetEventRegistrations lists registrations for one event. An unknown or
// empty event yields an empty list, not an error.
func (s *service) GetEventRegistrations(ctx *ginext.Context) {
	eventID := ctx.Param("event_id")

	regs, err := s.repo.GetRegistrationsByEventID(ctx, eventID)
	if err != nil {
		s.log.Error().Err(err).Str("event_id", eventID).Msg("failed to list registrations by event")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, registrationResponses(regs))
}

func (s *service) GetUserRegistrations(ctx *ginext.Context) {
	userID := ctx.Param("user_id")

	regs, err := s.repo.GetRegistrationsByUserID(ctx, userID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("failed to list registrations by user")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, registrationResponses(regs))
}

func (s *service) CreateUser(ctx *ginext.Context) {
	var req dto.CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.ValidationError(ctx, fmt.Sprintf("%v", verr))
		return
	}

	user := &model.User{
		ID:           model.NewID(),
		Name:         req.Name,
		Email:        req.Email,
		Role:         model.RoleUser,
		RegisteredAt: time.Now().UTC(),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			dto.ConflictError(ctx, dto.EmailDuplicate, "Email already registered")
			return
		}
		s.log.Error().Err(err).Msg("failed to create user")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Str("user_id", user.ID).Msg("user created successfully")
	dto.SuccessCreatedResponse(ctx, dto.UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	})
}

func eventResponse(e *model.Event) dto.EventResponse {
	return dto.EventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date,
		MaxTeamSize: e.MaxTeamSize,
		Solo:        e.Solo,
		CreatedBy:   e.CreatedBy,
	}
}

func (s *service) GetAllEvents(ctx *ginext.Context) {
	events, err := s.repo.GetAllEvents(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list events")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		resp = append(resp, eventResponse(&events[i]))
	}
	dto.SuccessResponse(ctx, resp)
}

func (s *service) CreateEvent(ctx *ginext.Context) {
	s.createEvent(ctx, "")
}

func (s *service) createEvent(ctx *ginext.Context, createdBy string) {
	var req dto.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}
	if createdBy != "" {
		req.CreatedBy = createdBy
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.ValidationError(ctx, fmt.Sprintf("%v", verr))
		return
	}

	event := &model.Event{
		ID:          model.NewID(),
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		MaxTeamSize: req.MaxTeamSize,
		Solo:        req.Solo,
		CreatedBy:   req.CreatedBy,
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		s.log.Error().Err(err).Msg("failed to create event")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Str("event_id", event.ID).Msg("event created successfully")
	dto.SuccessCreatedResponse(ctx, eventResponse(event))
}
