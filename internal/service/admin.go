package service

import (
	"errors"
	"fmt"

	"github.com/wb-go/wbf/ginext"

	"zettahub/internal/dto"
	"zettahub/internal/repo"
	"zettahub/pkg/auth"
	"zettahub/pkg/validator"
)

// AdminUsernameKey is where the auth middleware stores the verified admin
// username in the gin context.
const AdminUsernameKey = "admin_username"

func (s *service) AdminSignup(ctx *ginext.Context) {
	var req dto.AdminCredentialsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.ValidationError(ctx, fmt.Sprintf("%v", verr))
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash admin password")
		dto.InternalServerError(ctx)
		return
	}

	if err := s.repo.CreateAdmin(ctx, req.Username, hashed); err != nil {
		if errors.Is(err, repo.ErrDuplicateAdmin) {
			dto.ConflictError(ctx, dto.UsernameDuplicate, "Username already exists")
			return
		}
		s.log.Error().Err(err).Msg("failed to create admin")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Str("username", req.Username).Msg("admin created")
	dto.SuccessCreatedResponse(ctx, map[string]string{"message": "Admin created"})
}

func (s *service) AdminLogin(ctx *ginext.Context) {
	var req dto.AdminCredentialsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}

	admin, err := s.repo.GetAdminByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repo.ErrAdminNotFound) {
			dto.UnauthorizedError(ctx, "Invalid credentials")
			return
		}
		s.log.Error().Err(err).Msg("failed to load admin")
		dto.InternalServerError(ctx)
		return
	}

	if !auth.CheckPasswordHash(req.Password, admin.HashedPassword) {
		dto.UnauthorizedError(ctx, "Invalid credentials")
		return
	}

	token, err := s.tokens.Generate(admin.Username)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to issue admin token")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, dto.TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *service) Dashboard(ctx *ginext.Context) {
	counts, err := s.repo.DashboardCounts(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load dashboard counts")
		dto.InternalServerError(ctx)
		return
	}

	recent, err := s.repo.RecentRegistrations(ctx, recentRegistrationsLimit)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load recent registrations")
		dto.InternalServerError(ctx)
		return
	}

	resp := dto.DashboardResponse{
		Message: fmt.Sprintf("Welcome, Admin %s!", ctx.GetString(AdminUsernameKey)),
		Stats: dto.DashboardStats{
			TotalEvents:        counts.Events,
			TotalRegistrations: counts.Registrations,
			TotalUsers:         counts.Users,
		},
		RecentRegistrations: make([]dto.RecentRegistration, 0, len(recent)),
	}
	for _, rr := range recent {
		resp.RecentRegistrations = append(resp.RecentRegistrations, dto.RecentRegistration{
			ID:           rr.ID,
			UserName:     rr.UserName,
			EventTitle:   rr.EventTitle,
			RegisteredAt: rr.RegisteredAt,
		})
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) AdminListEvents(ctx *ginext.Context) {
	s.GetAllEvents(ctx)
}

func (s *service) AdminCreateEvent(ctx *ginext.Context) {
	s.createEvent(ctx, ctx.GetString(AdminUsernameKey))
}

func (s *service) AdminUpdateEvent(ctx *ginext.Context) {
	eventID := ctx.Param("id")

	var req dto.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid JSON format")
		return
	}
	req.CreatedBy = ctx.GetString(AdminUsernameKey)

	if verr := validator.Validate(ctx, req); verr != nil {
		dto.ValidationError(ctx, fmt.Sprintf("%v", verr))
		return
	}

	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to fetch event for update")
		dto.InternalServerError(ctx)
		return
	}

	event.Title = req.Title
	event.Description = req.Description
	event.Date = req.Date
	event.MaxTeamSize = req.MaxTeamSize
	event.Solo = req.Solo

	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to update event")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, eventResponse(event))
}

func (s *service) AdminDeleteEvent(ctx *ginext.Context) {
	eventID := ctx.Param("id")

	err := s.repo.DeleteEvent(ctx, eventID)
	switch {
	case err == nil:
		dto.SuccessResponse(ctx, map[string]string{"message": "Event deleted successfully"})
	case errors.Is(err, repo.ErrEventNotFound):
		dto.EventNotFoundError(ctx)
	case errors.Is(err, repo.ErrEventHasRegistrations):
		dto.ConflictError(ctx, dto.EventHasRegistrations, "Cannot delete event with existing registrations")
	default:
		s.log.Error().Err(err).Msg("failed to delete event")
		dto.InternalServerError(ctx)
	}
}

func (s *service) AdminEventStats(ctx *ginext.Context) {
	eventID := ctx.Param("id")

	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to fetch event for stats")
		dto.InternalServerError(ctx)
		return
	}

	count, err := s.repo.CountEventRegistrations(ctx, eventID)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to count registrations")
		dto.InternalServerError(ctx)
		return
	}

	var resp dto.EventStatsResponse
	resp.Event = eventResponse(event)
	resp.Registrations.Total = count
	// max_team_size of zero means the event has no cap.
	if event.MaxTeamSize > 0 {
		available := event.MaxTeamSize - count
		if available < 0 {
			available = 0
		}
		resp.Registrations.AvailableSpots = available
	} else {
		resp.Registrations.AvailableSpots = "unlimited"
	}

	dto.SuccessResponse(ctx, resp)
}

func (s *service) AdminListRegistrations(ctx *ginext.Context) {
	regs, err := s.repo.GetAllRegistrations(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list registrations")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, registrationResponses(regs))
}

func (s *service) AdminDeleteRegistration(ctx *ginext.Context) {
	regID := ctx.Param("id")

	if err := s.repo.DeleteRegistration(ctx, regID); err != nil {
		if errors.Is(err, repo.ErrRegistrationNotFound) {
			dto.RegistrationNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to delete registration")
		dto.InternalServerError(ctx)
		return
	}

	// The row is gone; a leftover png is just an orphan artifact.
	if err := s.encoder.Remove(regID); err != nil {
		s.log.Warn().Err(err).Str("registration_id", regID).Msg("failed to remove credential artifact")
	}

	dto.SuccessResponse(ctx, map[string]string{"message": "Registration deleted successfully"})
}

func (s *service) AdminListUsers(ctx *ginext.Context) {
	users, err := s.repo.GetAllUsers(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list users")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, dto.UserResponse{ID: u.ID, Name: u.Name, Email: u.Email})
	}
	dto.SuccessResponse(ctx, resp)
}

func (s *service) AdminGetUser(ctx *ginext.Context) {
	userID := ctx.Param("id")

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			dto.UserNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to get user")
		dto.InternalServerError(ctx)
		return
	}

	dto.SuccessResponse(ctx, dto.UserResponse{ID: user.ID, Name: user.Name, Email: user.Email})
}
