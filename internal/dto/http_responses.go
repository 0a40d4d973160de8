package dto

import (
	"time"

	"github.com/wb-go/wbf/ginext"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	EventNotFound         = "EVENT_NOT_FOUND"
	UserNotFound          = "USER_NOT_FOUND"
	RegistrationNotFound  = "REGISTRATION_NOT_FOUND"
	RegistrationDuplicate = "REGISTRATION_DUPLICATE"
	EmailDuplicate        = "EMAIL_DUPLICATE"
	UsernameDuplicate     = "USERNAME_DUPLICATE"
	EventHasRegistrations = "EVENT_HAS_REGISTRATIONS"
	Unauthorized          = "UNAUTHORIZED"
)

type CreateRegistrationRequest struct {
	EventID  string `json:"event_id" validate:"required"`
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Email    string `json:"email" validate:"required,email"`
	UserID   string `json:"user_id,omitempty"`
	TeamName string `json:"team_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type RegistrationResponse struct {
	ID       string       `json:"id"`
	User     UserResponse `json:"user"`
	TeamName *string      `json:"team_name"`
	EventID  string       `json:"event_id"`
	QRCode   string       `json:"qr_code"`
}

// RegistrationCreatedMessage is the payload published to the broker after a
// registration commits; the mail worker consumes it.
type RegistrationCreatedMessage struct {
	RegistrationID string    `json:"registration_id"`
	EventID        string    `json:"event_id"`
	Email          string    `json:"email"`
	CreatedAt      time.Time `json:"created_at"`
}

type CreateUserRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=255"`
	Email string `json:"email" validate:"required,email"`
}

type CreateEventRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" validate:"required"`
	MaxTeamSize int       `json:"max_team_size" validate:"gte=0"`
	Solo        bool      `json:"solo"`
	CreatedBy   string    `json:"created_by" validate:"required"`
}

type EventResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	MaxTeamSize int       `json:"max_team_size"`
	Solo        bool      `json:"solo"`
	CreatedBy   string    `json:"created_by"`
}

type AdminCredentialsRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type DashboardStats struct {
	TotalEvents        int `json:"total_events"`
	TotalRegistrations int `json:"total_registrations"`
	TotalUsers         int `json:"total_users"`
}

type RecentRegistration struct {
	ID           string    `json:"id"`
	UserName     string    `json:"user_name"`
	EventTitle   string    `json:"event_title"`
	RegisteredAt time.Time `json:"registered_at"`
}

type DashboardResponse struct {
	Message             string               `json:"message"`
	Stats               DashboardStats       `json:"stats"`
	RecentRegistrations []RecentRegistration `json:"recent_registrations"`
}

type EventStatsResponse struct {
	Event         EventResponse `json:"event"`
	Registrations struct {
		Total          int `json:"total"`
		AvailableSpots any `json:"available_spots"`
	} `json:"registrations"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error:  &Error{Code: code, Desc: desc},
	})
}

func ValidationError(c *ginext.Context, desc string) {
	c.JSON(422, Response{
		Status: "error",
		Error:  &Error{Code: FieldIncorrect, Desc: desc},
	})
}

func NotFoundError(c *ginext.Context, code, desc string) {
	c.JSON(404, Response{
		Status: "error",
		Error:  &Error{Code: code, Desc: desc},
	})
}

func ConflictError(c *ginext.Context, code, desc string) {
	c.JSON(409, Response{
		Status: "error",
		Error:  &Error{Code: code, Desc: desc},
	})
}

func UnauthorizedError(c *ginext.Context, desc string) {
	c.JSON(401, Response{
		Status: "error",
		Error:  &Error{Code: Unauthorized, Desc: desc},
	})
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error:  &Error{Code: ServiceUnavailable, Desc: InternalError},
	})
}

func EventNotFoundError(c *ginext.Context) {
	NotFoundError(c, EventNotFound, "Event not found")
}

func RegistrationNotFoundError(c *ginext.Context) {
	NotFoundError(c, RegistrationNotFound, "Registration not found")
}

func UserNotFoundError(c *ginext.Context) {
	NotFoundError(c, UserNotFound, "User not found")
}

func RegistrationDuplicateError(c *ginext.Context) {
	ConflictError(c, RegistrationDuplicate, "User already registered for this event")
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{Status: "ok", Data: data})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{Status: "ok", Data: data})
}
