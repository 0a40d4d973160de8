package validator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"zettahub/pkg/validator"
)

type registrationForm struct {
	EventID string `validate:"required"`
	Name    string `validate:"required,min=1,max=255"`
	Email   string `validate:"required,email"`
}

type eventForm struct {
	Date time.Time `validate:"required,future"`
}

func TestValidateRegistrationForm(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, validator.Validate(ctx, registrationForm{
		EventID: "E1", Name: "Ava", Email: "ava@x.com",
	}))

	err := validator.Validate(ctx, registrationForm{Name: "Ava", Email: "ava@x.com"})
	assert.ErrorContains(t, err, validator.ErrFieldRequired)

	err = validator.Validate(ctx, registrationForm{EventID: "E1", Name: "Ava", Email: "not-an-email"})
	assert.ErrorContains(t, err, validator.ErrInvalidEmail)
}

func TestValidateFutureDate(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, validator.Validate(ctx, eventForm{Date: time.Now().Add(time.Hour)}))
	assert.Error(t, validator.Validate(ctx, eventForm{Date: time.Now().Add(-time.Hour)}))
}
