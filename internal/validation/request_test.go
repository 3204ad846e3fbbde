package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       RegisterRequest
		wantErr   bool
		wantField string
	}{
		{
			name: "valid request",
			req:  RegisterRequest{Username: "alice", Email: "alice@x.com", Password: "Secret1!"},
		},
		{
			name: "valid - unicode username",
			req:  RegisterRequest{Username: "앨리스", Email: "alice@x.com", Password: "p"},
		},
		{
			name:      "missing username",
			req:       RegisterRequest{Email: "alice@x.com", Password: "Secret1!"},
			wantErr:   true,
			wantField: "username",
		},
		{
			name:      "missing email",
			req:       RegisterRequest{Username: "alice", Password: "Secret1!"},
			wantErr:   true,
			wantField: "email",
		},
		{
			name:      "missing password",
			req:       RegisterRequest{Username: "alice", Email: "alice@x.com"},
			wantErr:   true,
			wantField: "password",
		},
		{
			name:      "all missing reports username first",
			req:       RegisterRequest{},
			wantErr:   true,
			wantField: "username",
		},
		{
			name:      "username with space",
			req:       RegisterRequest{Username: "alice smith", Email: "alice@x.com", Password: "Secret1!"},
			wantErr:   true,
			wantField: "username",
		},
		{
			name:      "username too long",
			req:       RegisterRequest{Username: strings.Repeat("a", MaxUsernameLen+1), Email: "alice@x.com", Password: "Secret1!"},
			wantErr:   true,
			wantField: "username",
		},
		{
			name:      "invalid email",
			req:       RegisterRequest{Username: "alice", Email: "not-an-email", Password: "Secret1!"},
			wantErr:   true,
			wantField: "email",
		},
		{
			name:      "email with display name",
			req:       RegisterRequest{Username: "alice", Email: "Alice <alice@x.com>", Password: "Secret1!"},
			wantErr:   true,
			wantField: "email",
		},
		{
			name:      "username with invalid utf-8",
			req:       RegisterRequest{Username: "bob\xff", Email: "bob@x.com", Password: "Secret1!"},
			wantErr:   true,
			wantField: "username",
		},
		{
			name:      "email with invalid utf-8",
			req:       RegisterRequest{Username: "bob", Email: "bob\xfe@x.com", Password: "Secret1!"},
			wantErr:   true,
			wantField: "email",
		},
		{
			name:      "password too long",
			req:       RegisterRequest{Username: "alice", Email: "alice@x.com", Password: strings.Repeat("p", MaxPasswordLen+1)},
			wantErr:   true,
			wantField: "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)

			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.wantField, fieldErr.Field)
		})
	}
}

func TestLoginRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       LoginRequest
		wantField string
	}{
		{name: "valid", req: LoginRequest{Username: "alice", Password: "Secret1!"}},
		{name: "missing username", req: LoginRequest{Password: "Secret1!"}, wantField: "username"},
		{name: "missing password", req: LoginRequest{Username: "alice"}, wantField: "password"},
		{name: "both missing", req: LoginRequest{}, wantField: "username"},
		{
			// Формат username при входе не проверяется
			name: "username with spaces is not a validation error",
			req:  LoginRequest{Username: "al ice", Password: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.wantField, fieldErr.Field)
			assert.Contains(t, err.Error(), "is required")
		})
	}
}

func TestLoginRequest_Validate_InvalidUTF8Username(t *testing.T) {
	err := LoginRequest{Username: "bob\xff", Password: "Secret1!"}.Validate()

	assert.ErrorIs(t, err, ErrInvalid)
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "username", fieldErr.Field)
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email   string
		wantErr bool
	}{
		{email: "alice@x.com"},
		{email: "test@example.com"},
		{email: "a.b+tag@sub.example.org"},
		{email: "", wantErr: true},
		{email: "alice", wantErr: true},
		{email: "@x.com", wantErr: true},
		{email: "al\xffice@x.com", wantErr: true},
		{email: strings.Repeat("a", MaxEmailLen) + "@x.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		username string
		wantErr  bool
	}{
		{username: "alice"},
		{username: "앨리스"},
		{username: "", wantErr: true},
		{username: "bob\xff", wantErr: true},
		{username: "tab\there", wantErr: true},
		{username: "nul\x00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
