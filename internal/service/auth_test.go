package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/target/zenithflow/internal/domain/auth"
	apperrors "github.com/target/zenithflow/internal/errors"
	"github.com/target/zenithflow/internal/mocks"
	"github.com/target/zenithflow/internal/ports"
)

func newAuthService(t *testing.T) (*AuthService, *mocks.MockAuthGateway) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	gw := mocks.NewMockAuthGateway(ctrl)
	return NewAuthService(AuthServiceOptions{Gateway: gw}), gw
}

func TestAuthService_SignIn_Success(t *testing.T) {
	svc, gw := newAuthService(t)
	want := &domainauth.Session{AccessToken: "t", Identity: domainauth.Identity{ID: "u1", Email: "a@b.co"}}
	gw.EXPECT().SignIn(gomock.Any(), "a@b.co", "secret").Return(want, nil)

	got, err := svc.SignIn(context.Background(), "  a@b.co ", "secret")

	require.NoError(t, err)
	assert.Equal(t, "u1", got.IdentityID())
}

func TestAuthService_SignIn_Validation(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		wantField string
	}{
		{name: "missing email", email: " ", password: "secret", wantField: "email"},
		{name: "missing password", email: "a@b.co", password: "", wantField: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newAuthService(t)

			_, err := svc.SignIn(context.Background(), tt.email, tt.password)

			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.wantField, apperrors.GetField(err))
		})
	}
}

func TestAuthService_SignIn_InvalidCredentials(t *testing.T) {
	svc, gw := newAuthService(t)
	gw.EXPECT().SignIn(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, apperrors.New(apperrors.ErrCodeInvalidCredentials, "Invalid login credentials"))

	_, err := svc.SignIn(context.Background(), "a@b.co", "wrong")

	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.True(t, apperrors.IsInvalidCredentials(err))
	assert.Contains(t, err.Error(), "Invalid login credentials")
}

func TestAuthService_SignIn_NetworkErrorSurfaced(t *testing.T) {
	svc, gw := newAuthService(t)
	gw.EXPECT().SignIn(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, apperrors.New(apperrors.ErrCodeNetwork, "Failed to fetch"))

	_, err := svc.SignIn(context.Background(), "a@b.co", "secret")

	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.Contains(t, err.Error(), "Failed to fetch")
}

func TestAuthService_ConfigGateBlocksNetwork(t *testing.T) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	// No expectations: any gateway call fails the test.
	gw := mocks.NewMockAuthGateway(ctrl)
	svc := NewAuthService(AuthServiceOptions{Gateway: gw, ConfigErr: errors.New("GATEWAY_ANON_KEY is a placeholder")})
	ctx := context.Background()

	_, err := svc.SignIn(ctx, "a@b.co", "secret")
	require.ErrorIs(t, err, ErrConfig)
	assert.True(t, apperrors.IsConfig(err))

	_, err = svc.SignUp(ctx, "a@b.co", "secret1", "Ada")
	require.ErrorIs(t, err, ErrConfig)

	require.ErrorIs(t, svc.SignOut(ctx), ErrConfig)
}

func TestAuthService_SignUp(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		password  string
		fullName  string
		wantField string
	}{
		{name: "invalid email", email: "nope", password: "secret1", fullName: "Ada", wantField: "email"},
		{name: "short password", email: "a@b.co", password: "12345", fullName: "Ada", wantField: "password"},
		{name: "missing name", email: "a@b.co", password: "123456", fullName: "  ", wantField: "full_name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newAuthService(t)
			_, err := svc.SignUp(context.Background(), tt.email, tt.password, tt.fullName)
			require.Error(t, err)
			assert.Equal(t, tt.wantField, apperrors.GetField(err))
		})
	}
}

func TestAuthService_SignUp_PendingConfirmation(t *testing.T) {
	svc, gw := newAuthService(t)
	gw.EXPECT().
		SignUp(gomock.Any(), ports.SignUpInput{Email: "a@b.co", Password: "123456", DisplayName: "Ada Lovelace"}).
		Return(&ports.SignUpResult{PendingConfirmation: true}, nil)

	res, err := svc.SignUp(context.Background(), "a@b.co", "123456", " Ada Lovelace ")

	require.NoError(t, err)
	assert.True(t, res.PendingConfirmation)
	assert.Nil(t, res.Session)
}

func TestAuthService_SignOut(t *testing.T) {
	svc, gw := newAuthService(t)
	gw.EXPECT().SignOut(gomock.Any()).Return(nil)
	require.NoError(t, svc.SignOut(context.Background()))

	svc, gw = newAuthService(t)
	gw.EXPECT().SignOut(gomock.Any()).Return(errors.New("offline"))
	err := svc.SignOut(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sign out: offline")
}
