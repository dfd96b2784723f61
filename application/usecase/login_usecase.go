package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/vendora/vendora/application/port/inbound"
	"github.com/vendora/vendora/application/port/outbound"
	domainerror "github.com/vendora/vendora/domain/error"
	"github.com/vendora/vendora/domain/valueobject"
)

type LoginUseCase struct {
	userRepo        outbound.UserRepository
	tokenService    outbound.TokenService
	passwordService outbound.PasswordService
}

func NewLoginUseCase(
	userRepo outbound.UserRepository,
	tokenService outbound.TokenService,
	passwordService outbound.PasswordService,
) *LoginUseCase {
	return &LoginUseCase{
		userRepo:        userRepo,
		tokenService:    tokenService,
		passwordService: passwordService,
	}
}

var _ inbound.AuthUseCase = (*LoginUseCase)(nil)

// Login issues an access token. Unknown emails and wrong passwords fail the
// same way.
func (uc *LoginUseCase) Login(ctx context.Context, req inbound.LoginRequest) (*inbound.LoginResponse, error) {
	credentials, err := valueobject.NewCredentials(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, valueobject.ErrInvalidEmail) {
			return nil, domainerror.ErrInvalidEmail(req.Email)
		}
		return nil, domainerror.ErrInvalidCredentials("")
	}

	user, err := uc.userRepo.FindByEmail(ctx, credentials.Email())
	if err != nil {
		if errors.Is(err, outbound.ErrUserNotFound) {
			return nil, domainerror.ErrInvalidCredentials("")
		}
		return nil, domainerror.ErrDatabaseError("find user", err)
	}

	if err := uc.passwordService.ComparePassword(user.Password, credentials.Password()); err != nil {
		return nil, domainerror.ErrInvalidCredentials("")
	}
	if !user.IsActive {
		return nil, domainerror.ErrUserInactive(user.ID)
	}

	accessToken, err := uc.tokenService.GenerateAccessToken(outbound.TokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		return nil, domainerror.ErrInternalServerError("token generation failed", fmt.Errorf("generate access token: %w", err))
	}

	return &inbound.LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(uc.tokenService.AccessTokenTTL().Seconds()),
		User: inbound.MeResponse{
			ID:    user.ID,
			Email: user.Email,
			Role:  user.Role,
		},
	}, nil
}
