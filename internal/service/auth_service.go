package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bloggers-platform/internal/domain"
	"bloggers-platform/internal/mail"
	"bloggers-platform/internal/repository"
	"bloggers-platform/internal/security"

	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials covers unknown identifier, wrong password and
	// unconfirmed email alike so the response can't be used as an oracle.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrLoginTaken              = errors.New("login already taken")
	ErrEmailTaken              = errors.New("email already taken")
	ErrInvalidConfirmationCode = errors.New("invalid confirmation code")
	ErrEmailAlreadyConfirmed   = errors.New("email already confirmed")
)

type AuthService struct {
	users           repository.UserRepository
	sender          mail.Sender
	unknownIDs      UnknownIdentifierCache
	confirmationTTL time.Duration
	unknownIDTTL    time.Duration
}

func NewAuthService(users repository.UserRepository, sender mail.Sender, unknownIDs UnknownIdentifierCache, confirmationTTL, unknownIDTTL time.Duration) *AuthService {
	if unknownIDs == nil {
		unknownIDs = NoopUnknownIdentifierCache{}
	}
	return &AuthService{
		users:           users,
		sender:          sender,
		unknownIDs:      unknownIDs,
		confirmationTTL: confirmationTTL,
		unknownIDTTL:    unknownIDTTL,
	}
}

// CheckCredentials resolves the user behind a login-or-email identifier and
// verifies the password against the stored hash and per-user salt. Any
// authentication failure is ErrInvalidCredentials. Identifiers that resolve
// to no account are cached so repeated probes skip the database.
func (s *AuthService) CheckCredentials(loginOrEmail, password string) (*domain.User, error) {
	ctx := context.Background()
	if known, err := s.unknownIDs.Contains(ctx, loginOrEmail); err == nil && known {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByLoginOrEmail(loginOrEmail)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = s.unknownIDs.Remember(ctx, loginOrEmail, s.unknownIDTTL)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.EmailConfirmed {
		return nil, ErrInvalidCredentials
	}
	if !security.VerifyPassword(password, user.PasswordSalt, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Register creates an unconfirmed user and emails the confirmation code.
func (s *AuthService) Register(login, password, email string) error {
	if err := s.checkIdentifiersFree(login, email); err != nil {
		return err
	}

	user, err := newUser(login, password, email)
	if err != nil {
		return err
	}
	code := uuid.NewString()
	expires := time.Now().Add(s.confirmationTTL)
	user.ConfirmationCode = &code
	user.ConfirmationExpiresAt = &expires

	if err := s.users.Create(user); err != nil {
		return err
	}
	s.forgetUnknownIdentifiers()
	if err := s.sender.SendConfirmationEmail(user.Email, code); err != nil {
		return err
	}
	return nil
}

// forgetUnknownIdentifiers drops the negative cache after a user is created;
// an identifier cached as unknown may now belong to the new account.
func (s *AuthService) forgetUnknownIdentifiers() {
	_ = s.unknownIDs.Reset(context.Background())
}

// ConfirmEmail flips the confirmation gate for the user owning the code.
func (s *AuthService) ConfirmEmail(code string) error {
	user, err := s.users.FindByConfirmationCode(code)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidConfirmationCode
		}
		return err
	}
	if user.EmailConfirmed {
		return ErrInvalidConfirmationCode
	}
	if user.ConfirmationExpiresAt != nil && user.ConfirmationExpiresAt.Before(time.Now()) {
		return ErrInvalidConfirmationCode
	}

	user.EmailConfirmed = true
	user.ConfirmationCode = nil
	user.ConfirmationExpiresAt = nil
	return s.users.Update(user)
}

// ResendConfirmation replaces the pending code and emails it again.
func (s *AuthService) ResendConfirmation(email string) error {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidConfirmationCode
		}
		return err
	}
	if user.EmailConfirmed {
		return ErrEmailAlreadyConfirmed
	}

	code := uuid.NewString()
	expires := time.Now().Add(s.confirmationTTL)
	user.ConfirmationCode = &code
	user.ConfirmationExpiresAt = &expires
	if err := s.users.Update(user); err != nil {
		return err
	}
	return s.sender.SendConfirmationEmail(user.Email, code)
}

func (s *AuthService) checkIdentifiersFree(login, email string) error {
	if _, err := s.users.FindByLogin(login); err == nil {
		return ErrLoginTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}
	if _, err := s.users.FindByEmail(email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}
	return nil
}

func newUser(login, password, email string) (*domain.User, error) {
	salt, err := security.NewPasswordSalt()
	if err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(password, salt)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &domain.User{
		Login:        login,
		Email:        email,
		PasswordHash: hash,
		PasswordSalt: salt,
	}, nil
}
