package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Service implements the account flows on top of the credential core.
type Service struct {
	users  UserRepository
	issuer *TokenIssuer
	now    func() time.Time
	verify func(password string, cred Credential) (bool, error)
}

// NewService creates an account service.
func NewService(users UserRepository, issuer *TokenIssuer) *Service {
	return &Service{users: users, issuer: issuer, now: time.Now, verify: VerifyCredential}
}

// Login checks name and password and issues a token. An unknown name and a
// wrong password both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, name, password string) (*LoginResult, error) {
	if strings.TrimSpace(name) == "" {
		return nil, newError(KindInvalidInput, "username must not be blank")
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	user, err := s.users.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.verify(password, decoyCredential) //nolint:errcheck // result discarded, only the work matters
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := s.verify(password, user.Credential)
	if err != nil {
		return nil, fmt.Errorf("verifying credential for user %d: %w", user.ID, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	token, err := s.issuer.Issue(user.ID, now)
	if err != nil {
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	stamped := now.UTC().Truncate(time.Second)
	user.LastLoginAt = &stamped

	return &LoginResult{User: user, Token: token}, nil
}

// CreateUser creates an account with a fresh credential.
func (s *Service) CreateUser(ctx context.Context, in UserInput) (*User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByName(ctx, in.Name); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("checking username: %w", err)
	}

	cred, err := NewCredential(in.Password)
	if err != nil {
		return nil, err
	}

	user := &User{Name: in.Name, Email: in.Email, Credential: cred}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser changes name and email, and replaces the credential when a
// non-blank password is given.
func (s *Service) UpdateUser(ctx context.Context, id int64, in UserInput) (*User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != user.Name {
		if _, err := s.users.GetByName(ctx, in.Name); err == nil {
			return nil, ErrUsernameExists
		} else if !errors.Is(err, ErrUserNotFound) {
			return nil, fmt.Errorf("checking username: %w", err)
		}
	}

	user.Name = in.Name
	user.Email = in.Email

	if strings.TrimSpace(in.Password) != "" {
		cred, err := NewCredential(in.Password)
		if err != nil {
			return nil, err
		}
		user.Credential = cred
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes an account. Its credential goes with it.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.users.Delete(ctx, id)
}

// GetUser returns one account.
func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// ListUsers returns all accounts.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.users.List(ctx)
}

// validate checks name and email. Password blankness is left to the
// credential core so that update can keep an existing credential.
func (in UserInput) validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.By(validUsername)),
		validation.Field(&in.Email, validation.Required, is.Email),
	)
	if err != nil {
		return newError(KindInvalidInput, "%s", err.Error())
	}
	return nil
}

func validUsername(value any) error {
	name, _ := value.(string)
	if !IsValidUsername(name) {
		return errors.New("must be 1-64 letters, digits, dots, hyphens or underscores")
	}
	return nil
}
