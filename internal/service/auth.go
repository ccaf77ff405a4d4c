package service

import (
	"context"
	"errors"
	"strings"

	"github.com/dkrasnov/feed-service/internal/apperr"
	"github.com/dkrasnov/feed-service/internal/models"
	"github.com/dkrasnov/feed-service/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const defaultStatus = "I am new!"

// Signup creates a new account with a hashed password. A duplicate email
// surfaces as a conflict, never as a silent overwrite.
func (s *Service) Signup(ctx context.Context, email, name, password string) (*models.User, error) {
	email = normalizeEmail(email)

	var fields []apperr.FieldError
	if strings.TrimSpace(name) == "" {
		fields = append(fields, apperr.FieldError{Field: "name", Message: "Name must not be empty"})
	}
	if !validEmail(email) {
		fields = append(fields, apperr.FieldError{Field: "email", Message: "Enter a valid Email!"})
	}
	if len(strings.TrimSpace(password)) < minPasswordLen {
		fields = append(fields, apperr.FieldError{Field: "password", Message: "Password must be at least 5 characters long"})
	}
	if len(fields) > 0 {
		return nil, apperr.Validation("Validation failed, you entered invalid data, please try again!", fields...)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal("Failed to create user", err)
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hashedPassword),
		Status:       defaultStatus,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperr.Conflict("E-mail address already exists")
		}
		return nil, apperr.Internal("Failed to create user", err)
	}

	if s.mailer != nil {
		go func(to, name string) {
			if err := s.mailer.SendWelcome(to, name); err != nil {
				s.log.Warnf("Failed to send welcome email to %s: %v", to, err)
			}
		}(user.Email, user.Name)
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a signed identity token. The two
// failure modes carry distinct messages but the same 401 classification.
func (s *Service) Login(ctx context.Context, email, password string) (string, int64, error) {
	user, err := s.users.FindUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", 0, apperr.Authentication("No such user with this email address was found!")
		}
		return "", 0, apperr.Internal("Failed to log in", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", 0, apperr.Authentication("Wrong Password, try again!")
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", 0, apperr.Internal("Failed to log in", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return token, user.ID, nil
}

// GetStatus returns the status text of the authenticated account.
func (s *Service) GetStatus(ctx context.Context, userID int64) (string, error) {
	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperr.NotFound("User not found")
		}
		return "", apperr.Internal("Failed to fetch status", err)
	}
	return user.Status, nil
}

// UpdateStatus sets a new status text on the authenticated account.
func (s *Service) UpdateStatus(ctx context.Context, userID int64, status string) error {
	if strings.TrimSpace(status) == "" {
		return apperr.Validation("Validation failed, you entered invalid data, please try again!",
			apperr.FieldError{Field: "status", Message: "Status must not be empty"})
	}

	if err := s.users.UpdateUserStatus(ctx, userID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return apperr.Internal("Failed to update status", err)
	}

	s.log.Infof("Status updated for user %d", userID)
	return nil
}
