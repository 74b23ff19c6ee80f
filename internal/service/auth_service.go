package service

import (
	"context"

	"agora/internal/models"
	"agora/internal/observability"
	"agora/internal/repository"
	"agora/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// AuthService registers and authenticates users. Token issuance lives in the HTTP layer.
type AuthService struct {
	userRepo   repository.UserRepository
	bcryptCost int
}

type RegisterInput struct {
	Username       string
	Email          string
	Password       string
	Bio            string
	ProfilePicture string
}

func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo, bcryptCost: bcrypt.DefaultCost}
}

// WithBcryptCost overrides the hashing cost.
func (s *AuthService) WithBcryptCost(cost int) *AuthService {
	s.bcryptCost = cost
	return s
}

// Register creates a user with a lowercase username and email and a bcrypt hash.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	ctx, end := startSpan(ctx, "AuthService", "Register")
	defer end(&err)

	username := validation.NormalizeIdentity(in.Username)
	email := validation.NormalizeIdentity(in.Email)

	var fields []models.FieldError
	if verr := validation.ValidateUsername(username); verr != nil {
		fields = append(fields, models.FieldError{Field: "username", Message: verr.Error()})
	}
	if verr := validation.ValidateEmail(email); verr != nil {
		fields = append(fields, models.FieldError{Field: "email", Message: verr.Error()})
	}
	if verr := validation.ValidatePassword(in.Password); verr != nil {
		fields = append(fields, models.FieldError{Field: "password", Message: verr.Error()})
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields[0].Message, fields)
	}

	bio, err := checkText("bio", in.Bio, 0, MaxBioLen)
	if err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewConflictError("Username or email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user = &models.User{
		Username:       username,
		Email:          email,
		Password:       string(hash),
		Bio:            bio,
		ProfilePicture: in.ProfilePicture,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	observability.RecordEvent(observability.EventUserSignedUp)
	return user, nil
}

// Authenticate matches identifier against username or email, case-insensitively.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password string) (user *models.User, err error) {
	ctx, end := startSpan(ctx, "AuthService", "Authenticate")
	defer end(&err)

	invalid := models.NewUnauthorizedError("Invalid credentials")

	identifier = validation.NormalizeIdentity(identifier)
	if identifier == "" || password == "" {
		return nil, invalid
	}

	user, err = s.userRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, invalid
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, invalid
	}
	return user, nil
}
