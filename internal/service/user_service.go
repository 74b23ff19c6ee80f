package service

import (
	"context"
	"strings"

	"agora/internal/cache"
	"agora/internal/models"
	"agora/internal/repository"
	"agora/internal/storage"
	"agora/internal/validation"
)

type UserService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	images     ImageStore
}

// UpdateSettingsInput carries the optional settings fields; nil means unchanged.
// Upload wins over ProfilePicture when both are set.
type UpdateSettingsInput struct {
	UserID         uint
	Username       *string
	Bio            *string
	ProfilePicture *string
	Upload         *storage.UploadInput
}

func NewUserService(userRepo repository.UserRepository, followRepo repository.FollowRepository, images ImageStore) *UserService {
	return &UserService{userRepo: userRepo, followRepo: followRepo, images: images}
}

func (s *UserService) followLists(ctx context.Context, userID uint) (followers, following []models.UserSummary, err error) {
	if followers, err = s.followRepo.Followers(ctx, userID); err != nil {
		return nil, nil, err
	}
	if following, err = s.followRepo.Following(ctx, userID); err != nil {
		return nil, nil, err
	}
	return followers, following, nil
}

// GetSelf returns the caller's own profile including email.
func (s *UserService) GetSelf(ctx context.Context, userID uint) (profile *models.Profile, err error) {
	ctx, end := startSpan(ctx, "UserService", "GetSelf")
	defer end(&err)

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, following, err := s.followLists(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &models.Profile{
		Account:        models.NewAccount(user),
		Followers:      followers,
		Following:      following,
		FollowersCount: len(followers),
		FollowingCount: len(following),
	}, nil
}

// GetPublicProfile is served through the profile cache.
func (s *UserService) GetPublicProfile(ctx context.Context, username string) (profile *models.PublicProfile, err error) {
	ctx, end := startSpan(ctx, "UserService", "GetPublicProfile")
	defer end(&err)

	username = validation.NormalizeIdentity(username)
	var out models.PublicProfile
	err = cache.Aside(ctx, cache.ProfileKey(username), &out, cache.ProfileTTL, func() error {
		user, err := s.userRepo.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		followers, following, err := s.followLists(ctx, user.ID)
		if err != nil {
			return err
		}
		out = models.PublicProfile{
			User:           user,
			Followers:      followers,
			Following:      following,
			FollowersCount: len(followers),
			FollowingCount: len(following),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSettings applies only the provided fields.
func (s *UserService) UpdateSettings(ctx context.Context, in UpdateSettingsInput) (account *models.Account, err error) {
	ctx, end := startSpan(ctx, "UserService", "UpdateSettings")
	defer end(&err)

	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	previous := user.Username

	if in.Username != nil {
		username := validation.NormalizeIdentity(*in.Username)
		if username != user.Username {
			if verr := validation.ValidateUsername(username); verr != nil {
				return nil, fieldError("username", verr.Error())
			}
			taken, err := s.userRepo.UsernameTaken(ctx, username, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, models.NewConflictError("Username already taken")
			}
			user.Username = username
		}
	}

	if in.Bio != nil {
		bio, err := checkText("bio", *in.Bio, 0, MaxBioLen)
		if err != nil {
			return nil, err
		}
		user.Bio = bio
	}

	switch {
	case in.Upload != nil:
		ref, err := s.images.SaveImage(ctx, in.Upload, storage.ProfilePrefix)
		if err != nil {
			return nil, err
		}
		user.ProfilePicture = ref
	case in.ProfilePicture != nil:
		user.ProfilePicture = strings.TrimSpace(*in.ProfilePicture)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	s.invalidateProfiles(ctx, user, previous)
	acc := models.NewAccount(user)
	return &acc, nil
}

// invalidateProfiles drops the user's cached profile and every cached profile
// that lists the user as a follower or followee.
func (s *UserService) invalidateProfiles(ctx context.Context, user *models.User, previous string) {
	names := []string{previous, user.Username}
	if followers, following, err := s.followLists(ctx, user.ID); err == nil {
		for _, u := range append(followers, following...) {
			names = append(names, u.Username)
		}
	}
	cache.InvalidateProfiles(ctx, names...)
}
