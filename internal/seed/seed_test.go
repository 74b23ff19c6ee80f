package seed

import (
	"testing"

	"agora/internal/models"
	"agora/internal/testutil"
	"agora/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestSeed_PopulatesValidData(t *testing.T) {
	db := testutil.NewTestDB(t)

	res, err := Seed(db, Options{NumUsers: 6, NumPosts: 12, Seed: 42, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	assert.Equal(t, 6, res.Users)
	assert.Equal(t, 12, res.Posts)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 6)
	for _, u := range users {
		assert.NoError(t, validation.ValidateUsername(u.Username), u.Username)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(DefaultPassword)))
	}

	var selfFollows int64
	require.NoError(t, db.Model(&models.Follow{}).Where("follower_id = following_id").Count(&selfFollows).Error)
	assert.Zero(t, selfFollows)

	var comments int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	assert.Equal(t, int64(res.Comments), comments)
}

func TestSeed_CleanRemovesPreviousRun(t *testing.T) {
	db := testutil.NewTestDB(t)

	_, err := Seed(db, Options{NumUsers: 3, NumPosts: 4, Seed: 1, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	_, err = Seed(db, Options{NumUsers: 2, NumPosts: 1, Seed: 2, ShouldClean: true, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)

	var users, posts int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Equal(t, int64(2), users)
	assert.Equal(t, int64(1), posts)
}

func TestSeed_NoUsers(t *testing.T) {
	db := testutil.NewTestDB(t)
	res, err := Seed(db, Options{NumPosts: 5, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	assert.Zero(t, res.Posts)
}
