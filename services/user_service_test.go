package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/grievances/models"
	"github.com/cppla/grievances/utils"
)

func TestRegisterDefaultsAndUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.Register(ctx, RegisterInput{Username: "alice", Email: " Alice@X.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", u.Email)
	assert.Equal(t, models.RelationshipSingle, u.RelationshipStatus)
	assert.NotEqual(t, "secret1", u.PasswordHash)
	assert.True(t, utils.CheckPassword(u.PasswordHash, "secret1"))
	assert.Equal(t, models.CommunicationPartnerOnly, u.CommunicationPreferences.Privacy)
	assert.False(t, u.JoinDate.IsZero())

	_, err = f.users.Register(ctx, RegisterInput{Username: "alice", Email: "other@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUserExists)
	_, err = f.users.Register(ctx, RegisterInput{Username: "alice2", Email: "alice@x.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUserExists)

	married, err := f.users.Register(ctx, RegisterInput{Username: "mallory", Email: "m@x.com", Password: "secret1", RelationshipStatus: models.RelationshipMarried})
	require.NoError(t, err)
	assert.Equal(t, models.RelationshipMarried, married.RelationshipStatus)
}

func TestRegisterValidates(t *testing.T) {
	f := newFixture(t)

	_, err := f.users.Register(context.Background(), RegisterInput{Username: "", Email: "not-an-email", Password: "123"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	u, err := f.users.Authenticate(ctx, "ALICE@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, u.ID)

	_, err = f.users.Authenticate(ctx, "alice@x.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.users.Authenticate(ctx, "ghost@x.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfileMergesPreferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	f.register(t, "bob")

	off := false
	friends := models.PreferencePrivacyFriends
	u, err := f.users.UpdateProfile(ctx, alice.ID, ProfileInput{
		Bio:                      "hello <b>world</b>",
		Preferences:              &PreferencesPatch{Privacy: &friends},
		CommunicationPreferences: &CommunicationPreferencesPatch{AllowPartnerResponses: &off},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello world", u.Bio)

	stored := f.reload(t, alice.ID)
	assert.Equal(t, models.PreferencePrivacyFriends, stored.Preferences.Privacy)
	assert.True(t, stored.Preferences.Notifications)
	assert.False(t, stored.CommunicationPreferences.AllowPartnerResponses)
	assert.True(t, stored.CommunicationPreferences.EmailNotifications)
	assert.Equal(t, models.CommunicationPartnerOnly, stored.CommunicationPreferences.Privacy)

	_, err = f.users.UpdateProfile(ctx, alice.ID, ProfileInput{Username: "bob"})
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = f.users.UpdateProfile(ctx, alice.ID, ProfileInput{RelationshipStatus: "Situationship"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	f.link(t, alice, bob)
	f.file(t, alice, "one")

	stats, err := f.users.Stats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.GrievancesSubmitted)
	assert.True(t, stats.HasPartner)
	assert.Equal(t, models.RelationshipInRelation, stats.RelationshipStatus)
	assert.NotNil(t, stats.RelationshipStartDate)

	_, err = f.users.Stats(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestValidEmail(t *testing.T) {
	assert.True(t, validEmail("alice@x.com"))
	assert.False(t, validEmail(""))
	assert.False(t, validEmail("not-an-email"))
	assert.False(t, validEmail("Alice <alice@x.com>"))
}
