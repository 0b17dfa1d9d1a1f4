package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/grievances/models"
)

func TestCreateSnapshotsPartner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	solo := f.file(t, alice, "before linking")
	assert.Nil(t, solo.PartnerUserID)
	assert.Nil(t, solo.Partner)
	assert.False(t, solo.IsPartnerGrievance)
	assert.Equal(t, models.StatusOpen, solo.Status)
	assert.Equal(t, models.CommunicationPending, solo.CommunicationStatus)

	f.link(t, alice, bob)
	linked := f.file(t, alice, "after linking")
	require.NotNil(t, linked.PartnerUserID)
	assert.Equal(t, bob.ID, *linked.PartnerUserID)
	assert.True(t, linked.IsPartnerGrievance)
	require.NotNil(t, linked.Partner)
	assert.Equal(t, "bob", linked.Partner.Username)

	// the snapshot survives an unlink
	require.NoError(t, f.partners.Unlink(ctx, alice.ID))
	again, err := f.grievances.Get(ctx, linked.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, *again.PartnerUserID)
	require.NotNil(t, again.Partner)
	assert.Equal(t, bob.ID, again.Partner.ID)
	assert.True(t, again.IsPartnerGrievance)

	assert.Equal(t, 2, f.reload(t, alice.ID).GrievancesSubmitted)
}

func TestPartnerPreloadFollowsSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	f.link(t, alice, bob)

	var ids []uint
	for _, title := range []string{"dishes", "laundry", "curtains", "late again"} {
		ids = append(ids, f.file(t, alice, title).ID)
	}

	for _, id := range ids {
		g, err := f.grievances.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, g.Partner, "grievance %d", id)
		assert.Equal(t, bob.ID, g.Partner.ID, "grievance %d", id)
		assert.Equal(t, alice.ID, g.User.ID, "grievance %d", id)
	}

	list, err := f.grievances.List(ctx, ListFilter{AuthorIDs: []uint{alice.ID}})
	require.NoError(t, err)
	require.Len(t, list, len(ids))
	for _, g := range list {
		require.NotNil(t, g.Partner, "grievance %d", g.ID)
		assert.Equal(t, "bob", g.Partner.Username)
	}
}

func TestCreateValidates(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")

	_, err := f.grievances.Create(context.Background(), alice.ID, CreateInput{
		Category:             "Snoring",
		Severity:             models.SeverityLow,
		RelationshipDuration: "forever",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	params := map[string]bool{}
	for _, fe := range verr.Fields {
		params[fe.Param] = true
	}
	assert.True(t, params["title"])
	assert.True(t, params["description"])
	assert.True(t, params["category"])
	assert.True(t, params["relationshipDuration"])
	assert.True(t, params["boyfriendName"])
	assert.False(t, params["severity"])
	assert.Equal(t, 0, f.reload(t, alice.ID).GrievancesSubmitted)

	_, err = f.grievances.Create(context.Background(), alice.ID, CreateInput{
		Title:       "dishes",
		Description: "left in the sink",
		Category:    models.CategoryMessiness,
		Severity:    models.SeverityLow,
	})
	require.ErrorAs(t, err, &verr)
	params = map[string]bool{}
	for _, fe := range verr.Fields {
		params[fe.Param] = true
	}
	assert.Equal(t, map[string]bool{"boyfriendName": true, "relationshipDuration": true}, params)
}

func TestUpdatePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	charlie := f.register(t, "charlie")
	f.link(t, alice, bob)
	g := f.file(t, alice, "dishes")

	_, err := f.grievances.Update(ctx, charlie.ID, g.ID, UpdateInput{Title: "hijacked"})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	updated, err := f.grievances.Update(ctx, alice.ID, g.ID, UpdateInput{Title: "dishes, again", Severity: models.SeverityHigh})
	require.NoError(t, err)
	assert.Equal(t, "dishes, again", updated.Title)
	assert.Equal(t, models.SeverityHigh, updated.Severity)
	assert.Equal(t, "details for dishes", updated.Description)

	updated, err = f.grievances.Update(ctx, bob.ID, g.ID, UpdateInput{Status: models.StatusInProgress, Tags: []string{"kitchen"}})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, []string{"kitchen"}, updated.Tags)

	_, err = f.grievances.Update(ctx, alice.ID, g.ID, UpdateInput{Category: "Snoring"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.grievances.Update(ctx, alice.ID, 9999, UpdateInput{Title: "x"})
	assert.ErrorIs(t, err, ErrGrievanceNotFound)
}

func TestUpdateStatusesAreUnguarded(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	g := f.file(t, alice, "gaming")

	updated, err := f.grievances.Update(context.Background(), alice.ID, g.ID, UpdateInput{
		Status:              models.StatusClosed,
		CommunicationStatus: models.CommunicationEscalated,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, updated.Status)
	assert.Equal(t, models.CommunicationEscalated, updated.CommunicationStatus)
}

func TestUpdateCarriesPartnerResponseOnlyFromPartner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	f.link(t, alice, bob)
	g := f.file(t, alice, "texts")

	// a response from the author through update is ignored
	updated, err := f.grievances.Update(ctx, alice.ID, g.ID, UpdateInput{PartnerResponse: "noted"})
	require.NoError(t, err)
	assert.False(t, updated.PartnerResponse.Exists())

	updated, err = f.grievances.Update(ctx, bob.ID, g.ID, UpdateInput{PartnerResponse: "sorry"})
	require.NoError(t, err)
	assert.True(t, updated.PartnerResponse.Exists())
	assert.Equal(t, "sorry", updated.PartnerResponse.Text)
	assert.False(t, updated.PartnerResponse.IsRead)
	assert.Equal(t, models.CommunicationResponded, updated.CommunicationStatus)
}

func TestDeleteOnlyByAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	f.link(t, alice, bob)
	g := f.file(t, alice, "laundry")
	_, err := f.grievances.Comment(ctx, bob.ID, g.ID, "on it")
	require.NoError(t, err)
	_, err = f.grievances.ToggleLike(ctx, bob.ID, g.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.grievances.Delete(ctx, bob.ID, g.ID), ErrNotAuthorized)
	require.NoError(t, f.grievances.Delete(ctx, alice.ID, g.ID))

	_, err = f.grievances.Get(ctx, g.ID)
	assert.ErrorIs(t, err, ErrGrievanceNotFound)
	assert.ErrorIs(t, f.grievances.Delete(ctx, alice.ID, g.ID), ErrGrievanceNotFound)

	var comments, likes int64
	f.db.Model(&models.Comment{}).Where("grievance_id = ?", g.ID).Count(&comments)
	f.db.Model(&models.Like{}).Where("grievance_id = ?", g.ID).Count(&likes)
	assert.Zero(t, comments)
	assert.Zero(t, likes)
	assert.Equal(t, 0, f.reload(t, alice.ID).GrievancesSubmitted)
}

func TestToggleLikeTwiceRestoresSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	dave := f.register(t, "dave")
	erin := f.register(t, "erin")
	g := f.file(t, alice, "attention")

	g, err := f.grievances.ToggleLike(ctx, erin.ID, g.ID)
	require.NoError(t, err)
	require.Len(t, g.Likes, 1)

	g, err = f.grievances.ToggleLike(ctx, dave.ID, g.ID)
	require.NoError(t, err)
	assert.Len(t, g.Likes, 2)
	assert.True(t, g.LikedBy(dave.ID))

	g, err = f.grievances.ToggleLike(ctx, dave.ID, g.ID)
	require.NoError(t, err)
	require.Len(t, g.Likes, 1)
	assert.False(t, g.LikedBy(dave.ID))
	assert.True(t, g.LikedBy(erin.ID))

	_, err = f.grievances.ToggleLike(ctx, dave.ID, 9999)
	assert.ErrorIs(t, err, ErrGrievanceNotFound)
}

func TestCommentTagsPartnerAtInsertTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	charlie := f.register(t, "charlie")
	f.link(t, alice, bob)
	g := f.file(t, alice, "jealousy")

	_, err := f.grievances.Comment(ctx, charlie.ID, g.ID, "first")
	require.NoError(t, err)
	_, err = f.grievances.Comment(ctx, bob.ID, g.ID, "second")
	require.NoError(t, err)
	require.NoError(t, f.partners.Unlink(ctx, alice.ID))
	g, err = f.grievances.Comment(ctx, bob.ID, g.ID, "third")
	require.NoError(t, err)

	require.Len(t, g.Comments, 3)
	assert.Equal(t, "third", g.Comments[0].Text)
	assert.False(t, g.Comments[0].IsPartnerComment)
	assert.Equal(t, "second", g.Comments[1].Text)
	assert.True(t, g.Comments[1].IsPartnerComment)
	assert.Equal(t, "bob", g.Comments[1].User.Username)
	assert.Equal(t, "first", g.Comments[2].Text)
	assert.False(t, g.Comments[2].IsPartnerComment)

	_, err = f.grievances.Comment(ctx, bob.ID, g.ID, "   ")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestRespondOverwritesSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	f.link(t, alice, bob)
	g := f.file(t, alice, "messiness")

	_, err := f.grievances.Respond(ctx, bob.ID, g.ID, "first answer")
	require.NoError(t, err)
	_, err = f.grievances.MarkRead(ctx, alice.ID, g.ID)
	require.NoError(t, err)

	g, err = f.grievances.Respond(ctx, bob.ID, g.ID, "second answer")
	require.NoError(t, err)
	assert.Equal(t, "second answer", g.PartnerResponse.Text)
	assert.False(t, g.PartnerResponse.IsRead)
	assert.Equal(t, models.CommunicationResponded, g.CommunicationStatus)

	_, err = f.grievances.Respond(ctx, alice.ID, g.ID, "talking to myself")
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.grievances.Respond(ctx, bob.ID, g.ID, "")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestMarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	f.link(t, alice, bob)
	g := f.file(t, alice, "social")

	before := g.UpdatedAt
	g, err := f.grievances.MarkRead(ctx, alice.ID, g.ID)
	require.NoError(t, err)
	assert.False(t, g.PartnerResponse.Exists())
	assert.False(t, g.PartnerResponse.IsRead)
	assert.True(t, before.Equal(g.UpdatedAt))

	_, err = f.grievances.Respond(ctx, bob.ID, g.ID, "ok")
	require.NoError(t, err)

	_, err = f.grievances.MarkRead(ctx, bob.ID, g.ID)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	g, err = f.grievances.MarkRead(ctx, alice.ID, g.ID)
	require.NoError(t, err)
	assert.True(t, g.PartnerResponse.IsRead)
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	charlie := f.register(t, "charlie")
	f.link(t, alice, bob)

	f.file(t, alice, "dishes")
	f.file(t, bob, "snoring")
	_, err := f.grievances.Create(ctx, charlie.ID, CreateInput{
		Title:                "late replies",
		Description:          "never answers texts",
		Category:             models.CategorySocialMedia,
		Severity:             models.SeverityCritical,
		BoyfriendName:        "Max",
		RelationshipDuration: "Less than 6 months",
		Tags:                 []string{"phone"},
	})
	require.NoError(t, err)

	all, err := f.grievances.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "late replies", all[0].Title)
	assert.Equal(t, "dishes", all[2].Title)

	bySeverity, err := f.grievances.List(ctx, ListFilter{Severity: models.SeverityCritical})
	require.NoError(t, err)
	require.Len(t, bySeverity, 1)

	byCategory, err := f.grievances.List(ctx, ListFilter{Category: models.CategoryCommunication, Status: models.StatusOpen})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	bySearch, err := f.grievances.List(ctx, ListFilter{Search: "phone"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, charlie.ID, bySearch[0].UserID)

	scope, err := f.grievances.AuthorScope(ctx, alice.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{alice.ID, bob.ID}, scope)

	couple, err := f.grievances.List(ctx, ListFilter{AuthorIDs: scope})
	require.NoError(t, err)
	assert.Len(t, couple, 2)
}

func TestPartnerFeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	charlie := f.register(t, "charlie")

	_, err := f.grievances.PartnerFeed(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrNoPartner)

	f.link(t, alice, bob)
	f.file(t, alice, "one")
	f.file(t, bob, "two")
	f.file(t, charlie, "three")

	feed, err := f.grievances.PartnerFeed(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "two", feed[0].Title)
	assert.Equal(t, "one", feed[1].Title)
}

func TestLinkedCoupleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	f.link(t, alice, bob)
	assert.Equal(t, models.RelationshipInRelation, f.reload(t, alice.ID).RelationshipStatus)
	assert.Equal(t, models.RelationshipInRelation, f.reload(t, bob.ID).RelationshipStatus)

	g := f.file(t, alice, "forgot our anniversary")
	require.NotNil(t, g.PartnerUserID)
	assert.Equal(t, bob.ID, *g.PartnerUserID)

	g, err := f.grievances.Respond(ctx, bob.ID, g.ID, "I am so sorry")
	require.NoError(t, err)
	assert.Equal(t, models.CommunicationResponded, g.CommunicationStatus)
	assert.False(t, g.PartnerResponse.IsRead)

	g, err = f.grievances.MarkRead(ctx, alice.ID, g.ID)
	require.NoError(t, err)
	assert.True(t, g.PartnerResponse.IsRead)
}

func TestUnlinkedUserCannotRespond(t *testing.T) {
	f := newFixture(t)
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	charlie := f.register(t, "charlie")
	f.link(t, alice, bob)
	g := f.file(t, alice, "forgot our anniversary")

	_, err := f.grievances.Respond(context.Background(), charlie.ID, g.ID, "not my business")
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestListSearchIgnoresCaseAndWildcards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice")

	f.file(t, alice, "Always 100% late")
	f.file(t, alice, "dishes piled up")
	f.file(t, alice, "Dirty_Socks everywhere")

	for search, want := range map[string]int{
		"LATE":   1,
		"Dishes": 1,
		"%":      1,
		"_":      1,
		"y_s":    1,
		"!":      0,
		"":       3,
	} {
		got, err := f.grievances.List(ctx, ListFilter{Search: search})
		require.NoError(t, err)
		assert.Len(t, got, want, "search %q", search)
	}
}
