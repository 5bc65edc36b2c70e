package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	config "github.com/mentorhub/marketplace/configs"
	"github.com/mentorhub/marketplace/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validListingInput() CreateListingInput {
	return CreateListingInput{
		Title:         "Ship a Go microservice",
		Description:   "From zero to deployed",
		Category:      "TECHNOLOGY",
		Purposes:      []string{"CAREER"},
		Difficulty:    "INTERMEDIATE",
		DurationWeeks: 6,
		PriceCents:    29900,
		MaxStudents:   10,
		Objectives:    []string{"Design an API", "", "  "},
		Tools:         []string{" Go ", ""},
	}
}

func TestCreate_ImmediateModeIsDiscoverable(t *testing.T) {
	env := newTestEnv(t, config.PublishModeImmediate)
	user, profile := seedMentor(t, env.db, "")

	project, err := env.listings.Create(context.Background(), mentorActor(user, profile), validListingInput())
	require.NoError(t, err)

	assert.True(t, project.IsActive)
	assert.Equal(t, profile.ID, project.MentorID)
	assert.Equal(t, "ship-a-go-microservice", project.Slug)
	assert.Equal(t, "usd", project.Currency)
	assert.Equal(t, []string{"Design an API"}, []string(project.Objectives))
	assert.Equal(t, []string{"Go"}, []string(project.Tools))
	assert.True(t, discoverableIDs(t, env.db)[project.ID])
}

func TestCreate_ReviewModeStartsSuppressed(t *testing.T) {
	env := newTestEnv(t, config.PublishModeReview)
	user, profile := seedMentor(t, env.db, "")
	ctx := context.Background()

	project, err := env.listings.Create(ctx, mentorActor(user, profile), validListingInput())
	require.NoError(t, err)
	assert.False(t, project.IsActive)
	assert.False(t, discoverableIDs(t, env.db)[project.ID])

	_, err = env.listings.AdminSetVisibility(ctx, adminActor(), project.ID, true)
	require.NoError(t, err)
	assert.True(t, discoverableIDs(t, env.db)[project.ID])
}

func TestCreate_RequiresMentor(t *testing.T) {
	env := newTestEnv(t, "")
	student := seedStudent(t, env.db)

	_, err := env.listings.Create(context.Background(), studentActor(student), validListingInput())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAdminSetVisibility_TogglesDiscoverability(t *testing.T) {
	env := newTestEnv(t, "")
	_, profile := seedMentor(t, env.db, "")
	project := seedProject(t, env.db, profile.ID, true, 29900)
	ctx := context.Background()

	updated, err := env.listings.AdminSetVisibility(ctx, adminActor(), project.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.False(t, discoverableIDs(t, env.db)[project.ID])

	_, err = env.listings.GetDiscoverable(ctx, project.ID)
	assert.ErrorIs(t, err, ErrListingNotFound)

	// Repeating the same transition is harmless.
	_, err = env.listings.AdminSetVisibility(ctx, adminActor(), project.ID, false)
	require.NoError(t, err)

	_, err = env.listings.AdminSetVisibility(ctx, adminActor(), project.ID, true)
	require.NoError(t, err)
	assert.True(t, discoverableIDs(t, env.db)[project.ID])

	got, err := env.listings.GetDiscoverable(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, got.ID)

	events, err := env.audit.List(ctx, AuditFilter{TargetID: project.ID.String()})
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestAdminSetVisibility_Errors(t *testing.T) {
	env := newTestEnv(t, "")
	user, profile := seedMentor(t, env.db, "")
	project := seedProject(t, env.db, profile.ID, true, 1000)
	ctx := context.Background()

	_, err := env.listings.AdminSetVisibility(ctx, adminActor(), uuid.New(), false)
	assert.ErrorIs(t, err, ErrListingNotFound)

	_, err = env.listings.AdminSetVisibility(ctx, mentorActor(user, profile), project.ID, false)
	assert.ErrorIs(t, err, ErrForbidden)

	var reloaded models.Project
	require.NoError(t, env.db.First(&reloaded, "id = ?", project.ID).Error)
	assert.True(t, reloaded.IsActive)
}

func TestMentorBulkSuppress_OnlyTouchesOwnListings(t *testing.T) {
	env := newTestEnv(t, "")
	_, target := seedMentor(t, env.db, "")
	_, other := seedMentor(t, env.db, "")
	ctx := context.Background()

	own := []*models.Project{
		seedProject(t, env.db, target.ID, true, 1000),
		seedProject(t, env.db, target.ID, true, 2000),
		seedProject(t, env.db, target.ID, false, 3000),
	}
	foreign := seedProject(t, env.db, other.ID, true, 4000)

	n, err := env.listings.MentorBulkSuppress(ctx, adminActor(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	visible := discoverableIDs(t, env.db)
	for _, p := range own {
		assert.False(t, visible[p.ID])
	}
	assert.True(t, visible[foreign.ID])

	n, err = env.listings.MentorBulkRestore(ctx, adminActor(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	visible = discoverableIDs(t, env.db)
	for _, p := range own {
		assert.True(t, visible[p.ID])
	}
	assert.True(t, visible[foreign.ID])
}

func TestMentorBulkSuppress_SelfService(t *testing.T) {
	env := newTestEnv(t, "")
	user, profile := seedMentor(t, env.db, "")
	_, other := seedMentor(t, env.db, "")
	seedProject(t, env.db, profile.ID, true, 1000)
	theirs := seedProject(t, env.db, other.ID, true, 1000)
	ctx := context.Background()
	actor := mentorActor(user, profile)

	n, err := env.listings.MentorBulkSuppress(ctx, actor, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = env.listings.MentorBulkSuppress(ctx, actor, other.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.True(t, discoverableIDs(t, env.db)[theirs.ID])
}

func TestMentorBulkSuppress_UnknownMentor(t *testing.T) {
	env := newTestEnv(t, "")

	_, err := env.listings.MentorBulkSuppress(context.Background(), adminActor(), uuid.New())
	assert.ErrorIs(t, err, ErrMentorNotFound)
}

func TestListAll_Stats(t *testing.T) {
	env := newTestEnv(t, "")
	_, profile := seedMentor(t, env.db, "")
	seedProject(t, env.db, profile.ID, true, 1000)
	seedProject(t, env.db, profile.ID, false, 1000)
	seedProject(t, env.db, profile.ID, false, 1000)

	projects, stats, err := env.listings.ListAll(context.Background(), adminActor())
	require.NoError(t, err)
	assert.Len(t, projects, 3)
	assert.Equal(t, ListingStats{Total: 3, Active: 1, Pending: 2}, stats)

	student := seedStudent(t, env.db)
	_, _, err = env.listings.ListAll(context.Background(), studentActor(student))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestListDiscoverable_Filters(t *testing.T) {
	env := newTestEnv(t, "")
	_, profile := seedMentor(t, env.db, "")
	beginner := seedProject(t, env.db, profile.ID, true, 1000)
	advanced := seedProject(t, env.db, profile.ID, true, 1000)
	require.NoError(t, env.db.Model(advanced).Update("difficulty", "ADVANCED").Error)
	seedProject(t, env.db, profile.ID, false, 1000)

	all, err := env.listings.ListDiscoverable(context.Background(), ListingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := env.listings.ListDiscoverable(context.Background(), ListingFilter{Difficulty: "BEGINNER"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, beginner.ID, filtered[0].ID)
}
