package moderation

import (
	"context"
	"testing"

	"civica/models"
	"civica/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requirePendingEditInvariant asserts that previous_status is set exactly
// when the idea sits in pending_edit.
func requirePendingEditInvariant(t *testing.T, idea *models.Idea) {
	t.Helper()
	if idea.Status == models.IdeaPendingEdit {
		require.NotNil(t, idea.PreviousStatus)
	} else {
		require.Nil(t, idea.PreviousStatus)
	}
}

func TestIdeaApprovalFlow(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	author := createUser(t, env.db, "author")
	mod := createUser(t, env.db, "mod")

	idea, err := env.lifecycle.CreateIdea(ctx, author.ID, "Bike lanes", "More bike lanes downtown")
	require.NoError(t, err)
	assert.Equal(t, models.IdeaPending, idea.Status)
	requirePendingEditInvariant(t, idea)

	idea, err = env.lifecycle.ApproveIdea(ctx, mod.ID, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IdeaApproved, idea.Status)
	requirePendingEditInvariant(t, idea)
	assert.Equal(t, 0, idea.EditCount)
}

func TestRejectPendingIdea(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	author := createUser(t, env.db, "author")
	mod := createUser(t, env.db, "mod")

	idea, err := env.lifecycle.CreateIdea(ctx, author.ID, "Bad idea", "content")
	require.NoError(t, err)

	idea, err = env.lifecycle.RejectIdea(ctx, mod.ID, idea.ID, false, "off-topic")
	require.NoError(t, err)
	assert.Equal(t, models.IdeaRejected, idea.Status)
	requirePendingEditInvariant(t, idea)

	// A rejected idea cannot be approved afterwards.
	_, err = env.lifecycle.ApproveIdea(ctx, mod.ID, idea.ID)
	requireAppErrorCode(t, err, "BUSINESS_RULE")
}

func TestEditThenRejectRestoresPreviousStatus(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	author := createUser(t, env.db, "author")
	mod := createUser(t, env.db, "mod")

	idea, err := env.lifecycle.CreateIdea(ctx, author.ID, "Park cleanup", "v1")
	require.NoError(t, err)
	idea, err = env.lifecycle.ApproveIdea(ctx, mod.ID, idea.ID)
	require.NoError(t, err)

	// Author edits the approved idea: back into moderation.
	idea, err = env.lifecycle.SubmitEdit(ctx, author.ID, idea.ID, "Park cleanup", "v2")
	require.NoError(t, err)
	assert.Equal(t, models.IdeaPendingEdit, idea.Status)
	require.NotNil(t, idea.PreviousStatus)
	assert.Equal(t, models.IdeaApproved, *idea.PreviousStatus)
	assert.Equal(t, 1, idea.EditCount)
	require.NotNil(t, idea.LastEditAt)

	// Rejecting the edit restores the previously published status.
	idea, err = env.lifecycle.RejectIdea(ctx, mod.ID, idea.ID, false, "edit made it worse")
	require.NoError(t, err)
	assert.Equal(t, models.IdeaApproved, idea.Status)
	requirePendingEditInvariant(t, idea)

	// The rejection of the edit itself is still on the audit trail.
	var entries []models.AuditEntry
	require.NoError(t, env.db.Where("action = ?", "idea.edit_rejected").Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, mod.ID, entries[0].ActorID)
	assert.Equal(t, models.TargetIdea, entries[0].TargetType)
	assert.Equal(t, idea.ID, entries[0].TargetID)
}

func TestEditRejectWithOverride(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	author := createUser(t, env.db, "author")
	mod := createUser(t, env.db, "mod")

	idea, err := env.lifecycle.CreateIdea(ctx, author.ID, "Park cleanup", "v1")
	require.NoError(t, err)
	_, err = env.lifecycle.ApproveIdea(ctx, mod.ID, idea.ID)
	require.NoError(t, err)
	_, err = env.lifecycle.SubmitEdit(ctx, author.ID, idea.ID, "Park cleanup", "v2")
	require.NoError(t, err)

	// Moderator overrides the restore policy: the idea lands in rejected.
	idea, err = env.lifecycle.RejectIdea(ctx, mod.ID, idea.ID, true, "spam in edit")
	require.NoError(t, err)
	assert.Equal(t, models.IdeaRejected, idea.Status)
	requirePendingEditInvariant(t, idea)
}

func TestEditCountIncrementsOnlyOnApprovedTransition(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	author := createUser(t, env.db, "author")
	mod := createUser(t, env.db, "mod")

	idea, err := env.lifecycle.CreateIdea(ctx, author.ID, "Idea", "v1")
	require.NoError(t, err)

	// In-place edit of a pending idea does not bump the counter.
	idea, err = env.lifecycle.SubmitEdit(ctx, author.ID, idea.ID, "Idea", "v1.1")
	require.NoError(t, err)
	assert.Equal(t, models.IdeaPending, idea.Status)
	assert.Equal(t, 0, idea.EditCount)

	_, err = env.lifecycle.ApproveIdea(ctx, mod.ID, idea.ID)
	require.NoError(t, err)

	idea, err = env.lifecycle.SubmitEdit(ctx, author.ID, idea.ID, "Idea", "v2")
	require.NoError(t, err)
	assert.Equal(t, 1, idea.EditCount)

	// Editing while already pending_edit replaces the submission in place.
	idea, err = env.lifecycle.SubmitEdit(ctx, author.ID, idea.ID, "Idea", "v3")
	require.NoError(t, err)
	assert.Equal(t, models.IdeaPendingEdit, idea.Status)
	assert.Equal(t, 1, idea.EditCount)
}

func TestRejectedIdeaCannotBeEdited(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	author := createUser(t, env.db, "author")
	mod := createUser(t, env.db, "mod")

	idea, err := env.lifecycle.CreateIdea(ctx, author.ID, "Idea", "v1")
	require.NoError(t, err)
	_, err = env.lifecycle.RejectIdea(ctx, mod.ID, idea.ID, false, "")
	require.NoError(t, err)

	_, err = env.lifecycle.SubmitEdit(ctx, author.ID, idea.ID, "Idea", "v2")
	requireAppErrorCode(t, err, "BUSINESS_RULE")
}

func TestSoftDeleteExcludedFromPublicQueries(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	author := createUser(t, env.db, "author")
	mod := createUser(t, env.db, "mod")
	repo := repository.NewIdeaRepository(env.db)

	idea, err := env.lifecycle.CreateIdea(ctx, author.ID, "Idea", "content")
	require.NoError(t, err)
	_, err = env.lifecycle.ApproveIdea(ctx, mod.ID, idea.ID)
	require.NoError(t, err)

	require.NoError(t, env.lifecycle.DeleteIdea(ctx, mod.ID, idea.ID, "duplicate"))

	_, err = repo.GetVisibleByID(ctx, idea.ID)
	requireAppErrorCode(t, err, "NOT_FOUND")

	public, err := repo.ListPublic(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, public)

	// The row is retained for audit/appeal use.
	kept, err := repo.GetByID(ctx, idea.ID)
	require.NoError(t, err)
	assert.True(t, kept.Deleted())
	require.NotNil(t, kept.DeletedBy)
	assert.Equal(t, mod.ID, *kept.DeletedBy)
	assert.Equal(t, "duplicate", kept.DeletionReason)

	// Deleting again is a business-rule failure, not a silent success.
	err = env.lifecycle.DeleteIdea(ctx, mod.ID, idea.ID, "again")
	requireAppErrorCode(t, err, "BUSINESS_RULE")
}

func TestToggleLikeTwiceReturnsToBaseline(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	author := createUser(t, env.db, "author")
	liker := createUser(t, env.db, "liker")

	comment := &models.Comment{Content: "nice", UserID: author.ID, IdeaID: 1}
	require.NoError(t, env.db.Create(comment).Error)

	liked, got, err := env.lifecycle.ToggleCommentLike(ctx, liker.ID, comment.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, got.LikeCount)

	liked, got, err = env.lifecycle.ToggleCommentLike(ctx, liker.ID, comment.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, got.LikeCount)

	// Counter matches the live like rows.
	var rows int64
	require.NoError(t, env.db.Model(&models.CommentLike{}).
		Where("comment_id = ?", comment.ID).Count(&rows).Error)
	assert.Zero(t, rows)
}

func TestSelfLikeRejected(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	author := createUser(t, env.db, "author")

	comment := &models.Comment{Content: "mine", UserID: author.ID, IdeaID: 1}
	require.NoError(t, env.db.Create(comment).Error)

	_, _, err := env.lifecycle.ToggleCommentLike(ctx, author.ID, comment.ID)
	requireAppErrorCode(t, err, "BUSINESS_RULE")
}

func TestLikeOnHiddenOrDeletedCommentRejected(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	author := createUser(t, env.db, "author")
	liker := createUser(t, env.db, "liker")
	mod := createUser(t, env.db, "mod")

	hidden := &models.Comment{Content: "hidden", UserID: author.ID, IdeaID: 1}
	require.NoError(t, env.db.Create(hidden).Error)
	_, err := env.lifecycle.SetCommentHidden(ctx, mod.ID, hidden.ID, true)
	require.NoError(t, err)

	_, _, err = env.lifecycle.ToggleCommentLike(ctx, liker.ID, hidden.ID)
	requireAppErrorCode(t, err, "BUSINESS_RULE")

	deleted := &models.Comment{Content: "gone", UserID: author.ID, IdeaID: 1}
	require.NoError(t, env.db.Create(deleted).Error)
	require.NoError(t, env.lifecycle.DeleteComment(ctx, mod.ID, deleted.ID))

	_, _, err = env.lifecycle.ToggleCommentLike(ctx, liker.ID, deleted.ID)
	requireAppErrorCode(t, err, "BUSINESS_RULE")
}

func TestHideUnhideIsIdempotentAndOrthogonalToDelete(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	author := createUser(t, env.db, "author")
	mod := createUser(t, env.db, "mod")

	comment := &models.Comment{Content: "c", UserID: author.ID, IdeaID: 1}
	require.NoError(t, env.db.Create(comment).Error)

	got, err := env.lifecycle.SetCommentHidden(ctx, mod.ID, comment.ID, true)
	require.NoError(t, err)
	assert.True(t, got.IsHidden)

	// Hiding again is a no-op.
	got, err = env.lifecycle.SetCommentHidden(ctx, mod.ID, comment.ID, true)
	require.NoError(t, err)
	assert.True(t, got.IsHidden)

	// A hidden comment can still be deleted.
	require.NoError(t, env.lifecycle.DeleteComment(ctx, mod.ID, comment.ID))

	got, err = env.lifecycle.SetCommentHidden(ctx, mod.ID, comment.ID, false)
	require.NoError(t, err)
	assert.False(t, got.IsHidden)
}

func TestConcurrentTransitionLoserGetsConflict(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	author := createUser(t, env.db, "author")
	createUser(t, env.db, "mod")

	idea, err := env.lifecycle.CreateIdea(ctx, author.ID, "Idea", "content")
	require.NoError(t, err)

	// Simulate a race: another moderator approves between this caller's
	// read and its guarded update.
	require.NoError(t, env.db.Model(&models.Idea{}).
		Where("id = ?", idea.ID).
		Update("status", models.IdeaApproved).Error)

	err = env.lifecycle.transitionIdea(ctx, idea, map[string]any{
		"status":          models.IdeaRejected,
		"previous_status": nil,
	})
	requireAppErrorCode(t, err, "CONFLICT")

	appErr := err.(*models.AppError)
	assert.True(t, appErr.Retryable)
}
