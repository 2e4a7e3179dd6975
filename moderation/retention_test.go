package moderation

import (
	"context"
	"testing"
	"time"

	"civica/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetentionScrubsOldDeletedContent(t *testing.T) {
	env := setupEnv(t)
	author := createUser(t, env.db, "author")
	mod := createUser(t, env.db, "mod")

	idea, err := env.lifecycle.CreateIdea(context.Background(), author.ID, "Old Idea", "original body")
	require.NoError(t, err)
	_, err = env.lifecycle.ApproveIdea(context.Background(), mod.ID, idea.ID)
	require.NoError(t, err)

	comment := &models.Comment{IdeaID: idea.ID, UserID: author.ID, Content: "a comment"}
	require.NoError(t, env.db.Create(comment).Error)

	require.NoError(t, env.lifecycle.DeleteIdea(context.Background(), mod.ID, idea.ID, "spam"))
	require.NoError(t, env.lifecycle.DeleteComment(context.Background(), mod.ID, comment.ID))

	job := NewRetentionJob(env.db, nil, 365)
	job.now = env.clock.Now

	// Inside the retention window nothing is touched.
	env.clock.Advance(100 * 24 * time.Hour)
	require.NoError(t, job.Run(context.Background()))

	var fresh models.Idea
	require.NoError(t, env.db.First(&fresh, idea.ID).Error)
	assert.Equal(t, "original body", fresh.Content)

	// Past the window the content is replaced but the rows survive.
	env.clock.Advance(300 * 24 * time.Hour)
	require.NoError(t, job.Run(context.Background()))

	require.NoError(t, env.db.First(&fresh, idea.ID).Error)
	assert.Equal(t, "[removed]", fresh.Title)
	assert.Equal(t, "[removed]", fresh.Content)
	assert.NotNil(t, fresh.DeletedAt)

	var freshComment models.Comment
	require.NoError(t, env.db.First(&freshComment, comment.ID).Error)
	assert.Equal(t, "[removed]", freshComment.Content)
}

func TestRetentionIgnoresLiveContent(t *testing.T) {
	env := setupEnv(t)
	author := createUser(t, env.db, "author")

	idea, err := env.lifecycle.CreateIdea(context.Background(), author.ID, "Live Idea", "live body")
	require.NoError(t, err)

	job := NewRetentionJob(env.db, nil, 365)
	job.now = env.clock.Now

	env.clock.Advance(400 * 24 * time.Hour)
	require.NoError(t, job.Run(context.Background()))

	var fresh models.Idea
	require.NoError(t, env.db.First(&fresh, idea.ID).Error)
	assert.Equal(t, "live body", fresh.Content)
}

func TestRetentionRunIsIdempotent(t *testing.T) {
	env := setupEnv(t)
	author := createUser(t, env.db, "author")
	mod := createUser(t, env.db, "mod")

	idea, err := env.lifecycle.CreateIdea(context.Background(), author.ID, "Old Idea", "body")
	require.NoError(t, err)
	require.NoError(t, env.lifecycle.DeleteIdea(context.Background(), mod.ID, idea.ID, "spam"))

	job := NewRetentionJob(env.db, nil, 30)
	job.now = env.clock.Now

	env.clock.Advance(31 * 24 * time.Hour)
	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()))

	var count int64
	require.NoError(t, env.db.Model(&models.Idea{}).Where("content = ?", "[removed]").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
