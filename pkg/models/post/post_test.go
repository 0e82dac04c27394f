package post

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriStateFlags(t *testing.T) {
	var p Post
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","likedCount":3,"hasLiked":null}`), &p))
	assert.Nil(t, p.HasLiked)
	assert.False(t, p.Liked())
	assert.False(t, p.Saved())

	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","hasLiked":true,"hasSaved":false}`), &p))
	assert.True(t, p.Liked())
	assert.False(t, p.Saved())
}

func TestValidateCreatePostRequest(t *testing.T) {
	assert.ErrorIs(t, ValidateCreatePostRequest(CreatePostRequest{Content: "  ", TopicID: "t"}), ErrEmptyContent)
	assert.ErrorIs(t, ValidateCreatePostRequest(CreatePostRequest{Content: "hi"}), ErrTopicRequired)
	assert.NoError(t, ValidateCreatePostRequest(CreatePostRequest{Content: "hi", TopicID: "t"}))
}

func TestMediaType(t *testing.T) {
	ct, err := MediaType("holiday.JPG")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)

	_, err = MediaType("notes.txt")
	assert.ErrorIs(t, err, ErrInvalidMediaType)
}
