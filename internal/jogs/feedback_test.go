package jogs_test

import (
	"testing"

	"github.com/2beens/jogtracker/internal/jogs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicID(t *testing.T) {
	for _, topic := range jogs.AllTopics() {
		assert.True(t, topic.IsValid(), topic.String())
	}
	for _, n := range []int{0, 4, 6, 7, 9, -1} {
		assert.False(t, jogs.TopicID(n).IsValid())
	}

	topic, err := jogs.ParseTopicID(" 5 ")
	require.NoError(t, err)
	assert.Equal(t, jogs.TopicFive, topic)

	_, err = jogs.ParseTopicID("4")
	assert.ErrorIs(t, err, jogs.ErrInvalidTopic)
	_, err = jogs.ParseTopicID("five")
	assert.ErrorIs(t, err, jogs.ErrInvalidTopic)
}

func TestFeedback_Validate(t *testing.T) {
	f := &jogs.Feedback{TopicID: jogs.TopicEight, Text: "  great app \n"}
	require.NoError(t, f.Validate())
	assert.Equal(t, "great app", f.Text)

	f = &jogs.Feedback{TopicID: jogs.TopicOne, Text: "   "}
	assert.ErrorIs(t, f.Validate(), jogs.ErrEmptyFeedback)

	f = &jogs.Feedback{TopicID: 4, Text: "text"}
	assert.ErrorIs(t, f.Validate(), jogs.ErrInvalidTopic)
}
