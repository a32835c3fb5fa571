package jogs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidTopic  = errors.New("invalid feedback topic")
	ErrEmptyFeedback = errors.New("feedback text is empty")
)

// TopicID is the feedback topic accepted by the remote service.
type TopicID int

const (
	TopicOne   TopicID = 1
	TopicTwo   TopicID = 2
	TopicThree TopicID = 3
	TopicFive  TopicID = 5
	TopicEight TopicID = 8
)

func AllTopics() []TopicID {
	return []TopicID{TopicOne, TopicTwo, TopicThree, TopicFive, TopicEight}
}

func (t TopicID) IsValid() bool {
	switch t {
	case TopicOne, TopicTwo, TopicThree, TopicFive, TopicEight:
		return true
	default:
		return false
	}
}

func (t TopicID) String() string {
	return strconv.Itoa(int(t))
}

func ParseTopicID(s string) (TopicID, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTopic, s)
	}
	t := TopicID(n)
	if !t.IsValid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTopic, n)
	}
	return t, nil
}

type Feedback struct {
	TopicID TopicID `json:"topicId"`
	Text    string  `json:"text"`
}

// Validate trims the text and checks the topic.
func (f *Feedback) Validate() error {
	if !f.TopicID.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidTopic, f.TopicID)
	}
	f.Text = strings.TrimSpace(f.Text)
	if f.Text == "" {
		return ErrEmptyFeedback
	}
	return nil
}
