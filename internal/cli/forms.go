package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/2beens/jogtracker/internal/jogs"

	"github.com/charmbracelet/huh"
)

// prompter asks the user for input interactively.
type prompter interface {
	JogForm(title string, form *jogs.Form) error
	Confirm(title string) (bool, error)
	Feedback(feedback *jogs.Feedback) error
}

type huhPrompter struct{}

func (huhPrompter) JogForm(title string, form *jogs.Form) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Date").
				Description("YYYY-MM-DD or Jan 2, 2006").
				Value(&form.Date).
				Validate(validateDate),
			huh.NewInput().
				Title("Time").
				Description("minutes").
				Value(&form.Time).
				Validate(validateTime),
			huh.NewInput().
				Title("Distance").
				Value(&form.Distance).
				Validate(validateDistance),
		).Title(title),
	).Run()
}

func (huhPrompter) Confirm(title string) (bool, error) {
	var confirmed bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed).
		Run()
	return confirmed, err
}

func (huhPrompter) Feedback(feedback *jogs.Feedback) error {
	if !feedback.TopicID.IsValid() {
		feedback.TopicID = jogs.TopicOne
	}

	options := make([]huh.Option[jogs.TopicID], 0, len(jogs.AllTopics()))
	for _, t := range jogs.AllTopics() {
		options = append(options, huh.NewOption(topicName(t), t))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[jogs.TopicID]().
				Title("Topic").
				Options(options...).
				Value(&feedback.TopicID),
			huh.NewText().
				Title("Feedback").
				Value(&feedback.Text).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return jogs.ErrEmptyFeedback
					}
					return nil
				}),
		),
	).Run()
}

func topicName(t jogs.TopicID) string {
	return fmt.Sprintf("Topic %s", t)
}

func validateDate(s string) error {
	_, err := jogs.ParseDate(s)
	return err
}

func validateTime(s string) error {
	minutes, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("time must be a whole number of minutes")
	}
	if minutes < 0 {
		return errors.New("time must not be negative")
	}
	return nil
}

func validateDistance(s string) error {
	_, err := jogs.ParseDistance(s)
	return err
}
