package cli

import (
	"fmt"

	"github.com/2beens/jogtracker/internal/jogs"

	"github.com/spf13/cobra"
)

func (a *app) feedbackCmd() *cobra.Command {
	var (
		topic       string
		text        string
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Send feedback to the jog tracker team",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var feedback jogs.Feedback
			if topic != "" {
				topicID, err := jogs.ParseTopicID(topic)
				if err != nil {
					return err
				}
				feedback.TopicID = topicID
			}
			feedback.Text = text

			if interactive || topic == "" || text == "" {
				if err := a.prompter.Feedback(&feedback); err != nil {
					return fmt.Errorf("feedback form: %w", err)
				}
			}
			if err := feedback.Validate(); err != nil {
				return err
			}

			creds, client, err := a.loggedInClient(cmd)
			if err != nil {
				return err
			}
			if err := client.SendFeedback(cmd.Context(), feedback, creds.AccessToken); err != nil {
				return fmt.Errorf("send feedback: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "thanks for the feedback")
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "topic id, see: jogtracker topics")
	cmd.Flags().StringVar(&text, "text", "", "feedback text")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "fill in the feedback in a form")
	return cmd
}

func (a *app) topicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List the feedback topics",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range jogs.AllTopics() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", t, topicName(t))
			}
		},
	}
}
