// Package cli implements the jogtracker command-line client. It talks to the
// remote jog tracker api directly, through the same sync coordinator and
// report aggregator the service uses.
package cli

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/2beens/jogtracker/internal/jogapi"
	"github.com/2beens/jogtracker/internal/jogsync"
	"github.com/2beens/jogtracker/internal/logging"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Version and Commit are set at build time via ldflags
	Version = "dev"
	Commit  = ""
)

const envAPIURL = "JOGTRACKER_API_URL"

type app struct {
	apiURL          string
	credentialsPath string
	timeout         time.Duration
	verbose         bool

	prompter   prompter
	httpClient *http.Client
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{prompter: huhPrompter{}})
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "jogtracker",
		Short: "Jog Tracker - log your runs and see how your weeks went",
		Long: `Jog Tracker (jogtracker) logs your jogs on the remote jog tracker service
and groups them into weekly reports with totals and averages.

Start with: jogtracker login <device-uuid>`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetOutput(cmd.ErrOrStderr())
			if a.verbose {
				log.SetLevel(logging.GetLevel("debug"))
			} else {
				log.SetLevel(logging.GetLevel("warn"))
			}
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("jogtracker version %s\ncommit: %s\n", Version, Commit))

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", defaultAPIURL(), "remote jog tracker api base url")
	root.PersistentFlags().StringVar(&a.credentialsPath, "credentials", defaultCredentialsPath(), "where the login is kept")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 15*time.Second, "timeout of a single api request")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(a.loginCmd())
	root.AddCommand(a.logoutCmd())
	root.AddCommand(a.jogsCmd())
	root.AddCommand(a.reportCmd())
	root.AddCommand(a.feedbackCmd())
	root.AddCommand(a.topicsCmd())

	return root
}

func defaultAPIURL() string {
	if u := os.Getenv(envAPIURL); u != "" {
		return u
	}
	return jogapi.DefaultBaseURL
}

func defaultCredentialsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "jogtracker", "credentials.toml")
}

func (a *app) newClient(apiURL string) (*jogapi.Client, error) {
	httpClient := a.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: a.timeout}
	}
	return jogapi.NewClient(apiURL, httpClient)
}

// loggedInClient returns the stored login and a client for the api it was made against.
func (a *app) loggedInClient(cmd *cobra.Command) (*Credentials, *jogapi.Client, error) {
	creds, err := loadCredentials(a.credentialsPath)
	if err != nil {
		return nil, nil, err
	}

	apiURL := creds.APIURL
	if apiURL == "" || cmd.Flags().Changed("api-url") {
		apiURL = a.apiURL
	}
	client, err := a.newClient(apiURL)
	if err != nil {
		return nil, nil, err
	}
	return creds, client, nil
}

// withCoordinator loads the user and their jogs, runs fn and closes the coordinator.
func (a *app) withCoordinator(cmd *cobra.Command, fn func(c *jogsync.Coordinator) error) error {
	creds, client, err := a.loggedInClient(cmd)
	if err != nil {
		return err
	}

	c := jogsync.NewCoordinator(client, creds.AccessToken, nil)
	defer c.Close()

	if _, err := c.LoadUser(cmd.Context()); err != nil {
		return fmt.Errorf("load jogs: %w", err)
	}
	log.Debugf("loaded %d jogs for user [%s]", len(c.Jogs()), c.User().ID)

	return fn(c)
}
