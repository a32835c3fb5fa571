package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/2beens/jogtracker/internal/jogs"
	"github.com/2beens/jogtracker/internal/jogsync"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var ErrJogNotFound = errors.New("jog not found")

func (a *app) jogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jogs",
		Short: "List, add, edit and delete your jogs",
	}
	cmd.AddCommand(a.jogsListCmd())
	cmd.AddCommand(a.jogsAddCmd())
	cmd.AddCommand(a.jogsEditCmd())
	cmd.AddCommand(a.jogsDeleteCmd())
	return cmd
}

func (a *app) jogsListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your jogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCoordinator(cmd, func(c *jogsync.Coordinator) error {
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), c.Jogs())
				}
				return printJogs(cmd.OutOrStdout(), c.Jogs())
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print jogs as JSON")
	return cmd
}

type jogFlags struct {
	date        string
	time        string
	distance    string
	interactive bool
}

func (f *jogFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "jog date, YYYY-MM-DD or 'Jan 2, 2006'")
	cmd.Flags().StringVar(&f.time, "time", "", "jog time in minutes")
	cmd.Flags().StringVar(&f.distance, "distance", "", "jog distance")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "fill in the jog in a form")
}

// apply overrides the form fields whose flags were set.
func (f *jogFlags) apply(cmd *cobra.Command, form *jogs.Form) {
	if cmd.Flags().Changed("date") {
		form.Date = f.date
	}
	if cmd.Flags().Changed("time") {
		form.Time = f.time
	}
	if cmd.Flags().Changed("distance") {
		form.Distance = f.distance
	}
}

func (a *app) jogsAddCmd() *cobra.Command {
	var flags jogFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a jog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form := jogs.Form{Date: time.Now().UTC().Format(jogs.DateLayout)}
			flags.apply(cmd, &form)
			if flags.interactive {
				if err := a.prompter.JogForm("New jog", &form); err != nil {
					return fmt.Errorf("jog form: %w", err)
				}
			}

			jog, _, err := jogs.ParseForm(form, jogs.Jog{})
			if err != nil {
				return err
			}

			return a.withCoordinator(cmd, func(c *jogsync.Coordinator) error {
				synced, err := c.Create(cmd.Context(), jog)
				if err != nil {
					return mutationError("add", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "jog added, you have %d jogs\n", len(synced))
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) jogsEditCmd() *cobra.Command {
	var flags jogFlags
	cmd := &cobra.Command{
		Use:   "edit <jog-id>",
		Short: "Edit a jog, fields not given keep their values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid jog id %q", args[0])
			}

			return a.withCoordinator(cmd, func(c *jogsync.Coordinator) error {
				existing, err := findJog(c.Jogs(), id)
				if err != nil {
					return err
				}

				form := jogs.FormFromJog(existing)
				flags.apply(cmd, &form)
				if flags.interactive {
					if err := a.prompter.JogForm(fmt.Sprintf("Edit jog %d", id), &form); err != nil {
						return fmt.Errorf("jog form: %w", err)
					}
				}

				jog, _, err := jogs.ParseForm(form, existing)
				if err != nil {
					return err
				}
				if _, err := c.Update(cmd.Context(), jog); err != nil {
					return mutationError("edit", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "jog %d updated\n", id)
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) jogsDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <jog-id>",
		Short: "Delete a jog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid jog id %q", args[0])
			}

			return a.withCoordinator(cmd, func(c *jogsync.Coordinator) error {
				existing, err := findJog(c.Jogs(), id)
				if err != nil {
					return err
				}

				if !yes {
					confirmed, err := a.prompter.Confirm(fmt.Sprintf("Delete jog %d (%s)?", id, jogs.FormFromJog(existing).Date))
					if err != nil {
						return err
					}
					if !confirmed {
						fmt.Fprintln(cmd.OutOrStdout(), "nothing deleted")
						return nil
					}
				}

				if _, err := c.Delete(cmd.Context(), existing); err != nil {
					return mutationError("delete", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "jog %d deleted\n", id)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func findJog(all []jogs.Jog, id int) (jogs.Jog, error) {
	for _, j := range all {
		if j.ID != nil && *j.ID == id {
			return j, nil
		}
	}
	return jogs.Jog{}, fmt.Errorf("%w: %d", ErrJogNotFound, id)
}

// mutationError keeps a failed resync from looking like a failed change.
func mutationError(op string, err error) error {
	if errors.Is(err, jogsync.ErrResyncFailed) {
		return fmt.Errorf("%s done, but refreshing the jogs failed: %w", op, err)
	}
	return fmt.Errorf("%s jog: %w", op, err)
}

func printJogs(w io.Writer, all []jogs.Jog) error {
	if len(all) == 0 {
		_, err := fmt.Fprintln(w, "no jogs yet")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTIME (min)\tDISTANCE")
	for _, j := range all {
		f := jogs.FormFromJog(j)
		id := "-"
		if j.ID != nil {
			id = strconv.Itoa(*j.ID)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id, orDash(f.Date), orDash(f.Time), orDash(f.Distance))
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
