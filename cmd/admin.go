package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"jobboard/domain"
)

var (
	userEmail           string
	userStaff           bool
	categoryName        string
	categoryDescription string
	reviewStatus        string
)

// staffActor is the identity admin commands act as.
var staffActor = domain.Actor{IsAuthenticated: true, IsStaff: true}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user and print its API token",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appConfig, false)
		if err != nil {
			return err
		}
		defer a.Close()

		u, token, err := a.services.Users.Create(cmd.Context(), userEmail, userStaff)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created user %d (%s, staff=%t)\n", u.ID, u.Email, u.IsStaff)
		fmt.Fprintf(out, "Token: %s\n", token)
		return nil
	},
}

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage job categories",
}

var categoryAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a category",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appConfig, false)
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.services.Categories.Create(cmd.Context(), categoryName, categoryDescription)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created category %d (%s)\n", c.ID, c.Name)
		return nil
	},
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(appConfig, false)
		if err != nil {
			return err
		}
		defer a.Close()

		categories, err := a.services.Categories.List(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
		for _, c := range categories {
			fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Name, c.Description)
		}
		return w.Flush()
	},
}

var categoryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a category; its jobs keep no category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := newApp(appConfig, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.services.Categories.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %d\n", id)
		return nil
	},
}

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Change job status and inspect applications",
}

var jobPublishCmd = &cobra.Command{
	Use:   "publish <id>",
	Short: "Publish a draft job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := newApp(appConfig, false)
		if err != nil {
			return err
		}
		defer a.Close()

		ok, err := a.services.Jobs.Publish(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Job %d is missing or not a draft; nothing changed\n", id)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Published job %d\n", id)
		return nil
	},
}

var jobCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := newApp(appConfig, false)
		if err != nil {
			return err
		}
		defer a.Close()

		ok, err := a.services.Jobs.Close(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Job %d does not exist\n", id)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Closed job %d\n", id)
		return nil
	},
}

var jobStatsCmd = &cobra.Command{
	Use:   "stats <id>",
	Short: "Count a job's applications by status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := newApp(appConfig, false)
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.services.Jobs.Statistics(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "total=%d pending=%d accepted=%d rejected=%d\n",
			stats.Total, stats.Pending, stats.Accepted, stats.Rejected)
		return nil
	},
}

var applicationCmd = &cobra.Command{
	Use:   "application",
	Short: "Review job applications",
}

var applicationReviewCmd = &cobra.Command{
	Use:   "review <id>...",
	Short: "Mark applications as reviewed, accepted or rejected",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := domain.ParseReviewStatus(reviewStatus); err != nil {
			return err
		}
		ids := make([]uint, 0, len(args))
		for _, arg := range args {
			id, err := parseID(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		a, err := newApp(appConfig, false)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		var failed int
		for _, id := range ids {
			if _, err := a.services.Applications.Review(cmd.Context(), staffActor, id, reviewStatus); err != nil {
				fmt.Fprintf(out, "Application %d: %v\n", id, err)
				failed++
				continue
			}
			fmt.Fprintf(out, "Application %d marked as %s\n", id, reviewStatus)
		}
		fmt.Fprintf(out, "%d of %d applications updated\n", len(ids)-failed, len(ids))
		if failed > 0 {
			return errors.Newf("%d applications were not updated", failed)
		}
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "email address")
	userCreateCmd.Flags().BoolVar(&userStaff, "staff", false, "grant staff rights")
	_ = userCreateCmd.MarkFlagRequired("email")
	userCmd.AddCommand(userCreateCmd)

	categoryAddCmd.Flags().StringVar(&categoryName, "name", "", "category name")
	categoryAddCmd.Flags().StringVar(&categoryDescription, "description", "", "category description")
	_ = categoryAddCmd.MarkFlagRequired("name")
	categoryCmd.AddCommand(categoryAddCmd, categoryListCmd, categoryDeleteCmd)

	jobCmd.AddCommand(jobPublishCmd, jobCloseCmd, jobStatsCmd)

	applicationReviewCmd.Flags().StringVar(&reviewStatus, "status", "", "reviewed, accepted or rejected")
	_ = applicationReviewCmd.MarkFlagRequired("status")
	applicationCmd.AddCommand(applicationReviewCmd)
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 0)
	if err != nil || id == 0 {
		return 0, errors.Newf("invalid id %q", s)
	}
	return uint(id), nil
}
