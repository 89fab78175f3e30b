package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/clearbrook/screend/internal/client"
	"github.com/clearbrook/screend/internal/events"
)

var studentCmd = &cobra.Command{
	Use:   "student",
	Short: "Manage student records",
}

var studentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a student",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		first, _ := cmd.Flags().GetString("first")
		last, _ := cmd.Flags().GetString("last")
		birth, _ := cmd.Flags().GetString("birth")
		grade, _ := cmd.Flags().GetString("grade")

		req := &client.CreateStudentRequest{FirstName: first, LastName: last, GradeLevel: grade}
		if birth != "" {
			d, err := time.Parse("2006-01-02", birth)
			if err != nil {
				return fmt.Errorf("--birth must be YYYY-MM-DD: %w", err)
			}
			req.BirthDate = d
		}

		student, err := api.CreateStudent(cmd.Context(), req)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(student)
			return nil
		}
		fmt.Printf("student %s created\n", student.ID)
		return nil
	},
}

var studentShowCmd = &cobra.Command{
	Use:   "show <student-id>",
	Short: "Show a student",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		student, err := api.GetStudent(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printJSON(student)
		return nil
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage screening sessions",
}

// parseUnitSpec parses "Name:domain:count" (domain optional).
func parseUnitSpec(spec string) (client.CreateUnitInput, error) {
	parts := strings.Split(spec, ":")
	unit := client.CreateUnitInput{Name: parts[0]}
	switch len(parts) {
	case 1:
	case 2:
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			return unit, fmt.Errorf("unit %q: item count %q is not a number", spec, parts[1])
		}
		unit.ItemCount = n
	case 3:
		unit.Domain = parts[1]
		n, err := strconv.Atoi(parts[2])
		if err != nil {
			return unit, fmt.Errorf("unit %q: item count %q is not a number", spec, parts[2])
		}
		unit.ItemCount = n
	default:
		return unit, fmt.Errorf("unit %q: want name[:domain]:count", spec)
	}
	if unit.Name == "" {
		return unit, fmt.Errorf("unit %q: name is required", spec)
	}
	return unit, nil
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create <student-id>",
	Short: "Create a session with its unit catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unitSpecs, _ := cmd.Flags().GetStringArray("unit")
		when, _ := cmd.Flags().GetString("at")
		location, _ := cmd.Flags().GetString("location")

		req := &client.CreateSessionRequest{StudentID: args[0]}
		for _, spec := range unitSpecs {
			unit, err := parseUnitSpec(spec)
			if err != nil {
				return err
			}
			req.Units = append(req.Units, unit)
		}
		if when != "" {
			at, err := time.Parse(time.RFC3339, when)
			if err != nil {
				return fmt.Errorf("--at must be RFC3339: %w", err)
			}
			req.Appointment = &client.AppointmentInput{ScheduledAt: at, Location: location}
		}

		sess, err := api.CreateSession(cmd.Context(), req)
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(sess)
			return nil
		}
		fmt.Printf("session %s created\n", sess.ID)
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Show a session with per-unit scoring",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		detail, err := api.GetSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(detail)
			return nil
		}
		printSessionDetail(detail)
		return nil
	},
}

var sessionBeginCmd = &cobra.Command{
	Use:   "begin <session-id>",
	Short: "Start a scheduled session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := api.BeginSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(sess)
			return nil
		}
		printSessionTable(sess)
		return nil
	},
}

var sessionCompleteCmd = &cobra.Command{
	Use:   "complete <session-id>",
	Short: "Complete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := api.CompleteSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(sess)
			return nil
		}
		printSessionTable(sess)
		return nil
	},
}

var sessionNavigateCmd = &cobra.Command{
	Use:   "navigate <session-id> <unit-id>",
	Short: "Make a unit the session's current unit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := api.Navigate(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(sess)
			return nil
		}
		fmt.Printf("session %s now on unit %s\n", sess.ID, sess.CurrentUnitID)
		return nil
	},
}

var sessionRespondCmd = &cobra.Command{
	Use:   "respond <session-id>",
	Short: "Record one item response",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		unitID, _ := cmd.Flags().GetString("unit")
		item, _ := cmd.Flags().GetInt("item")
		score, _ := cmd.Flags().GetString("score")

		resp, err := api.RecordResponse(cmd.Context(), args[0], &client.RecordResponseRequest{
			UnitID:    unitID,
			ItemIndex: item,
			Score:     score,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(resp)
			return nil
		}
		fmt.Printf("response %d recorded (%s item %d: %s)\n", resp.ID, resp.UnitID, resp.ItemIndex, resp.Score)
		return nil
	},
}

var sessionTimerCmd = &cobra.Command{
	Use:   "timer <session-id>",
	Short: "Broadcast a timer update to session participants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seconds, _ := cmd.Flags().GetInt("seconds")
		running, _ := cmd.Flags().GetBool("running")

		patch := events.EphemeralPatch{
			TimerSeconds:   &seconds,
			IsTimerRunning: &running,
		}
		if err := api.PublishEphemeral(cmd.Context(), args[0], patch); err != nil {
			return err
		}
		fmt.Println("timer update sent")
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.Health(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	},
}

func init() {
	studentCreateCmd.Flags().String("first", "", "first name")
	studentCreateCmd.Flags().String("last", "", "last name")
	studentCreateCmd.Flags().String("birth", "", "birth date (YYYY-MM-DD)")
	studentCreateCmd.Flags().String("grade", "", "grade level")
	_ = studentCreateCmd.MarkFlagRequired("first")
	_ = studentCreateCmd.MarkFlagRequired("last")
	studentCmd.AddCommand(studentCreateCmd)
	studentCmd.AddCommand(studentShowCmd)

	sessionCreateCmd.Flags().StringArray("unit", nil, "unit spec name[:domain]:count (repeatable)")
	sessionCreateCmd.Flags().String("at", "", "appointment time (RFC3339)")
	sessionCreateCmd.Flags().String("location", "", "appointment location")

	sessionRespondCmd.Flags().String("unit", "", "unit id")
	sessionRespondCmd.Flags().Int("item", 0, "item index")
	sessionRespondCmd.Flags().String("score", "", "score code (correct, self_correct, incorrect, no_response)")
	_ = sessionRespondCmd.MarkFlagRequired("unit")
	_ = sessionRespondCmd.MarkFlagRequired("score")

	sessionTimerCmd.Flags().Int("seconds", 0, "timer seconds")
	sessionTimerCmd.Flags().Bool("running", false, "timer running")

	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionBeginCmd)
	sessionCmd.AddCommand(sessionCompleteCmd)
	sessionCmd.AddCommand(sessionNavigateCmd)
	sessionCmd.AddCommand(sessionRespondCmd)
	sessionCmd.AddCommand(sessionTimerCmd)
}
