package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/clearbrook/screend/internal/client"
	"github.com/clearbrook/screend/internal/model"
	"github.com/clearbrook/screend/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printCapabilityTable(caps []*model.Capability) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSUBJECT\tISSUED\tEXPIRES")
	now := time.Now()
	for _, c := range caps {
		expires := c.ExpiresAt.Format("2006-01-02 15:04")
		if c.Expired(now) {
			expires = ui.RenderMuted(expires + " (expired)")
		} else if c.ExpiresAt.Sub(now) < time.Hour {
			expires = ui.RenderWarn(expires)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Kind, c.SubjectID, c.IssuedAt.Format("2006-01-02 15:04"), expires)
	}
	w.Flush()
}

func printSessionTable(s *model.Session) {
	status := string(s.Status)
	switch s.Status {
	case model.StatusInProgress:
		status = ui.RenderAccent(status)
	case model.StatusCompleted:
		status = ui.RenderOK(status)
	}
	fmt.Printf("ID:           %s\n", s.ID)
	fmt.Printf("Student:      %s\n", s.StudentID)
	fmt.Printf("Status:       %s\n", status)
	if s.CurrentUnitID != "" {
		fmt.Printf("Current Unit: %s\n", s.CurrentUnitID)
	}
	if s.StartedAt != nil {
		fmt.Printf("Started At:   %s\n", s.StartedAt.Format("2006-01-02 15:04:05"))
	}
	if s.EndedAt != nil {
		fmt.Printf("Ended At:     %s\n", s.EndedAt.Format("2006-01-02 15:04:05"))
	}
}

func printSessionDetail(d *client.SessionDetail) {
	printSessionTable(d.Session)
	if len(d.Units) == 0 {
		return
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "UNIT\tDOMAIN\tRESPONSES\tCORRECT\tRESULT")
	for _, u := range d.Units {
		rollup, ok := d.Scores[u.ID]
		result := ui.RenderMuted("skipped")
		responses, correct := "0", "-"
		if ok && !rollup.Skipped {
			responses = fmt.Sprintf("%d", rollup.Total)
			correct = fmt.Sprintf("%.0f%%", rollup.PercentCorrect)
			if rollup.Flagged {
				result = ui.RenderWarn("needs instruction")
			} else {
				result = ui.RenderOK("ok")
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.Name, u.Domain, responses, correct, result)
	}
	w.Flush()
}
