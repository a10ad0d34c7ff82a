package app

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"carecompanion/internal/api"
)

// CSV report writers for the admin surfaces. Column sets match the web
// dashboard's exports so downstream tooling keeps working.

func AuditLogFileName(now time.Time) string {
	return "audit-logs-" + DateKey(now) + ".csv"
}

func UserReportFileName(now time.Time) string {
	return "user-report-" + DateKey(now) + ".csv"
}

func WriteAuditLogCSV(w io.Writer, logs []api.AuditLog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ID", "User", "Action", "Violation Type", "Timestamp", "Severity", "Details"}); err != nil {
		return err
	}
	for _, log := range logs {
		row := []string{
			log.ID,
			log.UserName,
			log.Action,
			log.ViolationType,
			log.Timestamp.Format(time.RFC3339),
			log.Severity,
			log.Details,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteUserReportCSV(w io.Writer, users []api.AdminUser) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ID", "Name", "Email", "Role", "Status", "Violations", "Last Activity", "Created"}); err != nil {
		return err
	}
	for _, user := range users {
		row := []string{
			user.ID,
			user.Name,
			user.Email,
			user.Role,
			user.Status,
			strconv.Itoa(user.ViolationCount),
			user.LastActivity.Format(time.RFC3339),
			user.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
