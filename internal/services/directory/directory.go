// Package directory answers doctor recommendation questions from the
// database: a formatted overview of every doctor for the recommender
// prompt, and the distinct names used to seed the proper noun index.
package directory

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mosefak/medchat/internal/models"
	"github.com/mosefak/medchat/internal/services/query"
)

// NoDoctors is returned when the directory query finds no rows.
const NoDoctors = "No doctors available."

var digitsRE = regexp.MustCompile(`\b\d+\b`)

// Service represents the doctor directory interface
type Service interface {
	Overview(ctx context.Context, identity models.Identity) string
	ProperNouns(ctx context.Context, identity models.Identity) []string
}

// Runner executes one candidate query for an identity
type Runner interface {
	Execute(ctx context.Context, candidate string, identity models.Identity) query.Result
}

// Directory implements Service on top of the guarded query executor so
// directory reads share its caching and error handling.
type Directory struct {
	executor Runner
	dbName   string
	logger   *logrus.Logger
}

// NewDirectory creates a new doctor directory service
func NewDirectory(executor Runner, dbName string, logger *logrus.Logger) *Directory {
	return &Directory{
		executor: executor,
		dbName:   dbName,
		logger:   logger,
	}
}

// Overview returns one line per doctor with working days, clinic
// address and specializations, or a readable message when the data
// cannot be reached.
func (d *Directory) Overview(ctx context.Context, identity models.Identity) string {
	// Probe the Doctors table before running the aggregate query so a
	// missing or unreachable table yields a short message, not a page
	// of SQL errors.
	probe := fmt.Sprintf("SELECT TOP 1 1 FROM [%s].[dbo].[Doctors]", d.dbName)
	if res := d.executor.Execute(ctx, probe, identity); res.Err != nil {
		d.logger.WithField("details", res.Err.Details).Warn("Doctor directory unavailable")
		return "Unable to access doctor information: " + res.Err.Details
	}

	stmt := fmt.Sprintf(`SELECT
    'Dr. ' + u.FirstName + ' ' + u.LastName AS DoctorName,
    COALESCE(STRING_AGG(wt.DayOfWeek, ', '), 'Not available') AS WorkingDays,
    COALESCE(ca.Street, 'Unknown Street') AS Street,
    COALESCE(ca.City, 'Unknown City') AS City,
    COALESCE(ca.Country, 'Unknown Country') AS Country,
    COALESCE(STRING_AGG(CAST(sp.Name AS NVARCHAR(MAX)), ', '), 'No specialization') AS Specializations
FROM [%[1]s].[dbo].[Doctors] d
JOIN [%[1]s].[Security].[Users] u ON d.AppUserId = u.Id
LEFT JOIN [%[1]s].[dbo].[ClinicAddresses] ca ON d.Id = ca.DoctorId
LEFT JOIN [%[1]s].[dbo].[WorkingTimes] wt ON d.Id = wt.DoctorId
LEFT JOIN [%[1]s].[dbo].[Specializations] sp ON d.Id = sp.DoctorId
GROUP BY u.FirstName, u.LastName, ca.Street, ca.City, ca.Country`, d.dbName)

	res := d.executor.Execute(ctx, stmt, identity)
	if res.Err != nil {
		return "Error retrieving doctor information: " + res.Err.Details
	}
	if res.Notice != "" || len(res.Rows) == 0 {
		return NoDoctors
	}

	return formatDoctors(res.Rows)
}

// formatDoctors renders directory rows into readable lines
func formatDoctors(rows [][]any) string {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%v is working on %v at %v, %v, %v, specializes in %v",
			row[0], row[1], row[2], row[3], row[4], row[5]))
	}
	if len(lines) == 0 {
		return NoDoctors
	}
	return strings.Join(lines, "\n")
}

// ProperNouns collects the distinct names, places and labels stored in
// the database. The result seeds the retrieval index used to correct
// approximate spellings before SQL generation.
func (d *Directory) ProperNouns(ctx context.Context, identity models.Identity) []string {
	statements := []string{
		"SELECT Name FROM Specializations",
		"SELECT Street + ', ' + City + ', ' + Country FROM ClinicAddresses",
		"SELECT FirstName + ' ' + LastName FROM Security.Users WHERE Id IN (SELECT AppUserId FROM Doctors)",
		"SELECT City FROM ClinicAddresses",
		"SELECT AppointmentStatus FROM Appointments",
		"SELECT DayOfWeek FROM WorkingTimes",
		"SELECT Country FROM ClinicAddresses",
	}

	seen := make(map[string]bool)
	var values []string
	for _, stmt := range statements {
		res := d.executor.Execute(ctx, stmt, identity)
		if res.Err != nil {
			d.logger.WithFields(logrus.Fields{
				"kind":    string(res.Err.Kind),
				"details": res.Err.Details,
			}).Warn("Proper noun query failed")
			continue
		}
		for _, row := range res.Rows {
			for _, col := range row {
				value := strings.TrimSpace(digitsRE.ReplaceAllString(fmt.Sprintf("%v", col), ""))
				if value != "" && !seen[value] {
					seen[value] = true
					values = append(values, value)
				}
			}
		}
	}
	return values
}
