package testutil

import (
	"fmt"
	"time"

	"github.com/adrian-moloca/clinicache/pkg/entity"
)

// FixtureBase is the creation time of the first fixture row. Later rows
// are spaced one minute apart, so fixture n-1 is always the newest.
var FixtureBase = time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

// Organizations builds n deterministic organization fixtures. IDs are
// "org-000" through "org-<n-1>", newest last.
func Organizations(n int) []entity.Organization {
	out := make([]entity.Organization, n)
	for i := range out {
		created := FixtureBase.Add(time.Duration(i) * time.Minute)
		out[i] = entity.Organization{
			ID:        fmt.Sprintf("org-%03d", i),
			TenantID:  "tenant-1",
			Name:      fmt.Sprintf("Practice Group %d", i),
			Email:     fmt.Sprintf("contact%d@example.org", i),
			Active:    true,
			CreatedAt: created,
			UpdatedAt: created,
		}
	}
	return out
}

// Clinics builds n deterministic clinic fixtures belonging to orgID.
func Clinics(n int, orgID string) []entity.Clinic {
	out := make([]entity.Clinic, n)
	for i := range out {
		created := FixtureBase.Add(time.Duration(i) * time.Minute)
		out[i] = entity.Clinic{
			ID:             fmt.Sprintf("clinic-%03d", i),
			OrganizationID: orgID,
			TenantID:       "tenant-1",
			Name:           fmt.Sprintf("Clinic %d", i),
			City:           "Berlin",
			Active:         true,
			CreatedAt:      created,
			UpdatedAt:      created,
		}
	}
	return out
}

// Assignments builds n deterministic assignment fixtures for clinicID.
func Assignments(n int, clinicID string) []entity.Assignment {
	out := make([]entity.Assignment, n)
	for i := range out {
		created := FixtureBase.Add(time.Duration(i) * time.Minute)
		out[i] = entity.Assignment{
			ID:             fmt.Sprintf("assign-%03d", i),
			ClinicID:       clinicID,
			PractitionerID: fmt.Sprintf("practitioner-%03d", i),
			TenantID:       "tenant-1",
			Role:           "physician",
			CreatedAt:      created,
			UpdatedAt:      created,
		}
	}
	return out
}
