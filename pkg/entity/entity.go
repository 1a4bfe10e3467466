// Package entity holds the resource kinds shared by the practice-management
// read services, plus the resource-type constants used in cache keys.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Resource type names. These appear verbatim in cache keys shared with the
// other services, so they must not change.
const (
	ResourceOrganization = "organization"
	ResourceClinic       = "clinic"
	ResourceAssignment   = "assignment"
)

// NewID returns a fresh entity id.
func NewID() string {
	return uuid.NewString()
}

// Organization is a tenant-level practice group.
type Organization struct {
	ID        string    `json:"id" msgpack:"id"`
	TenantID  string    `json:"tenantId" msgpack:"tenant_id"`
	Name      string    `json:"name" msgpack:"name"`
	Email     string    `json:"email,omitempty" msgpack:"email"`
	Phone     string    `json:"phone,omitempty" msgpack:"phone"`
	Active    bool      `json:"active" msgpack:"active"`
	CreatedAt time.Time `json:"createdAt" msgpack:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" msgpack:"updated_at"`
}

// RecordID implements store.Record.
func (o Organization) RecordID() string { return o.ID }

// RecordSortValue implements store.Record.
func (o Organization) RecordSortValue() int64 { return o.CreatedAt.UnixMilli() }

// Clinic is a practice location belonging to an organization.
type Clinic struct {
	ID             string    `json:"id" msgpack:"id"`
	OrganizationID string    `json:"organizationId" msgpack:"organization_id"`
	TenantID       string    `json:"tenantId" msgpack:"tenant_id"`
	Name           string    `json:"name" msgpack:"name"`
	Address        string    `json:"address,omitempty" msgpack:"address"`
	City           string    `json:"city,omitempty" msgpack:"city"`
	Active         bool      `json:"active" msgpack:"active"`
	CreatedAt      time.Time `json:"createdAt" msgpack:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" msgpack:"updated_at"`
}

// RecordID implements store.Record.
func (c Clinic) RecordID() string { return c.ID }

// RecordSortValue implements store.Record.
func (c Clinic) RecordSortValue() int64 { return c.CreatedAt.UnixMilli() }

// Assignment links a practitioner to a clinic. It is a join-like resource:
// invalidation on write must reach both sides.
type Assignment struct {
	ID             string    `json:"id" msgpack:"id"`
	ClinicID       string    `json:"clinicId" msgpack:"clinic_id"`
	PractitionerID string    `json:"practitionerId" msgpack:"practitioner_id"`
	TenantID       string    `json:"tenantId" msgpack:"tenant_id"`
	Role           string    `json:"role" msgpack:"role"`
	CreatedAt      time.Time `json:"createdAt" msgpack:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" msgpack:"updated_at"`
}

// RecordID implements store.Record.
func (a Assignment) RecordID() string { return a.ID }

// RecordSortValue implements store.Record.
func (a Assignment) RecordSortValue() int64 { return a.CreatedAt.UnixMilli() }
