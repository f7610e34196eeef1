package user

import "time"

// User is the directory view of an employee. The supervisor is referenced by
// id only; resolving it is the Directory's job.
type User struct {
	ID           string
	SupervisorID *string
	FullName     string
	Email        string
	EmployeeCode *string
	Position     *string
	ProjectSite  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasSupervisor reports whether the user can route a timesheet for approval.
func (u *User) HasSupervisor() bool {
	return u.SupervisorID != nil && *u.SupervisorID != ""
}

// IsSupervisedBy checks if supervisorID is the user's direct supervisor
func (u *User) IsSupervisedBy(supervisorID string) bool {
	return u.HasSupervisor() && *u.SupervisorID == supervisorID
}
