package memory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
)

type seedUser struct {
	ID           string  `json:"id"`
	SupervisorID *string `json:"supervisor_id"`
	FullName     string  `json:"full_name"`
	Email        string  `json:"email"`
	EmployeeCode *string `json:"employee_code"`
	Position     *string `json:"position"`
	ProjectSite  *string `json:"project_site"`
}

// LoadSeedFile reads directory users from a JSON array.
func LoadSeedFile(path string) ([]user.User, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var rows []seedUser
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	users := make([]user.User, 0, len(rows))
	for i, row := range rows {
		if row.ID == "" {
			return nil, fmt.Errorf("seed user %d has no id", i)
		}
		users = append(users, user.User{
			ID:           row.ID,
			SupervisorID: row.SupervisorID,
			FullName:     row.FullName,
			Email:        row.Email,
			EmployeeCode: row.EmployeeCode,
			Position:     row.Position,
			ProjectSite:  row.ProjectSite,
		})
	}
	return users, nil
}
