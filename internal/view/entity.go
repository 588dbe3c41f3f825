// Package view hosts the scheduling engine: it loads views from storage,
// serialises access to each one, persists mutations and publishes the
// resulting events.
package view

import (
	"time"

	"github.com/kazz187/ganttguild/internal/schedule"
)

// View is one Gantt chart: its tasks, the dependencies between them and the
// resources booked on them.
type View struct {
	ID           string                `yaml:"id" json:"id" toml:"id"`
	Name         string                `yaml:"name" json:"name" toml:"name"`
	Tasks        []schedule.Task       `yaml:"tasks" json:"tasks" toml:"tasks"`
	Dependencies []schedule.Dependency `yaml:"dependencies" json:"dependencies" toml:"dependencies"`
	Resources    []schedule.Resource   `yaml:"resources" json:"resources" toml:"resources"`
	Assignments  []schedule.Assignment `yaml:"assignments" json:"assignments" toml:"assignments"`
	CreatedAt    time.Time             `yaml:"created_at" json:"createdAt" toml:"created_at"`
	UpdatedAt    time.Time             `yaml:"updated_at" json:"updatedAt" toml:"updated_at"`
}

func (v *View) Data() schedule.ViewData {
	return schedule.ViewData{
		Tasks:        v.Tasks,
		Dependencies: v.Dependencies,
		Resources:    v.Resources,
		Assignments:  v.Assignments,
	}
}

func (v *View) SetData(d schedule.ViewData) {
	v.Tasks = d.Tasks
	v.Dependencies = d.Dependencies
	v.Resources = d.Resources
	v.Assignments = d.Assignments
}

// Summary drops the records, for listings.
func (v *View) Summary() *View {
	return &View{ID: v.ID, Name: v.Name, CreatedAt: v.CreatedAt, UpdatedAt: v.UpdatedAt}
}
