// Package runhistory persists a record of each run_daily and
// update/update_resource invocation, supplementing the spec's core
// data model with the audit trail a real desktop control plane needs
// for its history view.
package runhistory

import "gorm.io/gorm"

// RunRecord is one run_daily invocation: when it started/ended, the
// task names submitted (as a JSON array), and how it ended.
type RunRecord struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at"`
	TasksJSON string `json:"tasks_json"`
	Outcome   string `gorm:"index" json:"outcome"` // completed or error; a run ended by stop_core is recorded as completed
	Error     string `json:"error,omitempty"`

	CreatedAt string         `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName names the run_records table.
func (RunRecord) TableName() string {
	return "run_records"
}

// UpdateRecord is one update/update_resource invocation outcome.
type UpdateRecord struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Kind      string `json:"kind"` // client, resource
	StartedAt string `json:"started_at"`
	Result    string `gorm:"index" json:"result"` // AlreadyUpdated, ClientSuccess, ResourceSuccess, error
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`

	CreatedAt string         `json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName names the update_records table.
func (UpdateRecord) TableName() string {
	return "update_records"
}
