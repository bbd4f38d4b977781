package jobs

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"
)

// Summary is the write-once structured result of a deletion job. The JSON
// field names are part of the status read contract and are persisted verbatim
// on the job row.
type Summary struct {
	DeletedTables map[string]int64 `json:"deletedTables"`
	TotalDeleted  int64            `json:"totalDeleted"`
	Errors        []string         `json:"errors"`
}

func NewSummary() *Summary {
	return &Summary{
		DeletedTables: map[string]int64{},
		Errors:        []string{},
	}
}

// Record registers count deleted rows under resource and bumps the total.
// Zero counts are recorded too: a re-run against an already-wiped target
// reports every resource explicitly at 0.
func (s *Summary) Record(resource string, count int64) {
	s.DeletedTables[resource] = count
	s.TotalDeleted += count
}

func (s *Summary) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

func (s *Summary) AddErrorf(format string, args ...interface{}) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// Failed reports whether the job must terminalize as failed.
func (s *Summary) Failed() bool {
	return len(s.Errors) > 0
}

// ErrorMessage joins all recorded errors for the job's error_message column.
func (s *Summary) ErrorMessage() string {
	if len(s.Errors) == 0 {
		return ""
	}
	return strings.Join(s.Errors, "; ")
}

func (s *Summary) JSON() datatypes.JSON {
	b, err := json.Marshal(s)
	if err != nil {
		return datatypes.JSON([]byte(`{}`))
	}
	return datatypes.JSON(b)
}
