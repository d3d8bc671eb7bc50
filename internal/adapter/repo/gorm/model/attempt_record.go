package model

import "time"

const TableNameAttemptRecord = "attempt_records"

// AttemptRecord mapped from table <attempt_records>
type AttemptRecord struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	Handle    int64     `gorm:"column:handle;not null" json:"handle"`
	Path      string    `gorm:"column:path;not null" json:"path"`
	BaseName  string    `gorm:"column:base_name;not null" json:"base_name"`
	Category  string    `gorm:"column:category;not null" json:"category"`
	Distance  float64   `gorm:"column:distance;not null" json:"distance"`
	Tries     int32     `gorm:"column:tries;not null" json:"tries"`
	Outcome   string    `gorm:"column:outcome;not null" json:"outcome"`
	StartedAt time.Time `gorm:"column:started_at;not null" json:"started_at"`
	EndedAt   time.Time `gorm:"column:ended_at;not null" json:"ended_at"`
}

// TableName AttemptRecord's table name
func (*AttemptRecord) TableName() string {
	return TableNameAttemptRecord
}
