package domain

import "time"

// JobCategory groups jobs. Names are not unique.
type JobCategory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;index" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func (JobCategory) TableName() string { return "job_categories" }

func (c JobCategory) String() string { return c.Name }
