package model

import (
	"time"
)

type Question struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	QuestionText string    `json:"question_text" gorm:"size:200;not null"`
	PubDate      time.Time `json:"pub_date" gorm:"not null;index"`
	Published    bool      `json:"published" gorm:"not null;default:false"`
	Choices      []Choice  `json:"choices,omitempty" gorm:"foreignKey:QuestionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WasPublishedRecently reports whether the question went live within the
// last day.
func (q *Question) WasPublishedRecently(now time.Time) bool {
	return !q.PubDate.After(now) && q.PubDate.After(now.Add(-24*time.Hour))
}

// IsVisible applies the end-user visibility rule.
func (q *Question) IsVisible(now time.Time, requireFlag bool) bool {
	if q.PubDate.After(now) {
		return false
	}
	return !requireFlag || q.Published
}
