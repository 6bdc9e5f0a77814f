package dto

import "time"

// ChoiceCreateDTO is an inline choice in admin question creation.
type ChoiceCreateDTO struct {
	ChoiceText string `json:"choice_text" binding:"required,max=200"`
	Votes      int    `json:"votes" binding:"min=0"`
}

// QuestionCreateDTO is for admin to create a question with its choices.
// PubDate defaults to now.
type QuestionCreateDTO struct {
	QuestionText string            `json:"question_text" binding:"required,max=200"`
	PubDate      *time.Time        `json:"pub_date"`
	Published    bool              `json:"published"`
	Choices      []ChoiceCreateDTO `json:"choices" binding:"omitempty,dive"`
}

// QuestionUpdateDTO changes only the fields that are present.
type QuestionUpdateDTO struct {
	QuestionText *string    `json:"question_text" binding:"omitempty,min=1,max=200"`
	PubDate      *time.Time `json:"pub_date"`
	Published    *bool      `json:"published"`
}

// QuestionQueryDTO carries the admin list filters.
type QuestionQueryDTO struct {
	Search          string     `form:"search"`
	PublishedAfter  *time.Time `form:"published_after" time_format:"2006-01-02T15:04:05Z07:00"`
	PublishedBefore *time.Time `form:"published_before" time_format:"2006-01-02T15:04:05Z07:00"`
	Page            int        `form:"page" binding:"omitempty,min=1"`
}

// AdminQuestionListDTO is one page of the admin question list.
type AdminQuestionListDTO struct {
	Items    []QuestionDTO `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
