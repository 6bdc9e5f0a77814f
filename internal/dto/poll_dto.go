package dto

import (
	"time"

	"github.com/lshigami/polls/internal/component"
)

// ChoiceDTO is a choice as shown on detail and results pages.
type ChoiceDTO struct {
	ID         uint   `json:"id"`
	ChoiceText string `json:"choice_text"`
	Votes      int    `json:"votes"`
}

// QuestionDTO is a question with its choices in display order.
type QuestionDTO struct {
	ID                   uint        `json:"id"`
	QuestionText         string      `json:"question_text"`
	PubDate              time.Time   `json:"pub_date"`
	Published            bool        `json:"published"`
	WasPublishedRecently bool        `json:"was_published_recently"`
	Choices              []ChoiceDTO `json:"choices"`
}

// TotalVotes sums the votes of every choice.
func (q QuestionDTO) TotalVotes() int {
	total := 0
	for _, c := range q.Choices {
		total += c.Votes
	}
	return total
}

// PageDTO describes one page of a paginated listing.
type PageDTO struct {
	Number         int   `json:"number"`
	NumPages       int   `json:"num_pages"`
	Total          int64 `json:"total"`
	HasPrevious    bool  `json:"has_previous"`
	HasNext        bool  `json:"has_next"`
	PreviousNumber int   `json:"previous_number,omitempty"`
	NextNumber     int   `json:"next_number,omitempty"`
}

// QuestionListDTO backs the poll index page.
type QuestionListDTO struct {
	Questions []QuestionDTO    `json:"questions"`
	Stats     []component.Stat `json:"stats"`
	Page      PageDTO          `json:"page"`
}
