package service

import "errors"

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrChoiceNotFound   = errors.New("choice not found")
	ErrNotPublished     = errors.New("question is not published yet")
	ErrInvalidChoice    = errors.New("you didn't select a choice")
	ErrPageNotFound     = errors.New("invalid page")

	ErrInvalidCredentials     = errors.New("the username and/or password you specified are not correct")
	ErrUserExists             = errors.New("a user with that username or email already exists")
	ErrInvalidVerificationKey = errors.New("this email confirmation link expired or is invalid")
)
