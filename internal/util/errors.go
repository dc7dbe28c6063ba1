package util

import "errors"

var (
	ErrVideoNotFound     = errors.New("video not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrMessageNotFound   = errors.New("message not found")
	ErrEmptyMessage      = errors.New("message is empty")
	ErrEmptyText         = errors.New("text is required")
	ErrQuestionNotActive = errors.New("no question is active")
	ErrUnknownOption     = errors.New("option key not present in question")
	ErrMissingCredential = errors.New("upstream API key is missing")
	ErrNoRecognizer      = errors.New("speech recognition is not available")
	ErrInvalidDataset    = errors.New("invalid training video dataset")
)
