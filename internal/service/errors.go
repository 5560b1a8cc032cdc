package service

import "errors"

// Sentinel errors returned by the post services. The HTTP layer maps these
// to status codes.
var (
	ErrPostNotFound      = errors.New("post not found")
	ErrPropertyNotFound  = errors.New("property not found")
	ErrUnknownChannel    = errors.New("unknown channel")
	ErrNoTargetChannels  = errors.New("post has no target channels")
	ErrAlreadyInProgress = errors.New("publish already in progress")
	ErrPostArchived      = errors.New("post is archived")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrScheduleInPast    = errors.New("scheduled time is in the past")
	ErrChannelNotTarget  = errors.New("channel is not targeted by this post")
)
