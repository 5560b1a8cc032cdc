package models

import (
	"time"

	"gorm.io/gorm"
)

// Status is the aggregate lifecycle state of a post. Apart from draft and
// archived, which are set explicitly, it is derived from the per-channel
// states (see DeriveStatus).
type Status string

const (
	StatusDraft              Status = "draft"
	StatusScheduled          Status = "scheduled"
	StatusPublishing         Status = "publishing"
	StatusPartiallyPublished Status = "partially_published"
	StatusPublished          Status = "published"
	StatusFailed             Status = "failed"
	StatusArchived           Status = "archived"
)

// ChannelStateKind is the state of a single channel attempt chain.
type ChannelStateKind string

const (
	// ChannelPending means the channel has not been attempted yet.
	ChannelPending ChannelStateKind = "pending"
	// ChannelPublishing means an attempt is in flight; a crash mid-call
	// leaves the channel here with the attempt already counted.
	ChannelPublishing ChannelStateKind = "publishing"
	// ChannelPendingRetry means the last attempt failed transiently and the
	// channel is waiting out its backoff delay.
	ChannelPendingRetry ChannelStateKind = "pending_retry"
	ChannelSucceeded    ChannelStateKind = "succeeded"
	ChannelFailed       ChannelStateKind = "failed"
)

// FailureContentGeneration marks channels that failed before their publisher
// was ever invoked because the post body could not be generated.
const FailureContentGeneration = "content_generation"

// ChannelState is the per-channel record inside a post's ChannelStatus map.
// It is the unit of partial-failure tracking: the post as a whole is not
// published or failed, each channel is.
type ChannelState struct {
	State          ChannelStateKind `json:"state"`
	Attempts       int              `json:"attempts"`
	LastError      string           `json:"last_error,omitempty"`
	FailureReason  string           `json:"failure_reason,omitempty"`
	ExternalPostID string           `json:"external_post_id,omitempty"`
	PublishedAt    *time.Time       `json:"published_at,omitempty"`
	LastAttemptAt  *time.Time       `json:"last_attempt_at,omitempty"`
}

// ContentVersion is one generated body for a language. The newest version is
// the active one; older versions are kept for audit.
type ContentVersion struct {
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Post is the central entity: one unit of marketing content tied to a
// property, published to one or more channels.
type Post struct {
	ID                string           `gorm:"primaryKey;size:36" json:"id"`
	PropertyID        string           `gorm:"not null;index;size:36" json:"property_id"`
	Title             string           `gorm:"not null;size:500" json:"title"`
	ContentByLanguage ContentMap       `gorm:"type:jsonb" json:"content_by_language"`
	MediaKeys         StringArray      `gorm:"type:text[]" json:"media_keys"`
	TargetChannels    StringArray      `gorm:"type:text[]" json:"target_channels"`
	ChannelStatus     ChannelStatusMap `gorm:"type:jsonb" json:"channel_status"`
	Status            Status           `gorm:"size:50;default:'draft';index" json:"status"`
	ScheduledAt       *time.Time       `gorm:"index" json:"scheduled_at"`
	PublishedAt       *time.Time       `json:"published_at"`
	CreatedAt         time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt   `gorm:"index" json:"deleted_at"`
}

// SyncChannelStatus makes the ChannelStatus keys exactly match
// TargetChannels: missing channels get a pending entry, orphans are dropped.
func (p *Post) SyncChannelStatus() {
	if p.ChannelStatus == nil {
		p.ChannelStatus = ChannelStatusMap{}
	}
	for _, ch := range p.TargetChannels {
		if _, ok := p.ChannelStatus[ch]; !ok {
			p.ChannelStatus[ch] = ChannelState{State: ChannelPending}
		}
	}
	for ch := range p.ChannelStatus {
		if !p.TargetChannels.Contains(ch) {
			delete(p.ChannelStatus, ch)
		}
	}
}

// ContentFor returns the active (newest) body for a language.
func (p *Post) ContentFor(language string) (string, bool) {
	versions := p.ContentByLanguage[language]
	if len(versions) == 0 {
		return "", false
	}
	return versions[len(versions)-1].Text, true
}

// AddContent appends a new version for a language. Existing versions are
// never overwritten.
func (p *Post) AddContent(language, text string, now time.Time) {
	if p.ContentByLanguage == nil {
		p.ContentByLanguage = ContentMap{}
	}
	p.ContentByLanguage[language] = append(p.ContentByLanguage[language], ContentVersion{
		Text:        text,
		GeneratedAt: now,
	})
}

// SucceededChannels lists channels whose publish has completed.
func (p *Post) SucceededChannels() []string {
	var out []string
	for _, ch := range p.TargetChannels {
		if p.ChannelStatus[ch].State == ChannelSucceeded {
			out = append(out, ch)
		}
	}
	return out
}

// DeriveStatus computes the aggregate status from the per-channel states:
// every channel succeeded -> published, at least one succeeded ->
// partially_published, every channel failed -> failed, anything else is
// still in flight -> publishing.
func DeriveStatus(states ChannelStatusMap) Status {
	if len(states) == 0 {
		return StatusPublishing
	}
	succeeded, failed := 0, 0
	for _, st := range states {
		switch st.State {
		case ChannelSucceeded:
			succeeded++
		case ChannelFailed:
			failed++
		}
	}
	switch {
	case succeeded == len(states):
		return StatusPublished
	case succeeded > 0:
		return StatusPartiallyPublished
	case failed == len(states):
		return StatusFailed
	default:
		return StatusPublishing
	}
}
