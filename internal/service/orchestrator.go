package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/amitsajwan/realestate-ai-sub013/internal/config"
	"github.com/amitsajwan/realestate-ai-sub013/internal/events"
	"github.com/amitsajwan/realestate-ai-sub013/internal/models"
	"github.com/amitsajwan/realestate-ai-sub013/internal/service/channel"
	"github.com/amitsajwan/realestate-ai-sub013/internal/storage"
)

// errAlreadyPublished aborts the claim update when every channel is done;
// the caller turns it into an idempotent no-op.
var errAlreadyPublished = errors.New("post already published")

// Orchestrator drives the publish lifecycle: claiming the post, generating
// missing content, fanning out to channel publishers with retries, and
// recomputing the aggregate status from the per-channel outcomes.
type Orchestrator struct {
	store      PostStore
	properties PropertyResolver
	generator  ContentGenerator
	registry   *channel.Registry
	media      storage.Storage
	events     events.Publisher
	logger     *zap.Logger

	retry           channel.RetryPolicy
	channelTimeout  time.Duration
	staleClaimAfter time.Duration

	inflight *inflightRegistry
}

func NewOrchestrator(
	cfg *config.PublishConfig,
	logger *zap.Logger,
	store PostStore,
	properties PropertyResolver,
	generator ContentGenerator,
	registry *channel.Registry,
	media storage.Storage,
	eventBus events.Publisher,
) (*Orchestrator, error) {
	channelTimeout, err := time.ParseDuration(cfg.ChannelTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid channel timeout: %w", err)
	}
	baseDelay, err := time.ParseDuration(cfg.RetryBaseDelay)
	if err != nil {
		return nil, fmt.Errorf("invalid retry base delay: %w", err)
	}
	maxDelay, err := time.ParseDuration(cfg.RetryMaxDelay)
	if err != nil {
		return nil, fmt.Errorf("invalid retry max delay: %w", err)
	}
	staleClaimAfter, err := time.ParseDuration(cfg.StaleClaimAfter)
	if err != nil {
		return nil, fmt.Errorf("invalid stale claim window: %w", err)
	}

	return &Orchestrator{
		store:      store,
		properties: properties,
		generator:  generator,
		registry:   registry,
		media:      media,
		events:     eventBus,
		logger:     logger,
		retry: channel.RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   baseDelay,
			MaxDelay:    maxDelay,
		},
		channelTimeout:  channelTimeout,
		staleClaimAfter: staleClaimAfter,
		inflight:        newInflightRegistry(),
	}, nil
}

// CreateDraftParams carries the fields for a new post.
type CreateDraftParams struct {
	PropertyID     string
	Title          string
	TargetChannels []string
	MediaKeys      []string
	ScheduledAt    *time.Time
}

// CreateDraft validates the property and target channels and stores a new
// draft. With ScheduledAt set the post starts out scheduled instead.
func (o *Orchestrator) CreateDraft(ctx context.Context, params CreateDraftParams) (*models.Post, error) {
	if len(params.TargetChannels) == 0 {
		return nil, ErrNoTargetChannels
	}
	for _, name := range params.TargetChannels {
		if !o.registry.Has(name) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, name)
		}
	}
	if _, err := o.properties.GetProperty(ctx, params.PropertyID); err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:             uuid.NewString(),
		PropertyID:     params.PropertyID,
		Title:          params.Title,
		MediaKeys:      params.MediaKeys,
		TargetChannels: params.TargetChannels,
		Status:         models.StatusDraft,
	}
	post.SyncChannelStatus()

	if params.ScheduledAt != nil {
		if !params.ScheduledAt.After(time.Now()) {
			return nil, ErrScheduleInPast
		}
		post.Status = models.StatusScheduled
		post.ScheduledAt = params.ScheduledAt
	}

	if err := o.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	o.logger.Info("Post created",
		zap.String("post_id", post.ID),
		zap.String("property_id", post.PropertyID),
		zap.Strings("channels", post.TargetChannels),
		zap.String("status", string(post.Status)))
	return post, nil
}

// Schedule sets or moves the delivery time. Published, archived and
// in-flight posts cannot be scheduled.
func (o *Orchestrator) Schedule(ctx context.Context, id string, at time.Time) (*models.Post, error) {
	if !at.After(time.Now()) {
		return nil, ErrScheduleInPast
	}
	post, err := o.store.UpdatePost(ctx, id, func(p *models.Post) error {
		switch p.Status {
		case models.StatusArchived:
			return ErrPostArchived
		case models.StatusPublishing:
			return ErrAlreadyInProgress
		case models.StatusPublished:
			return fmt.Errorf("%w: post is already published", ErrInvalidTransition)
		}
		p.Status = models.StatusScheduled
		p.ScheduledAt = &at
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.logger.Info("Post scheduled",
		zap.String("post_id", id),
		zap.Time("scheduled_at", at))
	return post, nil
}

// CancelSchedule moves a scheduled post back to draft.
func (o *Orchestrator) CancelSchedule(ctx context.Context, id string) (*models.Post, error) {
	post, err := o.store.UpdatePost(ctx, id, func(p *models.Post) error {
		if p.Status != models.StatusScheduled {
			return fmt.Errorf("%w: post is %s, not scheduled", ErrInvalidTransition, p.Status)
		}
		p.Status = models.StatusDraft
		p.ScheduledAt = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.logger.Info("Schedule cancelled", zap.String("post_id", id))
	return post, nil
}

// Publish drives every unfinished target channel of the post. Channels
// that already succeeded are never invoked again; calling Publish on a
// fully published post is a no-op.
func (o *Orchestrator) Publish(ctx context.Context, id string) (*models.Post, error) {
	return o.publish(ctx, id, nil)
}

// RetryChannels re-drives only the requested channels. Requested channels
// that already succeeded are skipped.
func (o *Orchestrator) RetryChannels(ctx context.Context, id string, requested []string) (*models.Post, error) {
	if len(requested) == 0 {
		return nil, fmt.Errorf("%w: no channels requested", ErrNoTargetChannels)
	}
	for _, name := range requested {
		if !o.registry.Has(name) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, name)
		}
	}
	return o.publish(ctx, id, requested)
}

// publish is the shared pipeline. A nil restriction means all target
// channels.
func (o *Orchestrator) publish(ctx context.Context, id string, restriction []string) (*models.Post, error) {
	if !o.inflight.tryAcquire(id) {
		return nil, ErrAlreadyInProgress
	}
	defer o.inflight.release(id)

	var priorStatus models.Status
	claimed, err := o.store.UpdatePost(ctx, id, func(p *models.Post) error {
		switch p.Status {
		case models.StatusArchived:
			return ErrPostArchived
		case models.StatusPublished:
			return errAlreadyPublished
		case models.StatusPublishing:
			if time.Since(p.UpdatedAt) < o.staleClaimAfter {
				return ErrAlreadyInProgress
			}
			// Stale claim from a crashed run; take it over.
		}
		if len(p.TargetChannels) == 0 {
			return ErrNoTargetChannels
		}
		for _, name := range p.TargetChannels {
			if !o.registry.Has(name) {
				return fmt.Errorf("%w: %s", ErrUnknownChannel, name)
			}
		}
		for _, name := range restriction {
			if !p.TargetChannels.Contains(name) {
				return fmt.Errorf("%w: %s", ErrChannelNotTarget, name)
			}
		}
		p.SyncChannelStatus()
		priorStatus = p.Status
		p.Status = models.StatusPublishing
		return nil
	})
	if err != nil {
		if errors.Is(err, errAlreadyPublished) {
			return o.store.GetPost(ctx, id)
		}
		return nil, err
	}

	property, err := o.properties.GetProperty(ctx, claimed.PropertyID)
	if err != nil {
		// Structural failure before any channel was touched; give the
		// claim back so the post stays actionable.
		if _, revertErr := o.store.UpdatePost(ctx, id, func(p *models.Post) error {
			p.Status = priorStatus
			return nil
		}); revertErr != nil {
			o.logger.Error("Failed to revert claim",
				zap.String("post_id", id),
				zap.Error(revertErr))
		}
		return nil, fmt.Errorf("failed to resolve property %s: %w", claimed.PropertyID, err)
	}

	toDrive := o.channelsToDrive(claimed, restriction)
	if len(toDrive) == 0 {
		return o.finalize(ctx, id)
	}

	post, toDrive, err := o.ensureContent(ctx, id, claimed, property, toDrive)
	if err != nil {
		return nil, err
	}

	mediaURLs := make([]string, 0, len(post.MediaKeys))
	for _, key := range post.MediaKeys {
		mediaURLs = append(mediaURLs, o.media.ResolveURL(key))
	}

	var wg sync.WaitGroup
	for _, name := range toDrive {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			o.driveChannel(ctx, post, property, name, mediaURLs)
		}(name)
	}
	wg.Wait()

	return o.finalize(ctx, id)
}

// channelsToDrive picks the channels that still need work: anything not
// succeeded, optionally narrowed to the requested subset.
func (o *Orchestrator) channelsToDrive(post *models.Post, restriction []string) []string {
	requested := post.TargetChannels
	if restriction != nil {
		requested = restriction
	}
	var out []string
	for _, name := range requested {
		if post.ChannelStatus[name].State != models.ChannelSucceeded {
			out = append(out, name)
		}
	}
	return out
}

// ensureContent generates missing language versions once per language.
// Channels whose language cannot be generated are failed right here,
// before their publisher is ever invoked.
func (o *Orchestrator) ensureContent(ctx context.Context, id string, post *models.Post, property *models.Property, toDrive []string) (*models.Post, []string, error) {
	needed := make(map[string][]string)
	for _, name := range toDrive {
		pub, err := o.registry.Get(name)
		if err != nil {
			return nil, nil, err
		}
		lang := pub.Language()
		needed[lang] = append(needed[lang], name)
	}

	generated := make(map[string]string)
	failed := make(map[string]error)
	for lang := range needed {
		if _, ok := post.ContentFor(lang); ok {
			continue
		}
		text, err := o.generator.Generate(ctx, property, lang)
		if err != nil {
			o.logger.Error("Content generation failed",
				zap.String("post_id", id),
				zap.String("language", lang),
				zap.Error(err))
			failed[lang] = err
			continue
		}
		generated[lang] = text
	}

	if len(generated) > 0 || len(failed) > 0 {
		now := time.Now()
		updated, err := o.store.UpdatePost(ctx, id, func(p *models.Post) error {
			for lang, text := range generated {
				if _, ok := p.ContentFor(lang); ok {
					continue
				}
				p.AddContent(lang, text, now)
			}
			for lang, genErr := range failed {
				for _, name := range needed[lang] {
					state := p.ChannelStatus[name]
					state.State = models.ChannelFailed
					state.FailureReason = models.FailureContentGeneration
					state.LastError = genErr.Error()
					p.ChannelStatus[name] = state
				}
			}
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
		post = updated
	}

	var drivable []string
	for _, name := range toDrive {
		if pub, err := o.registry.Get(name); err == nil {
			if _, failedLang := failed[pub.Language()]; failedLang {
				continue
			}
		}
		drivable = append(drivable, name)
	}
	return post, drivable, nil
}

// driveChannel runs the bounded attempt chain for one channel. Every
// attempt is counted in storage before the publisher is called, so a crash
// mid-call still shows up in the attempt history.
func (o *Orchestrator) driveChannel(ctx context.Context, post *models.Post, property *models.Property, name string, mediaURLs []string) {
	pub, err := o.registry.Get(name)
	if err != nil {
		o.logger.Error("Publisher disappeared from registry",
			zap.String("post_id", post.ID),
			zap.String("channel", name))
		return
	}

	body, ok := post.ContentFor(pub.Language())
	if !ok {
		o.setChannelState(ctx, post.ID, name, func(state *models.ChannelState) {
			state.State = models.ChannelFailed
			state.FailureReason = models.FailureContentGeneration
			state.LastError = fmt.Sprintf("no content for language %s", pub.Language())
		})
		return
	}

	req := channel.Request{
		PostID:    post.ID,
		Title:     post.Title,
		Body:      body,
		Language:  pub.Language(),
		MediaURLs: mediaURLs,
		Property:  property,
	}

	for attempt := 1; attempt <= o.retry.MaxAttempts; attempt++ {
		if wait := o.retry.Backoff(attempt); wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return
			}
		}

		if err := o.setChannelState(ctx, post.ID, name, func(state *models.ChannelState) {
			now := time.Now()
			state.State = models.ChannelPublishing
			state.Attempts++
			state.LastAttemptAt = &now
		}); err != nil {
			o.logger.Error("Failed to record attempt",
				zap.String("post_id", post.ID),
				zap.String("channel", name),
				zap.Error(err))
			return
		}

		callCtx, cancel := context.WithTimeout(ctx, o.channelTimeout)
		result, err := pub.Publish(callCtx, req)
		cancel()

		if err == nil {
			publishedAt := result.PublishedAt
			o.setChannelState(ctx, post.ID, name, func(state *models.ChannelState) {
				state.State = models.ChannelSucceeded
				state.ExternalPostID = result.ExternalID
				state.PublishedAt = &publishedAt
				state.LastError = ""
				state.FailureReason = ""
			})
			o.logger.Info("Channel publish succeeded",
				zap.String("post_id", post.ID),
				zap.String("channel", name),
				zap.String("external_id", result.ExternalID),
				zap.Int("attempt", attempt))
			return
		}

		if channel.IsPermanent(err) || attempt == o.retry.MaxAttempts {
			errMsg := err.Error()
			reason := channel.Reason(err)
			o.setChannelState(ctx, post.ID, name, func(state *models.ChannelState) {
				state.State = models.ChannelFailed
				state.LastError = errMsg
				state.FailureReason = reason
			})
			o.logger.Warn("Channel publish failed",
				zap.String("post_id", post.ID),
				zap.String("channel", name),
				zap.Int("attempt", attempt),
				zap.Bool("permanent", channel.IsPermanent(err)),
				zap.Error(err))
			return
		}

		errMsg := err.Error()
		o.setChannelState(ctx, post.ID, name, func(state *models.ChannelState) {
			state.State = models.ChannelPendingRetry
			state.LastError = errMsg
		})
		o.logger.Warn("Channel publish attempt failed, will retry",
			zap.String("post_id", post.ID),
			zap.String("channel", name),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
}

func (o *Orchestrator) setChannelState(ctx context.Context, postID, name string, mutate func(state *models.ChannelState)) error {
	_, err := o.store.UpdatePost(ctx, postID, func(p *models.Post) error {
		state := p.ChannelStatus[name]
		mutate(&state)
		p.ChannelStatus[name] = state
		return nil
	})
	return err
}

// finalize recomputes the aggregate status, stamps PublishedAt on the
// first success, and emits the outcome event.
func (o *Orchestrator) finalize(ctx context.Context, id string) (*models.Post, error) {
	post, err := o.store.UpdatePost(ctx, id, func(p *models.Post) error {
		p.Status = models.DeriveStatus(p.ChannelStatus)
		if p.PublishedAt == nil &&
			(p.Status == models.StatusPublished || p.Status == models.StatusPartiallyPublished) {
			now := time.Now()
			p.PublishedAt = &now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info("Publish run finished",
		zap.String("post_id", post.ID),
		zap.String("status", string(post.Status)))

	switch post.Status {
	case models.StatusPublished:
		o.emit(ctx, post, events.TypePostPublished)
	case models.StatusPartiallyPublished:
		o.emit(ctx, post, events.TypePostPartiallyPublished)
	case models.StatusFailed:
		o.emit(ctx, post, events.TypePostFailed)
	}
	return post, nil
}

// Archive retires the post. Published channel posts are taken down on a
// best-effort basis; a channel that refuses to unpublish does not block
// the archive.
func (o *Orchestrator) Archive(ctx context.Context, id string) (*models.Post, error) {
	if !o.inflight.tryAcquire(id) {
		return nil, ErrAlreadyInProgress
	}
	defer o.inflight.release(id)

	current, err := o.store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == models.StatusArchived {
		return current, nil
	}

	for _, name := range current.SucceededChannels() {
		externalID := current.ChannelStatus[name].ExternalPostID
		if externalID == "" {
			continue
		}
		pub, err := o.registry.Get(name)
		if err != nil {
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, o.channelTimeout)
		err = pub.Unpublish(callCtx, externalID)
		cancel()
		if err != nil {
			o.logger.Warn("Unpublish failed, archiving anyway",
				zap.String("post_id", id),
				zap.String("channel", name),
				zap.String("external_id", externalID),
				zap.Error(err))
		}
	}

	post, err := o.store.UpdatePost(ctx, id, func(p *models.Post) error {
		p.Status = models.StatusArchived
		return nil
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info("Post archived", zap.String("post_id", id))
	o.emit(ctx, post, events.TypePostArchived)
	return post, nil
}

func (o *Orchestrator) emit(ctx context.Context, post *models.Post, eventType string) {
	outcomes := make(map[string]events.ChannelOutcome, len(post.ChannelStatus))
	for name, state := range post.ChannelStatus {
		outcomes[name] = events.ChannelOutcome{
			State:          string(state.State),
			Attempts:       state.Attempts,
			ExternalPostID: state.ExternalPostID,
			FailureReason:  state.FailureReason,
		}
	}
	event := events.PostEvent{
		Type:       eventType,
		PostID:     post.ID,
		PropertyID: post.PropertyID,
		Status:     string(post.Status),
		Channels:   outcomes,
		OccurredAt: time.Now(),
	}
	if err := o.events.Publish(ctx, event); err != nil {
		o.logger.Warn("Failed to emit event",
			zap.String("post_id", post.ID),
			zap.String("type", eventType),
			zap.Error(err))
	}
}

// inflightRegistry is the in-process guard against two goroutines driving
// the same post at once.
type inflightRegistry struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newInflightRegistry() *inflightRegistry {
	return &inflightRegistry{active: make(map[string]struct{})}
}

func (r *inflightRegistry) tryAcquire(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.active[id]; busy {
		return false
	}
	r.active[id] = struct{}{}
	return true
}

func (r *inflightRegistry) release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}
