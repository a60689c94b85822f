package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/aronm-sonance/sonance-marketing-hub/models"
)

// PostStore is the persistence surface the engine needs for posts, the audit
// trail, and notification rows.
type PostStore interface {
	GetPost(ctx context.Context, id string) (*models.Post, error)
	// Transition updates the post's status and appends the audit entry as one
	// atomic unit, conditional on the post still being in the expected status.
	// It returns ErrStaleTransition when a concurrent transition won the race.
	Transition(ctx context.Context, id string, expected, next models.PostStatus, entry *models.PostStatusLog) (*models.Post, error)
	InsertNotification(ctx context.Context, n *models.Notification) error
	MarkNotificationEmailed(ctx context.Context, id string) error
}

// MembershipResolver answers channel role questions.
type MembershipResolver interface {
	GetRole(ctx context.Context, channelID, profileID string) (models.ChannelRole, bool, error)
	ListApprovers(ctx context.Context, channelID string) ([]models.Profile, error)
	ListMembers(ctx context.Context, channelID string) ([]models.Profile, error)
}

// ProfileStore resolves profiles for authorization and email lookup.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

// Mailer delivers a single email. Implementations must be safe for
// sequential reuse; the engine never sends concurrently.
type Mailer interface {
	Send(to, subject, html string) error
}

type actorRule int

const (
	byAuthor actorRule = iota
	byApprover
	byAuthorOrApprover
)

type edge struct {
	from, to models.PostStatus
}

type transitionRule struct {
	who          actorRule
	needsComment bool
}

// transitions is the complete legal-edge table. A global admin may trigger
// any edge in the table; everything absent from it is rejected.
var transitions = map[edge]transitionRule{
	{models.StatusDraft, models.StatusPending}:            {who: byAuthor},
	{models.StatusChangesRequested, models.StatusPending}: {who: byAuthor},
	{models.StatusPending, models.StatusApproved}:         {who: byApprover},
	{models.StatusPending, models.StatusChangesRequested}: {who: byApprover, needsComment: true},
	{models.StatusApproved, models.StatusScheduled}:       {who: byAuthorOrApprover},
	{models.StatusScheduled, models.StatusPublished}:      {who: byAuthorOrApprover},
}

// Engine validates and executes post status transitions, records the audit
// trail, and fans out notifications. All collaborators are injected so tests
// can run against fakes.
type Engine struct {
	posts    PostStore
	members  MembershipResolver
	profiles ProfileStore
	mailer   Mailer
	baseURL  string
	log      *zap.SugaredLogger
}

// NewEngine wires an Engine from its collaborators. baseURL is the public
// app origin used to build post links inside emails.
func NewEngine(posts PostStore, members MembershipResolver, profiles ProfileStore, mailer Mailer, baseURL string, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{
		posts:    posts,
		members:  members,
		profiles: profiles,
		mailer:   mailer,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		log:      log,
	}
}

// RequestTransition moves a post to toStatus on behalf of actorID. On success
// the status change and one audit entry have been committed together and the
// updated post is returned; notification fan-out is best-effort and never
// fails the call.
func (e *Engine) RequestTransition(ctx context.Context, postID, toStatus, actorID, comment string) (*models.Post, error) {
	post, err := e.posts.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	target, ok := models.ParsePostStatus(toStatus)
	if !ok {
		return nil, ErrInvalidEdge
	}

	rule, ok := transitions[edge{post.Status, target}]
	if !ok {
		return nil, ErrInvalidEdge
	}

	comment = strings.TrimSpace(comment)
	if rule.needsComment && comment == "" {
		return nil, ErrMissingComment
	}

	actor, err := e.profiles.GetProfile(ctx, actorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	if !actor.IsAdmin() {
		allowed, err := e.authorize(ctx, post, actor.ID, rule.who)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, ErrUnauthorized
		}
	}

	entry := &models.PostStatusLog{
		PostID:     post.ID,
		FromStatus: post.Status,
		ToStatus:   target,
		ChangedBy:  actor.ID,
		Comment:    comment,
	}

	updated, err := e.posts.Transition(ctx, post.ID, post.Status, target, entry)
	if err != nil {
		return nil, err
	}

	// The transition is committed; anything past this point must not undo it.
	e.notify(ctx, post, post.Status, target, comment)

	return updated, nil
}

func (e *Engine) authorize(ctx context.Context, post *models.Post, actorID string, who actorRule) (bool, error) {
	isAuthor := post.AuthorID == actorID
	if who == byAuthor {
		return isAuthor, nil
	}

	role, found, err := e.members.GetRole(ctx, post.ChannelID, actorID)
	if err != nil {
		return false, err
	}
	isApprover := found && role == models.ChannelApprover

	switch who {
	case byApprover:
		return isApprover, nil
	case byAuthorOrApprover:
		return isAuthor || isApprover, nil
	}
	return false, nil
}

type notice struct {
	recipient models.Profile
	ntype     string
	title     string
	body      string
}

// notify computes the audience for the edge that just committed and delivers
// in-app rows plus emails, sequentially, swallowing per-recipient failures.
func (e *Engine) notify(ctx context.Context, post *models.Post, from, to models.PostStatus, comment string) {
	notices, err := e.audience(ctx, post, from, to, comment)
	if err != nil {
		e.log.Warnw("notification audience lookup failed", "post_id", post.ID, "error", err)
		return
	}

	for _, n := range notices {
		row := &models.Notification{
			RecipientID: n.recipient.ID,
			Type:        n.ntype,
			Title:       n.title,
			Body:        n.body,
			PostID:      post.ID,
		}
		if err := e.posts.InsertNotification(ctx, row); err != nil {
			e.log.Warnw("failed to save notification", "post_id", post.ID, "recipient_id", n.recipient.ID, "error", err)
			continue
		}
		if e.mailer == nil || n.recipient.Email == "" {
			continue
		}
		html := fmt.Sprintf("<p>%s</p><p><a href=%q>View post</a></p>", n.body, e.postURL(post.ID))
		if err := e.mailer.Send(n.recipient.Email, n.title, html); err != nil {
			e.log.Warnw("failed to send email notification", "post_id", post.ID, "recipient_id", n.recipient.ID, "error", err)
			continue
		}
		if err := e.posts.MarkNotificationEmailed(ctx, row.ID); err != nil {
			e.log.Warnw("failed to mark notification emailed", "notification_id", row.ID, "error", err)
		}
	}
}

func (e *Engine) audience(ctx context.Context, post *models.Post, from, to models.PostStatus, comment string) ([]notice, error) {
	switch {
	case to == models.StatusPending:
		approvers, err := e.members.ListApprovers(ctx, post.ChannelID)
		if err != nil {
			return nil, err
		}
		notices := make([]notice, 0, len(approvers))
		for _, a := range approvers {
			notices = append(notices, notice{
				recipient: a,
				ntype:     models.NotifyPostSubmitted,
				title:     "New post submitted for review",
				body:      fmt.Sprintf("Post %q in channel %s is pending review.", post.Title, post.Channel.Name),
			})
		}
		return notices, nil

	case from == models.StatusPending && to == models.StatusApproved:
		author, err := e.profiles.GetProfile(ctx, post.AuthorID)
		if err != nil {
			return nil, err
		}
		return []notice{{
			recipient: *author,
			ntype:     models.NotifyPostApproved,
			title:     "Your post was approved",
			body:      fmt.Sprintf("Your post %q has been approved.", post.Title),
		}}, nil

	case from == models.StatusPending && to == models.StatusChangesRequested:
		author, err := e.profiles.GetProfile(ctx, post.AuthorID)
		if err != nil {
			return nil, err
		}
		return []notice{{
			recipient: *author,
			ntype:     models.NotifyPostChangesRequested,
			title:     "Changes requested on your post",
			body:      fmt.Sprintf("Changes were requested on %q. Comment: %s", post.Title, comment),
		}}, nil

	case to == models.StatusPublished:
		members, err := e.members.ListMembers(ctx, post.ChannelID)
		if err != nil {
			return nil, err
		}
		notices := make([]notice, 0, len(members))
		for _, m := range members {
			notices = append(notices, notice{
				recipient: m,
				ntype:     models.NotifyPostPublished,
				title:     "New content published",
				body:      fmt.Sprintf("New content %q has been published in channel %s.", post.Title, post.Channel.Name),
			})
		}
		return notices, nil
	}

	// approved -> scheduled carries no notification.
	return nil, nil
}

func (e *Engine) postURL(postID string) string {
	return e.baseURL + "/library/" + postID
}
