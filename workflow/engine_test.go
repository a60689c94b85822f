package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aronm-sonance/sonance-marketing-hub/models"
)

type fakePostStore struct {
	mu            sync.Mutex
	posts         map[string]*models.Post
	logs          []models.PostStatusLog
	notifications []models.Notification
	emailed       map[string]bool
	notifErr      error
	// getBarrier, when set, makes every GetPost rendezvous before returning so
	// concurrent callers all read the same pre-transition status.
	getBarrier *sync.WaitGroup
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{
		posts:   map[string]*models.Post{},
		emailed: map[string]bool{},
	}
}

func (f *fakePostStore) GetPost(ctx context.Context, id string) (*models.Post, error) {
	f.mu.Lock()
	post, ok := f.posts[id]
	if !ok {
		f.mu.Unlock()
		return nil, ErrNotFound
	}
	cp := *post
	f.mu.Unlock()
	if f.getBarrier != nil {
		f.getBarrier.Done()
		f.getBarrier.Wait()
	}
	return &cp, nil
}

func (f *fakePostStore) Transition(ctx context.Context, id string, expected, next models.PostStatus, entry *models.PostStatusLog) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if post.Status != expected {
		return nil, ErrStaleTransition
	}
	post.Status = next
	f.logs = append(f.logs, *entry)
	cp := *post
	return &cp, nil
}

func (f *fakePostStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notifErr != nil {
		return f.notifErr
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	f.notifications = append(f.notifications, *n)
	return nil
}

func (f *fakePostStore) MarkNotificationEmailed(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emailed[id] = true
	return nil
}

func (f *fakePostStore) notificationsFor(recipientID string) []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Notification
	for _, n := range f.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

type membership struct {
	channelID string
	profile   models.Profile
	role      models.ChannelRole
}

type fakeMembers struct {
	memberships []membership
}

func (f *fakeMembers) GetRole(ctx context.Context, channelID, profileID string) (models.ChannelRole, bool, error) {
	for _, m := range f.memberships {
		if m.channelID == channelID && m.profile.ID == profileID {
			return m.role, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeMembers) ListApprovers(ctx context.Context, channelID string) ([]models.Profile, error) {
	return f.list(channelID, models.ChannelApprover), nil
}

func (f *fakeMembers) ListMembers(ctx context.Context, channelID string) ([]models.Profile, error) {
	return f.list(channelID, ""), nil
}

func (f *fakeMembers) list(channelID string, role models.ChannelRole) []models.Profile {
	var out []models.Profile
	for _, m := range f.memberships {
		if m.channelID != channelID {
			continue
		}
		if role != "" && m.role != role {
			continue
		}
		out = append(out, m.profile)
	}
	return out
}

type fakeProfiles struct {
	profiles map[string]models.Profile
}

func (f *fakeProfiles) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	return &cp, nil
}

type sentMail struct {
	to, subject, html string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(to, subject, html string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, html: html})
	return nil
}

// test world: one channel with an author (creator role), two approvers, a
// viewer, plus a global admin and an outsider with no membership.
type world struct {
	store     *fakePostStore
	members   *fakeMembers
	profiles  *fakeProfiles
	mailer    *fakeMailer
	engine    *Engine
	channelID string
	post      *models.Post

	author    models.Profile
	approver  models.Profile
	approver2 models.Profile
	viewer    models.Profile
	admin     models.Profile
	outsider  models.Profile
}

func newWorld(t *testing.T, status models.PostStatus) *world {
	t.Helper()

	w := &world{
		store:     newFakePostStore(),
		mailer:    &fakeMailer{},
		channelID: uuid.NewString(),
	}

	mkProfile := func(name, role string) models.Profile {
		return models.Profile{
			ID:       uuid.NewString(),
			Email:    name + "@example.com",
			FullName: name,
			Role:     role,
			Status:   models.ProfileActive,
		}
	}
	w.author = mkProfile("author", models.RoleCreator)
	w.approver = mkProfile("approver", models.RoleViewer)
	w.approver2 = mkProfile("approver2", models.RoleViewer)
	w.viewer = mkProfile("viewer", models.RoleViewer)
	w.admin = mkProfile("admin", models.RoleAdmin)
	w.outsider = mkProfile("outsider", models.RoleViewer)

	w.profiles = &fakeProfiles{profiles: map[string]models.Profile{}}
	for _, p := range []models.Profile{w.author, w.approver, w.approver2, w.viewer, w.admin, w.outsider} {
		w.profiles.profiles[p.ID] = p
	}

	w.members = &fakeMembers{
		memberships: []membership{
			{channelID: w.channelID, profile: w.author, role: models.ChannelCreator},
			{channelID: w.channelID, profile: w.approver, role: models.ChannelApprover},
			{channelID: w.channelID, profile: w.approver2, role: models.ChannelApprover},
			{channelID: w.channelID, profile: w.viewer, role: models.ChannelViewer},
		},
	}

	w.post = &models.Post{
		ID:        uuid.NewString(),
		Title:     "Spring launch teaser",
		ChannelID: w.channelID,
		AuthorID:  w.author.ID,
		Status:    status,
		Channel:   models.Channel{ID: w.channelID, Name: "Social"},
	}
	w.store.posts[w.post.ID] = w.post

	w.engine = NewEngine(w.store, w.members, w.profiles, w.mailer, "https://hub.example.com", zap.NewNop().Sugar())
	return w
}

func allStatuses() []models.PostStatus {
	return []models.PostStatus{
		models.StatusDraft,
		models.StatusPending,
		models.StatusChangesRequested,
		models.StatusApproved,
		models.StatusScheduled,
		models.StatusPublished,
	}
}

func TestIllegalEdgesRejected(t *testing.T) {
	legal := map[[2]models.PostStatus]bool{
		{models.StatusDraft, models.StatusPending}:            true,
		{models.StatusChangesRequested, models.StatusPending}: true,
		{models.StatusPending, models.StatusApproved}:         true,
		{models.StatusPending, models.StatusChangesRequested}: true,
		{models.StatusApproved, models.StatusScheduled}:       true,
		{models.StatusScheduled, models.StatusPublished}:      true,
	}

	for _, from := range allStatuses() {
		for _, to := range allStatuses() {
			if legal[[2]models.PostStatus{from, to}] {
				continue
			}
			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				w := newWorld(t, from)
				_, err := w.engine.RequestTransition(context.Background(), w.post.ID, string(to), w.admin.ID, "")
				require.ErrorIs(t, err, ErrInvalidEdge)
				assert.Equal(t, from, w.post.Status, "post must be unchanged after a rejected edge")
				assert.Empty(t, w.store.logs)
			})
		}
	}
}

func TestUnknownTargetStatusRejected(t *testing.T) {
	w := newWorld(t, models.StatusDraft)
	_, err := w.engine.RequestTransition(context.Background(), w.post.ID, "archived", w.admin.ID, "")
	require.ErrorIs(t, err, ErrInvalidEdge)
	assert.Equal(t, models.StatusDraft, w.post.Status)
}

func TestTransitionPostNotFound(t *testing.T) {
	w := newWorld(t, models.StatusDraft)
	_, err := w.engine.RequestTransition(context.Background(), uuid.NewString(), string(models.StatusPending), w.author.ID, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUnknownActorRejected(t *testing.T) {
	w := newWorld(t, models.StatusDraft)
	_, err := w.engine.RequestTransition(context.Background(), w.post.ID, string(models.StatusPending), uuid.NewString(), "")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, models.StatusDraft, w.post.Status)
}

func TestEdgeAuthorization(t *testing.T) {
	cases := []struct {
		name    string
		from    models.PostStatus
		to      models.PostStatus
		actor   func(*world) string
		comment string
		wantErr error
	}{
		{"author submits draft", models.StatusDraft, models.StatusPending, func(w *world) string { return w.author.ID }, "", nil},
		{"approver cannot submit another's draft", models.StatusDraft, models.StatusPending, func(w *world) string { return w.approver.ID }, "", ErrUnauthorized},
		{"admin submits draft", models.StatusDraft, models.StatusPending, func(w *world) string { return w.admin.ID }, "", nil},
		{"outsider cannot submit draft", models.StatusDraft, models.StatusPending, func(w *world) string { return w.outsider.ID }, "", ErrUnauthorized},
		{"author resubmits after changes", models.StatusChangesRequested, models.StatusPending, func(w *world) string { return w.author.ID }, "", nil},
		{"approver approves", models.StatusPending, models.StatusApproved, func(w *world) string { return w.approver.ID }, "", nil},
		{"author cannot self-approve", models.StatusPending, models.StatusApproved, func(w *world) string { return w.author.ID }, "", ErrUnauthorized},
		{"viewer cannot approve", models.StatusPending, models.StatusApproved, func(w *world) string { return w.viewer.ID }, "", ErrUnauthorized},
		{"outsider cannot approve", models.StatusPending, models.StatusApproved, func(w *world) string { return w.outsider.ID }, "", ErrUnauthorized},
		{"admin approves", models.StatusPending, models.StatusApproved, func(w *world) string { return w.admin.ID }, "", nil},
		{"approver requests changes", models.StatusPending, models.StatusChangesRequested, func(w *world) string { return w.approver.ID }, "tighten the copy", nil},
		{"author cannot request changes", models.StatusPending, models.StatusChangesRequested, func(w *world) string { return w.author.ID }, "nope", ErrUnauthorized},
		{"author schedules approved post", models.StatusApproved, models.StatusScheduled, func(w *world) string { return w.author.ID }, "", nil},
		{"approver schedules approved post", models.StatusApproved, models.StatusScheduled, func(w *world) string { return w.approver.ID }, "", nil},
		{"viewer cannot schedule", models.StatusApproved, models.StatusScheduled, func(w *world) string { return w.viewer.ID }, "", ErrUnauthorized},
		{"approver publishes", models.StatusScheduled, models.StatusPublished, func(w *world) string { return w.approver.ID }, "", nil},
		{"author publishes", models.StatusScheduled, models.StatusPublished, func(w *world) string { return w.author.ID }, "", nil},
		{"outsider cannot publish", models.StatusScheduled, models.StatusPublished, func(w *world) string { return w.outsider.ID }, "", ErrUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := newWorld(t, tc.from)
			updated, err := w.engine.RequestTransition(context.Background(), w.post.ID, string(tc.to), tc.actor(w), tc.comment)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				assert.Equal(t, tc.from, w.post.Status, "post must be unchanged on denial")
				assert.Empty(t, w.store.logs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.to, updated.Status)
			require.Len(t, w.store.logs, 1)
			assert.Equal(t, tc.from, w.store.logs[0].FromStatus)
			assert.Equal(t, tc.to, w.store.logs[0].ToStatus)
			assert.Equal(t, tc.actor(w), w.store.logs[0].ChangedBy)
		})
	}
}

func TestChangesRequestedRequiresComment(t *testing.T) {
	for _, comment := range []string{"", "   "} {
		w := newWorld(t, models.StatusPending)
		_, err := w.engine.RequestTransition(context.Background(), w.post.ID, string(models.StatusChangesRequested), w.approver.ID, comment)
		require.ErrorIs(t, err, ErrMissingComment)
		assert.Equal(t, models.StatusPending, w.post.Status)
		assert.Empty(t, w.store.logs)
	}
}

func TestChangesRequestedCommentRecordedAndDelivered(t *testing.T) {
	w := newWorld(t, models.StatusPending)
	_, err := w.engine.RequestTransition(context.Background(), w.post.ID, string(models.StatusChangesRequested), w.approver.ID, "fix typo")
	require.NoError(t, err)

	require.Len(t, w.store.logs, 1)
	assert.Equal(t, "fix typo", w.store.logs[0].Comment)

	notifs := w.store.notificationsFor(w.author.ID)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifyPostChangesRequested, notifs[0].Type)
	assert.Equal(t, w.post.ID, notifs[0].PostID)
	assert.Contains(t, notifs[0].Body, "fix typo")

	require.Len(t, w.mailer.sent, 1)
	assert.Equal(t, w.author.Email, w.mailer.sent[0].to)
	assert.Contains(t, w.mailer.sent[0].html, "fix typo")
}

func TestSubmitNotifiesApprovers(t *testing.T) {
	w := newWorld(t, models.StatusDraft)
	updated, err := w.engine.RequestTransition(context.Background(), w.post.ID, string(models.StatusPending), w.author.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, updated.Status)

	for _, approver := range []models.Profile{w.approver, w.approver2} {
		notifs := w.store.notificationsFor(approver.ID)
		require.Len(t, notifs, 1, "approver %s should be notified", approver.FullName)
		assert.Equal(t, models.NotifyPostSubmitted, notifs[0].Type)
		assert.Equal(t, w.post.ID, notifs[0].PostID)
		assert.Contains(t, notifs[0].Body, w.post.Title)
		assert.Contains(t, notifs[0].Body, "Social")
		assert.True(t, w.store.emailed[notifs[0].ID], "notification should be marked emailed")
	}
	// author and viewer are not in the audience
	assert.Empty(t, w.store.notificationsFor(w.author.ID))
	assert.Empty(t, w.store.notificationsFor(w.viewer.ID))
	assert.Len(t, w.mailer.sent, 2)
}

func TestApproveNotifiesAuthor(t *testing.T) {
	w := newWorld(t, models.StatusPending)
	_, err := w.engine.RequestTransition(context.Background(), w.post.ID, string(models.StatusApproved), w.approver.ID, "")
	require.NoError(t, err)

	notifs := w.store.notificationsFor(w.author.ID)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifyPostApproved, notifs[0].Type)
	assert.Contains(t, notifs[0].Body, w.post.Title)
	require.Len(t, w.mailer.sent, 1)
	assert.Equal(t, w.author.Email, w.mailer.sent[0].to)
	assert.Contains(t, w.mailer.sent[0].html, "/library/"+w.post.ID)
}

func TestScheduleSendsNoNotifications(t *testing.T) {
	w := newWorld(t, models.StatusApproved)
	_, err := w.engine.RequestTransition(context.Background(), w.post.ID, string(models.StatusScheduled), w.author.ID, "")
	require.NoError(t, err)
	assert.Empty(t, w.store.notifications)
	assert.Empty(t, w.mailer.sent)
}

func TestPublishNotifiesChannelMembers(t *testing.T) {
	w := newWorld(t, models.StatusScheduled)
	_, err := w.engine.RequestTransition(context.Background(), w.post.ID, string(models.StatusPublished), w.approver.ID, "")
	require.NoError(t, err)

	for _, member := range []models.Profile{w.author, w.approver, w.approver2, w.viewer} {
		notifs := w.store.notificationsFor(member.ID)
		require.Len(t, notifs, 1, "member %s should be notified", member.FullName)
		assert.Equal(t, models.NotifyPostPublished, notifs[0].Type)
	}
	assert.Empty(t, w.store.notificationsFor(w.outsider.ID))
}

func TestEmailFailureDoesNotFailTransition(t *testing.T) {
	w := newWorld(t, models.StatusPending)
	w.mailer.err = errors.New("smtp timeout")

	updated, err := w.engine.RequestTransition(context.Background(), w.post.ID, string(models.StatusApproved), w.approver.ID, "")
	require.NoError(t, err, "email failure must not fail the transition")
	assert.Equal(t, models.StatusApproved, updated.Status)

	notifs := w.store.notificationsFor(w.author.ID)
	require.Len(t, notifs, 1, "in-app notification is still saved")
	assert.False(t, w.store.emailed[notifs[0].ID], "emailed must stay false without a confirmed send")
}

func TestNotificationInsertFailureDoesNotFailTransition(t *testing.T) {
	w := newWorld(t, models.StatusDraft)
	w.store.notifErr = errors.New("insert failed")

	updated, err := w.engine.RequestTransition(context.Background(), w.post.ID, string(models.StatusPending), w.author.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, updated.Status)
	assert.Empty(t, w.mailer.sent, "no email without a saved notification")
}

func TestConcurrentTransitionsOneWins(t *testing.T) {
	w := newWorld(t, models.StatusPending)

	barrier := &sync.WaitGroup{}
	barrier.Add(2)
	w.store.getBarrier = barrier

	type result struct {
		target models.PostStatus
		err    error
	}
	results := make(chan result, 2)
	var wg sync.WaitGroup

	race := func(actorID string, target models.PostStatus, comment string) {
		defer wg.Done()
		_, err := w.engine.RequestTransition(context.Background(), w.post.ID, string(target), actorID, comment)
		results <- result{target: target, err: err}
	}

	wg.Add(2)
	go race(w.approver.ID, models.StatusApproved, "")
	go race(w.approver2.ID, models.StatusChangesRequested, "needs a stronger hook")
	wg.Wait()
	close(results)

	var winners, losers []result
	for r := range results {
		if r.err == nil {
			winners = append(winners, r)
		} else {
			losers = append(losers, r)
		}
	}

	require.Len(t, winners, 1, "exactly one transition must succeed")
	require.Len(t, losers, 1)
	assert.ErrorIs(t, losers[0].err, ErrStaleTransition)
	assert.Equal(t, winners[0].target, w.post.Status, "final status equals the winner's target")
	require.Len(t, w.store.logs, 1, "exactly one audit entry for the winning transition")
	assert.Equal(t, winners[0].target, w.store.logs[0].ToStatus)
}
