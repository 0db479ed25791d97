// Package conversation is the message lifecycle controller. It owns one
// conversation's ordered message history, walks each outgoing message
// through pending -> sent -> delivered (-> seen), and schedules a
// simulated counterpart reply per submission.
//
// All state changes happen either inside Submit or inside scheduler
// callbacks. Every change bumps the state version and is published
// through an observe.Hub, so observers only ever see whole, forward-moving
// snapshots.
package conversation

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/vyaapaar/dashcore/pkg/clock"
	"github.com/vyaapaar/dashcore/pkg/model"
	"github.com/vyaapaar/dashcore/pkg/observe"
	"github.com/vyaapaar/dashcore/pkg/random"
	"github.com/vyaapaar/dashcore/pkg/replies"
	"github.com/vyaapaar/dashcore/pkg/schedule"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("conversation closed")

// UsageSink receives the cost of each counterpart reply that carries one.
type UsageSink interface {
	RecordUsage(surface model.Surface, tokens int)
}

// Recorder observes controller activity for metrics.
type Recorder interface {
	MessageAppended(surface model.Surface, origin model.Origin)
	SubmitRejected(surface model.Surface)
}

type nopRecorder struct{}

func (nopRecorder) MessageAppended(model.Surface, model.Origin) {}
func (nopRecorder) SubmitRejected(model.Surface)                {}

// Option configures a Controller.
type Option func(*Controller)

// WithRandom sets the source used for reply jitter.
func WithRandom(rnd random.Source) Option {
	return func(c *Controller) { c.rnd = rnd }
}

// WithHistory seeds the conversation with prior messages. They are kept in
// the given order and not scheduled for any transition. A message that
// already carries a Seq above every earlier one keeps it; otherwise it is
// renumbered.
func WithHistory(msgs []model.Message) Option {
	return func(c *Controller) { c.history = msgs }
}

// WithUsageSink forwards reply costs to sink.
func WithUsageSink(sink UsageSink) Option {
	return func(c *Controller) { c.usage = sink }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.rec = r }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithIDFunc overrides message id generation.
func WithIDFunc(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

// Controller drives one conversation. Safe for concurrent use.
type Controller struct {
	id      string
	owner   string
	profile Profile
	sched   *schedule.Scheduler
	lib     *replies.Library
	rnd     random.Source
	usage   UsageSink
	rec     Recorder
	log     *slog.Logger
	newID   func() string
	history []model.Message

	mu       sync.Mutex
	seq      clock.Clock
	stamps   clock.Monotonic
	messages []model.Message
	index    map[string]int
	// owed holds local message ids still waiting for a reply, oldest first.
	owed      []string
	replyTask *schedule.Task
	// seenOnDeliver marks answered messages whose delivery had not yet
	// completed when their reply landed.
	seenOnDeliver map[string]bool
	typing        bool
	version       uint64
	closed        bool

	hub *observe.Hub[model.ConversationState]
}

// New builds a controller for conversation id. The library must have a
// catalog for the profile's surface.
func New(id string, profile Profile, sched *schedule.Scheduler, lib *replies.Library, opts ...Option) (*Controller, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, &model.ConfigurationError{Component: "conversation", Reason: "no scheduler"}
	}
	if lib == nil || !lib.Has(profile.Surface) {
		return nil, &model.ConfigurationError{
			Component: "conversation",
			Reason:    "no reply catalog for surface " + string(profile.Surface),
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	c := &Controller{
		id:            id,
		owner:         "conversation:" + id,
		profile:       profile,
		sched:         sched,
		lib:           lib,
		rec:           nopRecorder{},
		newID:         uuid.NewString,
		index:         make(map[string]int),
		seenOnDeliver: make(map[string]bool),
		hub:           observe.NewHub[model.ConversationState](),
	}
	for _, o := range opts {
		o(c)
	}
	if c.rnd == nil {
		c.rnd = random.New(0)
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	c.log = c.log.With("component", "conversation", "conversation_id", id, "surface", string(profile.Surface))

	for _, m := range c.history {
		if m.ID == "" {
			m.ID = c.newID()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = c.stamps.Stamp(sched.Now())
		} else {
			c.stamps.Observe(m.CreatedAt)
		}
		if m.Seq > c.seq.Value() {
			c.seq.Set(m.Seq)
		} else {
			m.Seq = c.seq.Tick()
		}
		c.index[m.ID] = len(c.messages)
		c.messages = append(c.messages, m)
	}
	c.history = nil
	c.version = 1
	c.hub.Publish(c.version, c.stateLocked())
	return c, nil
}

// ID returns the conversation id.
func (c *Controller) ID() string { return c.id }

// Surface returns the surface this controller serves.
func (c *Controller) Surface() model.Surface { return c.profile.Surface }

// Submit appends a local message and schedules its lifecycle and a reply.
// Whitespace-only text is rejected with a *model.ValidationError and
// changes nothing.
func (c *Controller) Submit(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		c.rec.SubmitRejected(c.profile.Surface)
		return "", &model.ValidationError{Field: "text", Reason: "empty or whitespace-only"}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrClosed
	}
	m := c.appendLocked(model.Message{
		ID:      c.newID(),
		Origin:  model.OriginLocal,
		Content: text,
		Status:  model.StatusPending,
	})
	id := m.ID
	c.owed = append(c.owed, id)
	c.typing = true

	p := c.profile
	c.sched.After(c.owner, "sent:"+id, p.SentAfter, func() { c.advance(id, model.StatusSent) })
	c.sched.After(c.owner, "delivered:"+id, p.SentAfter+p.DeliveredAfter, func() { c.advance(id, model.StatusDelivered) })
	if c.replyTask == nil {
		c.scheduleReplyLocked()
	}
	st := c.bumpLocked()
	c.mu.Unlock()

	c.log.Debug("message submitted", "message_id", id, "owed", len(c.owed))
	c.rec.MessageAppended(c.profile.Surface, model.OriginLocal)
	c.hub.Publish(st.Version, st)
	return id, nil
}

// State returns a snapshot of the conversation.
func (c *Controller) State() model.ConversationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Subscribe registers fn for state changes. fn receives the current state
// immediately. Returns an unsubscribe func.
func (c *Controller) Subscribe(fn func(model.ConversationState)) func() {
	return c.hub.Subscribe(fn)
}

// Close cancels every outstanding transition and reply. The state is left
// as it was; nothing is appended afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.replyTask = nil
	c.mu.Unlock()
	n := c.sched.CancelOwner(c.owner)
	c.log.Debug("conversation closed", "cancelled_tasks", n)
}

func (c *Controller) advance(id string, to model.DeliveryStatus) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	i, ok := c.index[id]
	if !ok || !c.messages[i].Status.CanAdvanceTo(to) {
		c.mu.Unlock()
		c.log.Warn("skipping out-of-order transition", "message_id", id, "to", to.String())
		return
	}
	c.messages[i].Status = to
	if to == model.StatusDelivered && c.seenOnDeliver[id] {
		delete(c.seenOnDeliver, id)
		c.sched.Post(c.owner, "seen:"+id, func() { c.advance(id, model.StatusSeen) })
	}
	st := c.bumpLocked()
	c.mu.Unlock()
	c.hub.Publish(st.Version, st)
}

func (c *Controller) scheduleReplyLocked() {
	c.replyTask = c.sched.AfterJitter(c.owner, "reply", c.profile.ReplyAfter, c.profile.ReplyJitter, c.rnd, c.deliverReply)
}

func (c *Controller) deliverReply() {
	reply, err := c.lib.Select(c.profile.Surface)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.replyTask = nil
	if len(c.owed) == 0 {
		c.typing = false
		st := c.bumpLocked()
		c.mu.Unlock()
		c.hub.Publish(st.Version, st)
		return
	}
	answered := c.owed[0]
	c.owed = c.owed[1:]

	appended := err == nil
	if appended {
		c.appendLocked(model.Message{
			ID:      c.newID(),
			Origin:  model.OriginCounterpart,
			Content: reply.Content,
			Status:  model.StatusSeen,
			Cost:    reply.Cost,
		})
	}
	if c.profile.MarkSeenOnReply {
		if i, ok := c.index[answered]; ok {
			switch c.messages[i].Status {
			case model.StatusDelivered:
				c.messages[i].Status = model.StatusSeen
			case model.StatusPending, model.StatusSent:
				c.seenOnDeliver[answered] = true
			}
		}
	}
	if len(c.owed) > 0 {
		c.scheduleReplyLocked()
	} else {
		c.typing = false
	}
	st := c.bumpLocked()
	c.mu.Unlock()

	if err != nil {
		c.log.Error("reply selection failed", "error", err)
	}
	if appended {
		c.rec.MessageAppended(c.profile.Surface, model.OriginCounterpart)
		if reply.Cost != nil && c.usage != nil {
			c.usage.RecordUsage(c.profile.Surface, *reply.Cost)
		}
	}
	c.hub.Publish(st.Version, st)
}

func (c *Controller) appendLocked(m model.Message) model.Message {
	m.CreatedAt = c.stamps.Stamp(c.sched.Now())
	m.Seq = c.seq.Tick()
	c.index[m.ID] = len(c.messages)
	c.messages = append(c.messages, m)
	return m
}

func (c *Controller) bumpLocked() model.ConversationState {
	c.version++
	return c.stateLocked()
}

func (c *Controller) stateLocked() model.ConversationState {
	msgs := make([]model.Message, len(c.messages))
	copy(msgs, c.messages)
	return model.ConversationState{
		ID:                c.id,
		Surface:           c.profile.Surface,
		Messages:          msgs,
		CounterpartTyping: c.typing,
		Version:           c.version,
	}
}
