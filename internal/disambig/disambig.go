// Package disambig models the human-in-the-loop boundary: when a location
// search produces several serious candidates, the engine raises a question
// and suspends until the conversation layer reports the user's choice.
// Asking never blocks; answers arrive through a separate callback.
package disambig

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrPending means the question was delivered and the flow must
	// suspend until the answer callback fires.
	ErrPending = errors.New("disambiguation pending")

	// ErrNoSession means no conversation channel is connected for the
	// session, so there is nobody to ask.
	ErrNoSession = errors.New("no conversation session connected")

	// ErrUnknownRequest rejects answers to questions never asked.
	ErrUnknownRequest = errors.New("unknown disambiguation request")
)

// Option is one choice presented to the user.
type Option struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Request is a question with its candidate options.
type Request struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []Option `json:"options"`
}

// Answer carries the user's selection back.
type Answer struct {
	SelectedOptionID string `json:"selected_option_id"`
}

// Asker delivers a disambiguation question to whatever channel reaches the
// user. Implementations return ErrPending on successful delivery: the
// answer always comes back asynchronously.
type Asker interface {
	Ask(sessionKey string, req Request) error
}

// DefaultPendingTTL bounds how long an unanswered question, or an answer
// nobody collected, stays tracked. A conversation that goes quiet for this
// long has moved on; its question is dead.
const DefaultPendingTTL = 5 * time.Minute

type trackedRequest struct {
	req     Request
	expires time.Time
}

type trackedAnswer struct {
	answer  Answer
	expires time.Time
}

// Pending tracks outstanding questions and collects their answers. Entries
// expire after the TTL so abandoned sessions cannot accumulate state.
type Pending struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time // injectable for tests
	requests map[string]map[string]trackedRequest // session -> request id
	answers  map[string]map[string]trackedAnswer
}

func NewPending() *Pending {
	return NewPendingWithTTL(DefaultPendingTTL)
}

func NewPendingWithTTL(ttl time.Duration) *Pending {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &Pending{
		ttl:      ttl,
		now:      time.Now,
		requests: make(map[string]map[string]trackedRequest),
		answers:  make(map[string]map[string]trackedAnswer),
	}
}

// sweep drops expired entries. Called under the lock by every operation;
// the maps hold at most a handful of live questions, so a full pass is
// cheap enough to skip a background goroutine.
func (p *Pending) sweep() {
	now := p.now()
	for session, reqs := range p.requests {
		for id, tr := range reqs {
			if now.After(tr.expires) {
				delete(reqs, id)
			}
		}
		if len(reqs) == 0 {
			delete(p.requests, session)
		}
	}
	for session, answers := range p.answers {
		for id, ta := range answers {
			if now.After(ta.expires) {
				delete(answers, id)
			}
		}
		if len(answers) == 0 {
			delete(p.answers, session)
		}
	}
}

// Track records an outstanding question for a session.
func (p *Pending) Track(sessionKey string, req Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweep()
	if p.requests[sessionKey] == nil {
		p.requests[sessionKey] = make(map[string]trackedRequest)
	}
	p.requests[sessionKey][req.ID] = trackedRequest{req: req, expires: p.now().Add(p.ttl)}
}

// Resolve records the user's answer to a tracked question. The option must
// be one of the question's own options; expired questions read as unknown.
func (p *Pending) Resolve(sessionKey, requestID, optionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweep()
	tr, ok := p.requests[sessionKey][requestID]
	if !ok {
		return ErrUnknownRequest
	}
	req := tr.req
	valid := false
	for _, opt := range req.Options {
		if opt.ID == optionID {
			valid = true
			break
		}
	}
	if !valid {
		return errors.New("selected option is not among the offered choices")
	}
	delete(p.requests[sessionKey], requestID)
	if p.answers[sessionKey] == nil {
		p.answers[sessionKey] = make(map[string]trackedAnswer)
	}
	p.answers[sessionKey][requestID] = trackedAnswer{
		answer:  Answer{SelectedOptionID: optionID},
		expires: p.now().Add(p.ttl),
	}
	return nil
}

// Answer returns and consumes a recorded answer, if present.
func (p *Pending) Answer(sessionKey, requestID string) (Answer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweep()
	ta, ok := p.answers[sessionKey][requestID]
	if ok {
		delete(p.answers[sessionKey], requestID)
	}
	return ta.answer, ok
}
