// Package gatewaytest provides an in-memory ledger double for gateway tests.
//
// The Ledger emulates the event ticketing chaincode closely enough for
// HTTP-level tests: records are stored as JSON under their id, writes are
// serialized, reads never touch state, and every call and session is
// recorded so tests can assert on dispatch and resource handling.
package gatewaytest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/accordsai/eventledger/pkg/gateway"
)

type Call struct {
	Kind     gateway.CallKind
	Identity string
	Channel  string
	Contract string
	Name     string
	Args     []string
}

type Event struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	Location string `json:"location"`
}

type Ticket struct {
	ID        string `json:"id"`
	EventID   string `json:"eventId"`
	EventName string `json:"eventName"`
	Holder    string `json:"holder"`
	Status    string `json:"status"`
}

// Hook replaces the chaincode for one call kind. Hooks run outside the
// ledger lock and may call Apply to fall through to the chaincode.
type Hook func(call Call) ([]byte, error)

type Ledger struct {
	SubmitHook   Hook
	EvaluateHook Hook
	// ResolveErr makes every Resolve fail after the identity check.
	ResolveErr error
	CloseErr   error

	mu         sync.Mutex
	identities map[string]bool
	state      map[string][]byte
	events     map[string]bool
	calls      []Call
	opened     int
	closed     int
}

func New(identities ...string) *Ledger {
	l := &Ledger{
		identities: make(map[string]bool),
		state:      make(map[string][]byte),
		events:     make(map[string]bool),
	}
	for _, id := range identities {
		l.identities[id] = true
	}
	return l
}

func (l *Ledger) Resolve(ctx context.Context, identity, channel, contract string) (gateway.Session, error) {
	l.mu.Lock()
	known := l.identities[identity]
	l.mu.Unlock()
	if !known {
		return nil, fmt.Errorf("%w: %q", gateway.ErrIdentityNotFound, identity)
	}
	if l.ResolveErr != nil {
		return nil, &gateway.ConnectionError{Op: "connect", Err: l.ResolveErr}
	}
	l.mu.Lock()
	l.opened++
	l.mu.Unlock()
	return &session{ledger: l, identity: identity, channel: channel, contract: contract}, nil
}

// Sessions reports how many sessions were opened and closed.
func (l *Ledger) Sessions() (opened, closed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opened, l.closed
}

func (l *Ledger) Calls() []Call {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Call, len(l.calls))
	copy(out, l.calls)
	return out
}

// Snapshot copies the world state.
func (l *Ledger) Snapshot() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]string, len(l.state))
	for k, v := range l.state {
		out[k] = string(v)
	}
	return out
}

func (l *Ledger) PutEvent(e Event) {
	b, _ := json.Marshal(e)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state[e.ID] = b
	l.events[e.ID] = true
}

// Apply runs the chaincode function for call under the ledger lock.
func (l *Ledger) Apply(call Call) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if call.Kind == gateway.Evaluate {
		return l.query(call.Name, call.Args)
	}
	return l.invoke(call.Name, call.Args)
}

type session struct {
	ledger   *Ledger
	identity string
	channel  string
	contract string
	closed   bool
}

func (s *session) SubmitTransaction(name string, args ...string) ([]byte, error) {
	return s.call(gateway.Submit, name, args)
}

func (s *session) EvaluateTransaction(name string, args ...string) ([]byte, error) {
	return s.call(gateway.Evaluate, name, args)
}

func (s *session) call(kind gateway.CallKind, name string, args []string) ([]byte, error) {
	if s.closed {
		return nil, errors.New("session is closed")
	}
	call := Call{
		Kind: kind, Identity: s.identity, Channel: s.channel, Contract: s.contract,
		Name: name, Args: append([]string(nil), args...),
	}
	l := s.ledger
	l.mu.Lock()
	l.calls = append(l.calls, call)
	l.mu.Unlock()

	hook := l.SubmitHook
	if kind == gateway.Evaluate {
		hook = l.EvaluateHook
	}
	if hook != nil {
		return hook(call)
	}
	return l.Apply(call)
}

func (s *session) Close() error {
	if s.closed {
		return errors.New("session already closed")
	}
	s.closed = true
	s.ledger.mu.Lock()
	s.ledger.closed++
	s.ledger.mu.Unlock()
	return s.ledger.CloseErr
}

func (l *Ledger) invoke(name string, args []string) ([]byte, error) {
	switch name {
	case "CreateEvent":
		if err := arity(name, args, 4); err != nil {
			return nil, err
		}
		return l.putEvent(Event{ID: args[0], Name: args[1], Date: args[2], Location: args[3]})
	case "UpdateEvent":
		if err := arity(name, args, 4); err != nil {
			return nil, err
		}
		if !l.events[args[0]] {
			return nil, fmt.Errorf("event %s does not exist", args[0])
		}
		return l.putEvent(Event{ID: args[0], Name: args[1], Date: args[2], Location: args[3]})
	case "DeleteEvent", "DeleteTicket":
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		delete(l.state, args[0])
		delete(l.events, args[0])
		return []byte("deleted " + args[0]), nil
	case "CreateTicket":
		if err := arity(name, args, 5); err != nil {
			return nil, err
		}
		return l.createTickets(args[0], args[1], args[2], args[3], args[4])
	case "UpdateTicketStatus":
		if err := arity(name, args, 2); err != nil {
			return nil, err
		}
		if l.events[args[0]] {
			return nil, fmt.Errorf("ticket %s does not exist", args[0])
		}
		var t Ticket
		if err := l.read("ticket", args[0], &t); err != nil {
			return nil, err
		}
		t.Status = args[1]
		b, _ := json.Marshal(t)
		l.state[t.ID] = b
		return b, nil
	case "ReadEvent", "ReadTicket", "GetAvailableEvents":
		return l.query(name, args)
	default:
		return nil, fmt.Errorf("function %s not found in contract", name)
	}
}

func (l *Ledger) query(name string, args []string) ([]byte, error) {
	switch name {
	case "ReadEvent":
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		if !l.events[args[0]] {
			return nil, fmt.Errorf("event %s does not exist", args[0])
		}
		return append([]byte(nil), l.state[args[0]]...), nil
	case "ReadTicket":
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		b, ok := l.state[args[0]]
		if !ok || l.events[args[0]] {
			return nil, fmt.Errorf("ticket %s does not exist", args[0])
		}
		return append([]byte(nil), b...), nil
	case "GetAvailableEvents":
		if err := arity(name, args, 0); err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(l.events))
		for id := range l.events {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		events := make([]json.RawMessage, 0, len(ids))
		for _, id := range ids {
			events = append(events, l.state[id])
		}
		return json.Marshal(events)
	default:
		return nil, fmt.Errorf("function %s not found in contract", name)
	}
}

func (l *Ledger) putEvent(e Event) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	l.state[e.ID] = b
	l.events[e.ID] = true
	return b, nil
}

func (l *Ledger) createTickets(eventID, eventName, rawCount, holder, status string) ([]byte, error) {
	if !l.events[eventID] {
		return nil, fmt.Errorf("event %s does not exist", eventID)
	}
	count, err := strconv.Atoi(rawCount)
	if err != nil {
		return nil, fmt.Errorf("count %q is not an integer", rawCount)
	}
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		t := Ticket{
			ID:        fmt.Sprintf("%s-%s-%d", eventID, holder, i+1),
			EventID:   eventID,
			EventName: eventName,
			Holder:    holder,
			Status:    status,
		}
		b, _ := json.Marshal(t)
		l.state[t.ID] = b
		ids = append(ids, t.ID)
	}
	return json.Marshal(ids)
}

func (l *Ledger) read(kind, id string, dst any) error {
	b, ok := l.state[id]
	if !ok {
		return fmt.Errorf("%s %s does not exist", kind, id)
	}
	return json.Unmarshal(b, dst)
}

func arity(name string, args []string, want int) error {
	if len(args) != want {
		return fmt.Errorf("incorrect number of params for %s: expected %d, received %d", name, want, len(args))
	}
	return nil
}
