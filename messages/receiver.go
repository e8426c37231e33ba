package messages

import (
	"fmt"

	"github.com/richinsley/gobulge/logging"
)

// ApplyFunc installs a validated replacement. An error means the payload was
// well formed JSON but unusable (for example an undecodable image).
type ApplyFunc func(Replacement) error

// Receiver applies every validated message, so the latest valid sender wins.
// Rejected messages are logged and otherwise ignored.
type Receiver struct {
	validator *Validator
	apply     ApplyFunc
	log       logging.Logger
	accepted  int
	rejected  int
}

func NewReceiver(v *Validator, apply ApplyFunc, log logging.Logger) *Receiver {
	return &Receiver{validator: v, apply: apply, log: logging.OrNop(log)}
}

// Handle validates and applies m. It must run on the render thread.
func (r *Receiver) Handle(m Message) bool {
	rep, err := r.validator.Validate(m)
	if err == nil {
		if applyErr := r.apply(rep); applyErr != nil {
			err = &ValidationError{MessageID: m.ID, Origin: m.Origin, Err: fmt.Errorf("%w: %v", ErrMalformedPayload, applyErr)}
		}
	}
	if err != nil {
		r.rejected++
		r.log.Warnf("%v", err)
		return false
	}
	r.accepted++
	r.log.Infof("content replaced by message %s from %s", m.ID, m.Origin)
	return true
}

func (r *Receiver) Accepted() int {
	return r.accepted
}

func (r *Receiver) Rejected() int {
	return r.rejected
}

// Forward moves messages from ch onto the render thread through post until ch
// closes or post refuses (its owner shut down).
func Forward(ch Channel, post func(func()) bool, r *Receiver) {
	for m := range ch.Messages() {
		m := m
		if !post(func() { r.Handle(m) }) {
			return
		}
	}
}
