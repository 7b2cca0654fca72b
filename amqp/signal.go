package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var ErrInvalidSignal = errors.New("invalid signal")

const (
	MarkSignal = "mark"
	FireSignal = "fire"
)

// Signal is the JSON body of a signal delivery, either
//
//	{"kind":"mark","place":"Close_sensed","token":"Default","count":1}
//	{"kind":"fire","transition":"Close"}
type Signal struct {
	Kind       string `json:"kind"`
	Place      string `json:"place,omitempty"`
	Token      string `json:"token,omitempty"`
	Count      int    `json:"count,omitempty"`
	Transition string `json:"transition,omitempty"`
}

// Target is what signals are applied to, usually a *runner.Runner.
type Target interface {
	MarkPlace(place, token string, count int) error
	FireExternal(transition string) error
}

func Decode(body []byte) (*Signal, error) {
	sig := new(Signal)
	if err := json.Unmarshal(body, sig); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignal, err)
	}
	switch sig.Kind {
	case MarkSignal:
		if sig.Place == "" || sig.Token == "" {
			return nil, fmt.Errorf("%w: mark needs a place and a token", ErrInvalidSignal)
		}
	case FireSignal:
		if sig.Transition == "" {
			return nil, fmt.Errorf("%w: fire needs a transition", ErrInvalidSignal)
		}
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidSignal, sig.Kind)
	}
	return sig, nil
}

type Source struct {
	target Target
	logger *zap.Logger
}

func NewSource(target Target, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{target: target, logger: logger}
}

func (s *Source) Apply(sig *Signal) error {
	switch sig.Kind {
	case MarkSignal:
		return s.target.MarkPlace(sig.Place, sig.Token, sig.Count)
	case FireSignal:
		return s.target.FireExternal(sig.Transition)
	}
	return fmt.Errorf("%w: unknown kind %q", ErrInvalidSignal, sig.Kind)
}

// Serve applies deliveries until the channel closes or ctx is done. Applied
// signals are acked. Signals that cannot be decoded or applied are rejected
// without requeueing.
func (s *Source) Serve(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			if err := s.handle(d); err != nil {
				return err
			}
		}
	}
}

func (s *Source) handle(d amqp.Delivery) error {
	sig, err := Decode(d.Body)
	if err == nil {
		err = s.Apply(sig)
	}
	if err != nil {
		s.logger.Warn("rejecting signal", zap.String("routing_key", d.RoutingKey), zap.Error(err))
		if err := d.Reject(false); err != nil {
			return fmt.Errorf("reject signal: %w", err)
		}
		return nil
	}
	s.logger.Debug("applied signal", zap.String("kind", sig.Kind))
	if err := d.Ack(false); err != nil {
		return fmt.Errorf("ack signal: %w", err)
	}
	return nil
}
