// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud provides components for interacting with external services.
// This file defines a Pub/Sub listener that hands every message to a
// `cor.Command`. In this application it feeds published search events into
// the search analytics workflow.
//
// Logic Flow:
//  1. A listener is created for a subscription; the command is attached later,
//     once the workflow that consumes the messages has been built.
//  2. `Listen` starts a goroutine that blocks in `Receive` until the context
//     is cancelled.
//  3. Each message body is placed in a fresh chain context under `CtxIn`.
//  4. The message is acknowledged only when the command records no errors;
//     otherwise it is left for redelivery.
package cloud

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/jaycherian/movie-mixer/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PubSubListener connects a subscription to the command that processes its
// messages.
type PubSubListener struct {
	client       *pubsub.Client
	subscription *pubsub.Subscription
	command      cor.Command
	timeout      time.Duration // Per-message processing timeout, 0 for none.
}

func NewPubSubListener(
	pubsubClient *pubsub.Client,
	subscriptionID string,
	command cor.Command,
) (cmd *PubSubListener, err error) {
	sub := pubsubClient.Subscription(subscriptionID)
	cmd = &PubSubListener{
		client:       pubsubClient,
		subscription: sub,
		command:      command,
	}
	return cmd, nil
}

// SetCommand attaches the processing command if none has been set yet.
func (m *PubSubListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// SetTimeout bounds the processing time of each message.
func (m *PubSubListener) SetTimeout(timeout time.Duration) {
	m.timeout = timeout
}

// Listen starts receiving in the background until ctx is cancelled.
func (m *PubSubListener) Listen(ctx context.Context) {
	slog.Info("listening", "subscription", m.subscription.ID())

	go func() {
		tracer := otel.Tracer("message-listener")

		err := m.subscription.Receive(ctx, func(msgCtx context.Context, msg *pubsub.Message) {
			spanCtx, span := tracer.Start(msgCtx, "receive-message")
			defer span.End()
			span.SetAttributes(attribute.String("msg", string(msg.Data)))

			if m.timeout > 0 {
				var cancel context.CancelFunc
				spanCtx, cancel = context.WithTimeout(spanCtx, m.timeout)
				defer cancel()
			}

			chainCtx := cor.NewBaseContextWith(spanCtx)
			chainCtx.Add(cor.CtxIn, string(msg.Data))

			m.command.Execute(chainCtx)

			if !chainCtx.HasErrors() {
				span.SetStatus(codes.Ok, "success")
				msg.Ack()
				return
			}
			span.SetStatus(codes.Error, "failed")
			for name, e := range chainCtx.GetErrors() {
				slog.Error("error executing chain", "command", name, "error", e)
			}
			// Not acked: redelivered per the subscription's retry policy.
		})
		if err != nil {
			slog.Error("error receiving data", "subscription", m.subscription.ID(), "error", err)
		}
	}()
}
