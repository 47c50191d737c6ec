// Package scheduler runs periodic maintenance: the invitation expiry
// sweep that moves overdue pending/sent invitations to their terminal
// expired status. Expiry checks never depend on this sweep; it only
// keeps the stored status column honest.
package scheduler

import (
	"context"
	"time"

	invitationdomain "github.com/salestrackpro/salestrack/internal/invitation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultSweepInterval = time.Hour

type Params struct {
	fx.In

	Log         *zap.Logger
	Invitations invitationdomain.Service
}

type Scheduler struct {
	log         *zap.Logger
	invitations invitationdomain.Service
	interval    time.Duration
}

func New(p Params) *Scheduler {
	return &Scheduler{
		log:         p.Log.Named("scheduler"),
		invitations: p.Invitations,
		interval:    defaultSweepInterval,
	}
}

// RunForever sweeps on a fixed interval until the context is cancelled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scheduler) sweep(ctx context.Context) {
	expired, err := s.invitations.ExpireOverdue(ctx)
	if err != nil {
		s.log.Warn("invitation expiry sweep failed", zap.Error(err))
		return
	}
	if expired > 0 {
		s.log.Info("expired overdue invitations", zap.Int64("count", expired))
	}
}
