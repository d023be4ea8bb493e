// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package actor

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	otelmetric "go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	gerrors "github.com/tochemey/interfaced/errors"
	"github.com/tochemey/interfaced/internal/metric"
	"github.com/tochemey/interfaced/internal/validation"
	"github.com/tochemey/interfaced/internal/xsync"
	"github.com/tochemey/interfaced/log"
	"github.com/tochemey/interfaced/reentrancy"
)

const (
	// DefaultRequestTimeout is the default timeout of Context.Request
	DefaultRequestTimeout = 30 * time.Second
	// DefaultInitMaxRetries is the default number of PreStart attempts
	DefaultInitMaxRetries = 5
	// DefaultInitTimeout is the default time budget of PreStart
	DefaultInitTimeout = time.Second
	// DefaultShutdownTimeout is the default time budget of the system shutdown
	DefaultShutdownTimeout = 30 * time.Second
)

// ActorSystem hosts a set of named actors
type ActorSystem interface {
	// ID returns the unique id of the system instance
	ID() string
	// Name returns the system name
	Name() string
	// Start starts the actor system
	Start(ctx context.Context) error
	// Stop gracefully stops every actor then the system
	Stop(ctx context.Context) error
	// Running reports whether the system is started
	Running() bool
	// Spawn creates and starts an actor
	Spawn(ctx context.Context, name string, actor Actor, opts ...SpawnOption) (*PID, error)
	// ActorOf returns the running actor with the given name
	ActorOf(name string) (*PID, error)
	// Actors returns the running actors
	Actors() []*PID
	// NumActors returns the number of running actors
	NumActors() int
	// Logger returns the system logger
	Logger() log.Logger
}

type actorSystem struct {
	id                  string
	name                string
	logger              log.Logger
	requestTimeout      time.Duration
	actorInitMaxRetries int
	actorInitTimeout    time.Duration
	shutdownTimeout     time.Duration
	reentrancy          *reentrancy.Reentrancy
	meterProvider       otelmetric.MeterProvider
	dispatchMetric      *metric.DispatchMetric

	actors  *xsync.Map[string, *PID]
	waiter  *RequestWaiter
	pidSeq  atomic.Uint64
	started atomic.Bool
}

var _ ActorSystem = (*actorSystem)(nil)

// NewActorSystem creates an actor system
func NewActorSystem(name string, opts ...Option) (ActorSystem, error) {
	system := &actorSystem{
		id:                  uuid.NewString(),
		name:                name,
		logger:              log.DefaultLogger,
		requestTimeout:      DefaultRequestTimeout,
		actorInitMaxRetries: DefaultInitMaxRetries,
		actorInitTimeout:    DefaultInitTimeout,
		shutdownTimeout:     DefaultShutdownTimeout,
		reentrancy:          reentrancy.New(),
		actors:              xsync.NewMap[string, *PID](),
		waiter:              NewRequestWaiter(),
	}

	for _, opt := range opts {
		opt.Apply(system)
	}

	if err := validation.New(validation.FailFast()).
		AddAssertion(name != "", gerrors.ErrNameRequired.Error()).
		AddAssertion(system.logger != nil, "logger is required").
		AddAssertion(system.reentrancy != nil, "reentrancy policy is required").
		AddAssertion(system.actorInitTimeout > 0, "actor init timeout must be positive").
		AddAssertion(system.shutdownTimeout > 0, "shutdown timeout must be positive").
		Validate(); err != nil {
		return nil, err
	}

	if err := system.reentrancy.Validate(); err != nil {
		return nil, err
	}

	return system, nil
}

func (x *actorSystem) ID() string {
	return x.id
}

func (x *actorSystem) Name() string {
	return x.name
}

func (x *actorSystem) Logger() log.Logger {
	return x.logger
}

func (x *actorSystem) Running() bool {
	return x.started.Load()
}

func (x *actorSystem) Start(context.Context) error {
	if x.started.Load() {
		return nil
	}

	if x.meterProvider != nil {
		dispatchMetric, err := metric.NewDispatchMetric(metric.NewProvider(x.meterProvider).Meter())
		if err != nil {
			return err
		}
		x.dispatchMetric = dispatchMetric
	}

	x.started.Store(true)
	x.logger.Infof("actor system %s (%s) started", x.name, x.id)
	return nil
}

func (x *actorSystem) Stop(ctx context.Context) error {
	if !x.started.Swap(false) {
		return nil
	}

	x.logger.Infof("actor system %s is shutting down", x.name)
	ctx, cancel := context.WithTimeout(ctx, x.shutdownTimeout)
	defer cancel()

	var (
		errs   error
		eg, _  = errgroup.WithContext(ctx)
		errsCh = make(chan error, x.actors.Len())
	)

	for _, pid := range x.actors.Values() {
		eg.Go(func() error {
			if err := pid.GracefulStop(ctx); err != nil {
				errsCh <- fmt.Errorf("failed to stop actor %s: %w", pid.Name(), err)
			}
			return nil
		})
	}

	_ = eg.Wait()
	close(errsCh)
	for err := range errsCh {
		errs = multierr.Append(errs, err)
	}

	if halted := x.waiter.HaltAll(nil); halted > 0 {
		x.logger.Debugf("actor system %s halted %d pending requests", x.name, halted)
	}

	x.actors.Reset()
	x.logger.Infof("actor system %s stopped", x.name)
	return errs
}

func (x *actorSystem) Spawn(ctx context.Context, name string, actor Actor, opts ...SpawnOption) (*PID, error) {
	if !x.started.Load() {
		return nil, gerrors.ErrActorSystemNotStarted
	}

	if name == "" {
		return nil, gerrors.ErrNameRequired
	}

	if isNil(actor) {
		return nil, fmt.Errorf("%w: nil actor", gerrors.ErrInvalidHandler)
	}

	table := actor.Handlers()
	if table == nil {
		return nil, fmt.Errorf("%w: actor %s has no handler table", gerrors.ErrInvalidHandler, name)
	}

	if actorType := reflect.TypeOf(actor); !actorType.AssignableTo(table.TargetType()) {
		return nil, fmt.Errorf("%w: table of %s cannot dispatch to %s", gerrors.ErrInvalidHandler, table.TargetType(), actorType)
	}

	config := newSpawnConfig(x, opts...)
	if config.reentrancy == nil {
		config.reentrancy = reentrancy.New()
	}
	if err := config.reentrancy.Validate(); err != nil {
		return nil, err
	}

	pid := newPID(x, name, actor, config)
	if !x.actors.SetIfAbsent(name, pid) {
		return nil, gerrors.NewErrActorAlreadyExists(name)
	}

	if err := pid.init(ctx); err != nil {
		x.actors.Delete(name)
		return nil, err
	}

	pid.post(&envelope{message: &startSignal{}})
	return pid, nil
}

func (x *actorSystem) ActorOf(name string) (*PID, error) {
	if !x.started.Load() {
		return nil, gerrors.ErrActorSystemNotStarted
	}

	pid, ok := x.actors.Get(name)
	if !ok || !pid.IsRunning() {
		return nil, gerrors.NewErrActorNotFound(name)
	}
	return pid, nil
}

func (x *actorSystem) Actors() []*PID {
	actors := make([]*PID, 0, x.actors.Len())
	for _, pid := range x.actors.Values() {
		if pid.IsRunning() {
			actors = append(actors, pid)
		}
	}
	return actors
}

func (x *actorSystem) NumActors() int {
	return len(x.Actors())
}

// deregister removes a stopped actor, unless its name was already taken by a new one
func (x *actorSystem) deregister(pid *PID) {
	if current, ok := x.actors.Get(pid.name); ok && current == pid {
		x.actors.Delete(pid.name)
	}
}
