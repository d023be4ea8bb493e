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
	"time"

	"github.com/tochemey/interfaced/log"
	"github.com/tochemey/interfaced/reentrancy"
)

// spawnConfig defines the configuration to apply when creating an actor
type spawnConfig struct {
	logger           log.Logger
	reentrancy       *reentrancy.Reentrancy
	restartOnFailure bool
	initMaxRetries   int
	initTimeout      time.Duration
	requestTimeout   time.Duration
}

func newSpawnConfig(system *actorSystem, opts ...SpawnOption) *spawnConfig {
	config := &spawnConfig{
		logger:         system.logger,
		reentrancy:     system.reentrancy,
		initMaxRetries: system.actorInitMaxRetries,
		initTimeout:    system.actorInitTimeout,
		requestTimeout: system.requestTimeout,
	}
	for _, opt := range opts {
		opt.Apply(config)
	}
	return config
}

// SpawnOption is the interface that applies to an actor when it is spawned
type SpawnOption interface {
	// Apply sets the Option value of a config.
	Apply(config *spawnConfig)
}

var _ SpawnOption = spawnOption(nil)

// spawnOption implements the SpawnOption interface.
type spawnOption func(config *spawnConfig)

// Apply implements SpawnOption
func (f spawnOption) Apply(c *spawnConfig) {
	f(c)
}

// WithReentrancy sets the reentrancy policy of the actor
func WithReentrancy(policy *reentrancy.Reentrancy) SpawnOption {
	return spawnOption(func(config *spawnConfig) {
		config.reentrancy = policy
	})
}

// WithRestartOnFailure restarts the actor when a handler fails instead of stopping it.
// Suspended tasks are halted, then PostRestart and OnStart(restarted=true) run.
func WithRestartOnFailure() SpawnOption {
	return spawnOption(func(config *spawnConfig) {
		config.restartOnFailure = true
	})
}

// WithActorLogger sets the logger of the actor
func WithActorLogger(logger log.Logger) SpawnOption {
	return spawnOption(func(config *spawnConfig) {
		config.logger = logger
	})
}

// WithActorRequestTimeout overrides the request timeout of the actor
func WithActorRequestTimeout(timeout time.Duration) SpawnOption {
	return spawnOption(func(config *spawnConfig) {
		config.requestTimeout = timeout
	})
}

// WithInitMaxRetries overrides how many times PreStart is attempted
func WithInitMaxRetries(max int) SpawnOption {
	return spawnOption(func(config *spawnConfig) {
		config.initMaxRetries = max
	})
}
