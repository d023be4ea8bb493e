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

type pidState uint32

const (
	preStartingState pidState = 1 << iota
	startingState
	runningState
	restartingState
	gracefulStoppingState
	stoppingState
	stoppedState
)

// LifecycleState is the observable lifecycle state of an actor
type LifecycleState int

const (
	// Constructed means the PID exists but PreStart did not run yet
	Constructed LifecycleState = iota
	// PreStarting means PreStart is running
	PreStarting
	// Starting means OnStart is running
	Starting
	// Running means the actor processes messages
	Running
	// Restarting means the actor is recovering from a failure
	Restarting
	// GracefulStopping means the actor drains its tasks before stopping
	GracefulStopping
	// Stopping means the actor cancels its tasks and tears down
	Stopping
	// Stopped means the actor is terminated
	Stopped
)

// String returns the state name
func (s LifecycleState) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case PreStarting:
		return "pre-starting"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Restarting:
		return "restarting"
	case GracefulStopping:
		return "graceful-stopping"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// State returns the lifecycle state of the actor
func (pid *PID) State() LifecycleState {
	switch {
	case pid.isStateSet(stoppedState):
		return Stopped
	case pid.isStateSet(stoppingState):
		return Stopping
	case pid.isStateSet(gracefulStoppingState):
		return GracefulStopping
	case pid.isStateSet(restartingState):
		return Restarting
	case pid.isStateSet(startingState):
		return Starting
	case pid.isStateSet(runningState):
		return Running
	case pid.isStateSet(preStartingState):
		return PreStarting
	default:
		return Constructed
	}
}

func (pid *PID) isStateSet(state pidState) bool {
	return pid.state.Load()&uint32(state) != 0
}

func (pid *PID) setState(state pidState, enabled bool) {
	for {
		current := pid.state.Load()
		var desired uint32
		if enabled {
			desired = current | uint32(state)
		} else {
			desired = current &^ uint32(state)
		}
		if desired == current {
			return
		}
		if pid.state.CompareAndSwap(current, desired) {
			return
		}
	}
}
