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

//go:build linux

package tcp

import (
	"fmt"
	"syscall"
)

const (
	// soReusePort is the Linux socket option SO_REUSEPORT.
	soReusePort = 0x0F
	// tcpFastOpen is the Linux socket option TCP_FASTOPEN.
	tcpFastOpen = 0x17
	// defaultFastOpenQueueLen is the default queue length for TCP Fast Open.
	defaultFastOpenQueueLen = 256
)

// controlFunc configures a raw socket before it is bound
type controlFunc func(network, address string, c syscall.RawConn) error

// applyListenSocketOptions returns a [controlFunc] applying the options of
// config to a listening socket. SO_REUSEADDR is always set by the Go runtime.
// The first failing option aborts the remaining ones.
func applyListenSocketOptions(config *ListenConfig) controlFunc {
	return func(_, _ string, conn syscall.RawConn) error {
		var optErr error
		ctrlErr := conn.Control(func(fd uintptr) {
			if config.SocketReusePort {
				if optErr = setSockOpt(fd, syscall.SOL_SOCKET, soReusePort, 1, "SO_REUSEPORT"); optErr != nil {
					return
				}
			}

			if config.SocketFastOpen {
				qlen := config.SocketFastOpenQueueLen
				if qlen <= 0 {
					qlen = defaultFastOpenQueueLen
				}
				if optErr = setSockOpt(fd, syscall.IPPROTO_TCP, tcpFastOpen, qlen, "TCP_FASTOPEN"); optErr != nil {
					return
				}
			}

			if config.SocketDeferAccept {
				optErr = setSockOpt(fd, syscall.IPPROTO_TCP, syscall.TCP_DEFER_ACCEPT, 1, "TCP_DEFER_ACCEPT")
			}
		})

		if ctrlErr != nil {
			return ctrlErr
		}
		return optErr
	}
}

func setSockOpt(fd uintptr, level, opt, value int, name string) error {
	if err := syscall.SetsockoptInt(int(fd), level, opt, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}
	return nil
}
