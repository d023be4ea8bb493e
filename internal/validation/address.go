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
package validation

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ErrInvalidAddress is wrapped by every error of AddressValidator
var ErrInvalidAddress = errors.New("invalid address")

// AddressValidator checks a host:port listen or dial address.
// The host may be empty, meaning every interface.
type AddressValidator struct {
	address string
}

var _ Validator = (*AddressValidator)(nil)

// NewAddressValidator creates an AddressValidator
func NewAddressValidator(address string) *AddressValidator {
	return &AddressValidator{address: address}
}

// Validate implements Validator
func (a *AddressValidator) Validate() error {
	host, port, err := net.SplitHostPort(strings.TrimSpace(a.address))
	if err != nil {
		return a.invalid(err.Error())
	}

	if strings.ContainsAny(host, " /\\") {
		return a.invalid("malformed host")
	}

	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return a.invalid("port must be within [0, 65535]")
	}
	return nil
}

func (a *AddressValidator) invalid(reason string) error {
	return fmt.Errorf("%w %q: %s", ErrInvalidAddress, a.address, reason)
}
