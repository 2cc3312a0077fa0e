// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package safe

import (
	"errors"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// requireStack asserts that the error is a RecoveredError whose stack
// includes the named function.
func requireStack(r *require.Assertions, err error, funcName string) {
	var recovered *RecoveredError
	r.ErrorAs(err, &recovered)
	r.NotEmpty(recovered.Stack)

	frames := runtime.CallersFrames(recovered.Stack)
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.Function, funcName) {
			return
		}
		if !more {
			break
		}
	}
	r.Failf("missing frame", "expected stack to contain %q, got:\n%s",
		funcName, recovered.Error())
}

func TestCall(t *testing.T) {
	r := require.New(t)

	r.NoError(Call(func() {}))

	boom := errors.New("boom")
	err := Call(func() { panic(boom) })
	r.ErrorIs(err, boom)
	requireStack(r, err, "TestCall")

	err = Call(func() { panic("yikes") })
	r.ErrorContains(err, "panic: yikes")
	requireStack(r, err, "TestCall")
}

func TestCallE(t *testing.T) {
	r := require.New(t)

	r.NoError(CallE(func() error { return nil }))

	boom := errors.New("boom")
	err := CallE(func() error { return boom })
	r.ErrorIs(err, boom)
	var recovered *RecoveredError
	r.False(errors.As(err, &recovered))

	kaboom := errors.New("kaboom")
	err = CallE(func() error { panic(kaboom) })
	r.ErrorIs(err, kaboom)
	requireStack(r, err, "TestCallE")

	err = CallE(func() (err error) {
		defer func() { panic(kaboom) }()
		return boom
	})
	r.ErrorIs(err, kaboom)
	r.NotErrorIs(err, boom) // Panic masks setting return values.
	requireStack(r, err, "TestCallE")
}
