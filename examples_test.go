// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

package waker_test

import (
	"context"
	"fmt"
	"time"

	"vawter.tech/waker"
)

func Example() {
	tx, rx := waker.New[int]()

	// These values are sent faster than the receiver can take them,
	// so only the last one is delivered.
	tx.Send(1)
	tx.Send(2)
	tx.Send(3)

	err := rx.Run(context.Background(), func(val int, intr *waker.Interrupter) {
		fmt.Println("received", val)
		tx.Terminate()
		fmt.Println("interrupted", intr.Interrupted())
	})
	if err != nil {
		panic(err)
	}

	// Output:
	// received 3
	// interrupted true
}

func ExampleWithHoldoff() {
	tx, rx := waker.New[string]()

	go func() {
		// A burst of notifications for the same save.
		tx.Send("create")
		tx.Send("write")
		tx.Send("chmod")
		time.Sleep(100 * time.Millisecond)
		tx.Terminate()
	}()

	err := rx.Run(context.Background(), func(op string, _ *waker.Interrupter) {
		fmt.Println(op)
	}, waker.WithHoldoff(20*time.Millisecond))
	if err != nil {
		panic(err)
	}

	// Output:
	// chmod
}

func ExampleReceiver_RunMultithreaded() {
	tx, rx := waker.New[int]()
	tx.Send(4)

	err := rx.RunMultithreaded(context.Background(), func(workers int, intr waker.MultiInterrupter) {
		done := make(chan struct{})
		for range workers {
			intr := intr.Clone()
			go func() {
				defer func() { done <- struct{}{} }()
				for !intr.Interrupted() {
					time.Sleep(time.Millisecond)
				}
			}()
		}
		// All clones observe the termination request.
		tx.Terminate()
		for range workers {
			<-done
		}
		fmt.Println("all workers stopped")
	})
	if err != nil {
		panic(err)
	}

	// Output:
	// all workers stopped
}
