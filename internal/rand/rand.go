// Copyright © 2018 One Concern

// Package rand generates random test data.
package rand

import (
	"bytes"
	"math/rand"
	"sync"
	"time"
)

var (
	onceSource sync.Once
	rgen       *rand.Rand
	randMutex  sync.Mutex

	// "a" pads the alphabet over the 256 values of a byte, so it is slightly more frequent than other signs
	letters = bytes.Repeat([]byte("abcdefghijklmnopqrstuvwxyz0123456789a"), 7)
)

func seed() {
	rgen = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec
}

// Bytes returns a random slice of bytes, which does not compress
func Bytes(n int) []byte {
	onceSource.Do(seed)
	buf := make([]byte, n)
	randMutex.Lock()
	_, _ = rgen.Read(buf)
	randMutex.Unlock()
	return buf
}

// LetterString returns a random string picked in the [0-9]|[a-z] range
func LetterString(n int) string {
	buf := Bytes(n)
	for i, b := range buf {
		buf[i] = letters[b]
	}
	return string(buf)
}
