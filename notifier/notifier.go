// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package notifier - poll the store for newly processed transactions
// and deliver each one to the listeners waiting for it
//
// A listener registered under several matching keys receives a single
// update per transaction.  Transaction id watches are removed when
// they fire; address and global watches last until RemoveListener.
package notifier

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/ledgerd/counter"
	"github.com/bitmark-inc/ledgerd/report"
	"github.com/bitmark-inc/ledgerd/transaction"
)

// Source - the queries needed from the store
type Source interface {
	LatestProcessed(ctx context.Context) (int64, error)
	ProcessedSince(ctx context.Context, ts int64) ([]*transaction.Record, error)
}

// Listener - receives transaction updates
type Listener interface {
	ReceiveUpdate(record *transaction.Record, reason transaction.UpdateReason)
}

// a listener that can end, e.g. a terminated dispatch unit
type terminable interface {
	Terminated() bool
}

// Reporter - called after every successful poll with heap in use (MB)
type Reporter func(memory float64)

type listenerSet map[Listener]struct{}
type keySet map[Key]struct{}

// Notifier - listener index and poll state
type Notifier struct {
	log      *logger.L
	source   Source
	interval time.Duration
	reporter Reporter

	sync.Mutex
	byKey      map[Key]listenerSet
	byListener map[Listener]keySet

	// written only by the poll holding updating
	updating  int32
	cursor    int64
	hasCursor int32

	failures counter.Counter
}

// New - create a notifier; reporter may be nil
func New(source Source, interval time.Duration, reporter Reporter) *Notifier {
	return &Notifier{
		log:        logger.New("notifier"),
		source:     source,
		interval:   interval,
		reporter:   reporter,
		byKey:      make(map[Key]listenerSet),
		byListener: make(map[Listener]keySet),
	}
}

// AddListener - register a listener under a key, no change if it is
// already registered under that key or has terminated
func (n *Notifier) AddListener(l Listener, key Key) {
	n.Lock()
	defer n.Unlock()

	// checked under the lock: a listener's removal on termination takes
	// the same lock after the flag is set
	if t, ok := l.(terminable); ok && t.Terminated() {
		n.log.Debugf("terminated listener not added to: %s", key)
		return
	}

	keys, ok := n.byListener[l]
	if !ok {
		keys = make(keySet)
		n.byListener[l] = keys
	}
	if _, ok := keys[key]; ok {
		return
	}
	keys[key] = struct{}{}

	listeners, ok := n.byKey[key]
	if !ok {
		listeners = make(listenerSet)
		n.byKey[key] = listeners
	}
	listeners[l] = struct{}{}
}

// RemoveListener - remove every registration of a listener
func (n *Notifier) RemoveListener(l Listener) {
	n.Lock()
	defer n.Unlock()

	for key := range n.byListener[l] {
		n.unlink(key, l)
	}
	delete(n.byListener, l)
}

// must hold lock; removes only the key to listener direction
func (n *Notifier) unlink(key Key, l Listener) {
	listeners := n.byKey[key]
	delete(listeners, l)
	if 0 == len(listeners) {
		delete(n.byKey, key)
	}
}

// Keys - keys a listener is registered under
func (n *Notifier) Keys(l Listener) []Key {
	n.Lock()
	defer n.Unlock()

	keys := make([]Key, 0, len(n.byListener[l]))
	for key := range n.byListener[l] {
		keys = append(keys, key)
	}
	return keys
}

// ListenerCount - number of listeners registered under a key
func (n *Notifier) ListenerCount(key Key) int {
	n.Lock()
	defer n.Unlock()
	return len(n.byKey[key])
}

// Cursor - processed time of the newest transaction seen, false before the first successful poll
func (n *Notifier) Cursor() (int64, bool) {
	return atomic.LoadInt64(&n.cursor), 1 == atomic.LoadInt32(&n.hasCursor)
}

// Failures - consecutive failed or skipped polls
func (n *Notifier) Failures() uint64 {
	return n.failures.Uint64()
}

// Run - background process polling at the configured interval
func (n *Notifier) Run(args interface{}, shutdown <-chan struct{}) {
	log := n.log

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	// each poll runs on its own so a slow one shows up as a skipped tick
	poll := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer report.Recover(log)
			n.Poll(ctx)
		}()
	}

	log.Infof("starting, interval: %s", n.interval)

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	poll()
loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-ticker.C:
			poll()
		}
	}

	cancel()
	wg.Wait()
	log.Info("stopped")
}

// Poll - one poll cycle; skipped and counted as a failure if the
// previous cycle has not finished
func (n *Notifier) Poll(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&n.updating, 0, 1) {
		failures := n.failures.Increment()
		n.log.Warnf("backend under heavy load, number of failures: %d", failures)
		return
	}
	defer atomic.StoreInt32(&n.updating, 0)

	if 0 == atomic.LoadInt32(&n.hasCursor) {
		latest, err := n.source.LatestProcessed(ctx)
		if nil != err {
			n.failed("failed to retrieve latest transaction", err)
			return
		}
		atomic.StoreInt64(&n.cursor, latest)
		atomic.StoreInt32(&n.hasCursor, 1)
	}

	records, err := n.source.ProcessedSince(ctx, atomic.LoadInt64(&n.cursor))
	if nil != err {
		n.failed("failed to retrieve new transactions", err)
		return
	}

	for _, r := range records {
		n.deliver(r)
		if nil != r.ProcessedTs && *r.ProcessedTs > atomic.LoadInt64(&n.cursor) {
			atomic.StoreInt64(&n.cursor, *r.ProcessedTs)
		}
	}

	n.failures.Reset()

	if nil != n.reporter {
		n.reporter(heapInUse())
	}
}

func (n *Notifier) failed(message string, err error) {
	failures := n.failures.Increment()
	n.log.Warnf("%s: %s  failures: %d", message, report.Scrub(err.Error()), failures)
}

type delivery struct {
	listener Listener
	reason   transaction.UpdateReason
}

// notify every listener matching one row, each at most once
func (n *Notifier) deliver(r *transaction.Record) {
	deliveries := n.match(r)
	for _, d := range deliveries {
		d.listener.ReceiveUpdate(r, d.reason)
	}
}

// collect the listeners for a row and drop its one shot watches;
// callbacks run after the lock is released so they may register again
func (n *Notifier) match(r *transaction.Record) []delivery {
	n.Lock()
	defer n.Unlock()

	notified := make(map[Listener]struct{})
	deliveries := make([]delivery, 0, 4)

	add := func(key Key, reason transaction.UpdateReason) {
		for l := range n.byKey[key] {
			if _, ok := notified[l]; ok {
				continue
			}
			notified[l] = struct{}{}
			deliveries = append(deliveries, delivery{listener: l, reason: reason})
		}
	}

	idKey := TransactionKey(r.ID)
	add(idKey, transaction.ReasonID)
	for l := range n.byKey[idKey] {
		keys := n.byListener[l]
		delete(keys, idKey)
		if 0 == len(keys) {
			delete(n.byListener, l)
		}
	}
	delete(n.byKey, idKey)

	if nil != r.Sender {
		add(AddressKey(*r.Sender), transaction.ReasonAddress)
	}
	if nil != r.Receiver {
		add(AddressKey(*r.Receiver), transaction.ReasonAddress)
	}
	add(GlobalKey, transaction.ReasonGlobal)

	return deliveries
}

func heapInUse() float64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return float64(stats.HeapInuse) / 1024 / 1024
}
