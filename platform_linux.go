// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build linux

package mainloop

import (
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// MaxFDLimit is the maximum FD value supported by FDPlatform.RegisterFD.
const MaxFDLimit = 100000000

// IOEvents represents the type of I/O events to monitor.
type IOEvents uint32

const (
	// EventRead indicates the file descriptor is ready for reading.
	EventRead IOEvents = 1 << iota
	// EventWrite indicates the file descriptor is ready for writing.
	EventWrite
	// EventError indicates an error condition on the file descriptor.
	EventError
	// EventHangup indicates the peer closed its end of the connection.
	EventHangup
)

// Standard errors.
var (
	ErrFDOutOfRange        = errors.New("mainloop: fd out of range (max 100000000)")
	ErrFDAlreadyRegistered = errors.New("mainloop: fd already registered")
	ErrFDNotRegistered     = errors.New("mainloop: fd not registered")
)

// IOCallback is the callback type for I/O events. Callbacks run on the loop
// goroutine, from within ProcessMessage.
type IOCallback func(IOEvents)

type fdInfo struct {
	callback IOCallback
	events   IOEvents
}

// FDPlatform is a Linux Platform, backed by epoll. Native messages are
// readiness events for registered file descriptors, and Wake is implemented
// using an eventfd.
//
// Instances must be initialized using NewFDPlatform.
type FDPlatform struct { // betteralign:ignore
	epfd   int
	wakeFd int

	// only accessed from the loop goroutine
	eventBuf    [256]unix.EpollEvent
	dispatchBuf [256]unix.EpollEvent // callbacks may re-enter HasPendingMessages
	wakeBuf     [8]byte
	pending     []unix.EpollEvent // ready events, stashed by HasPendingMessages

	fds         map[int]fdInfo
	fdMu        sync.RWMutex
	wakePending atomic.Uint32
	closed      atomic.Bool
}

var _ Platform = (*FDPlatform)(nil)

// NewFDPlatform creates an epoll instance, and an eventfd for Wake.
// The returned platform should be closed (after Run returns) using Close.
func NewFDPlatform() (*FDPlatform, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}

	wakeFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, err
	}

	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFd, &unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(wakeFd),
	}); err != nil {
		_ = unix.Close(wakeFd)
		_ = unix.Close(epfd)
		return nil, err
	}

	return &FDPlatform{
		epfd:   epfd,
		wakeFd: wakeFd,
		fds:    make(map[int]fdInfo),
	}, nil
}

// RegisterFD registers a file descriptor for I/O event monitoring. The
// callback is called from ProcessMessage, while the fd is ready, i.e. it is
// level-triggered.
//
// Always call UnregisterFD before closing a file descriptor, to prevent
// stale event delivery due to FD recycling.
func (p *FDPlatform) RegisterFD(fd int, events IOEvents, cb IOCallback) error {
	if p.closed.Load() {
		return ErrPlatformClosed
	}
	if fd < 0 || fd >= MaxFDLimit || fd == p.wakeFd {
		return ErrFDOutOfRange
	}

	p.fdMu.Lock()
	defer p.fdMu.Unlock()

	if _, ok := p.fds[fd]; ok {
		return ErrFDAlreadyRegistered
	}

	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: eventsToEpoll(events),
		Fd:     int32(fd),
	}); err != nil {
		return err
	}

	p.fds[fd] = fdInfo{callback: cb, events: events}

	return nil
}

// UnregisterFD removes a file descriptor from monitoring.
//
// Note that, if called from outside the loop goroutine, a callback that was
// already selected for dispatch may still run, after UnregisterFD returns.
func (p *FDPlatform) UnregisterFD(fd int) error {
	if fd < 0 || fd >= MaxFDLimit {
		return ErrFDOutOfRange
	}

	p.fdMu.Lock()
	defer p.fdMu.Unlock()

	if _, ok := p.fds[fd]; !ok {
		return ErrFDNotRegistered
	}

	delete(p.fds, fd)

	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// ModifyFD updates the events being monitored for a file descriptor.
func (p *FDPlatform) ModifyFD(fd int, events IOEvents) error {
	if fd < 0 || fd >= MaxFDLimit {
		return ErrFDOutOfRange
	}

	p.fdMu.Lock()
	defer p.fdMu.Unlock()

	info, ok := p.fds[fd]
	if !ok {
		return ErrFDNotRegistered
	}

	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
		Events: eventsToEpoll(events),
		Fd:     int32(fd),
	}); err != nil {
		return err
	}

	info.events = events
	p.fds[fd] = info

	return nil
}

// ProcessMessage dispatches any events stashed by HasPendingMessages, or,
// if there are none, blocks until at least one registered fd is ready, or
// Wake is called, then dispatches the ready events.
func (p *FDPlatform) ProcessMessage() error {
	if p.closed.Load() {
		return ErrPlatformClosed
	}

	events := p.pending
	p.pending = nil

	if len(events) == 0 {
		n, err := p.wait(-1)
		if err != nil {
			return err
		}
		events = p.eventBuf[:n]
	}

	p.dispatch(events)

	return nil
}

// HasPendingMessages polls (without blocking) for ready fds, other than
// the wake fd. Ready events are stashed, for the next ProcessMessage.
func (p *FDPlatform) HasPendingMessages() bool {
	if p.closed.Load() {
		return false
	}

	if p.hasNative(p.pending) {
		return true
	}

	// level-triggered, so re-polling loses nothing
	n, err := p.wait(0)
	if err != nil || n == 0 {
		p.pending = nil
		return false
	}
	p.pending = p.eventBuf[:n]

	return p.hasNative(p.pending)
}

// Wake writes to the eventfd, causing a blocked ProcessMessage to return.
// Wakes are coalesced until the eventfd is next drained.
func (p *FDPlatform) Wake() error {
	if p.closed.Load() {
		return ErrPlatformClosed
	}

	if !p.wakePending.CompareAndSwap(0, 1) {
		return nil
	}

	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)

	if _, err := unix.Write(p.wakeFd, buf[:]); err != nil {
		p.wakePending.Store(0)
		if err == unix.EAGAIN {
			// counter saturated, so it's readable anyway
			return nil
		}
		return err
	}

	return nil
}

// Close closes the epoll instance and the eventfd. It must not be called
// while ProcessMessage is blocked, i.e. stop the loop first. Registered fds
// are not closed.
func (p *FDPlatform) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return ErrPlatformClosed
	}
	err := unix.Close(p.epfd)
	if e := unix.Close(p.wakeFd); err == nil {
		err = e
	}
	return err
}

func (p *FDPlatform) wait(timeoutMs int) (int, error) {
	n, err := unix.EpollWait(p.epfd, p.eventBuf[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	return n, nil
}

func (p *FDPlatform) hasNative(events []unix.EpollEvent) bool {
	for _, ev := range events {
		if int(ev.Fd) != p.wakeFd {
			return true
		}
	}
	return false
}

// dispatch executes callbacks inline. The callback is copied under the read
// lock, then called outside it, so callbacks may (un)register fds.
//
// Callbacks must tolerate spurious readiness, e.g. a fd that was ready when
// polled by HasPendingMessages, but was read by an earlier callback.
func (p *FDPlatform) dispatch(events []unix.EpollEvent) {
	events = p.dispatchBuf[:copy(p.dispatchBuf[:], events)]
	for _, ev := range events {
		fd := int(ev.Fd)
		if fd == p.wakeFd {
			p.drainWakeFd()
			continue
		}

		p.fdMu.RLock()
		info, ok := p.fds[fd]
		p.fdMu.RUnlock()

		if ok && info.callback != nil {
			info.callback(epollToEvents(ev.Events))
		}
	}
}

func (p *FDPlatform) drainWakeFd() {
	for {
		if _, err := unix.Read(p.wakeFd, p.wakeBuf[:]); err != nil {
			break
		}
	}
	p.wakePending.Store(0)
}

// eventsToEpoll converts IOEvents to epoll event flags.
func eventsToEpoll(events IOEvents) uint32 {
	var epollEvents uint32
	if events&EventRead != 0 {
		epollEvents |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		epollEvents |= unix.EPOLLOUT
	}
	return epollEvents
}

// epollToEvents converts epoll event flags to IOEvents.
func epollToEvents(epollEvents uint32) IOEvents {
	var events IOEvents
	if epollEvents&unix.EPOLLIN != 0 {
		events |= EventRead
	}
	if epollEvents&unix.EPOLLOUT != 0 {
		events |= EventWrite
	}
	if epollEvents&unix.EPOLLERR != 0 {
		events |= EventError
	}
	if epollEvents&unix.EPOLLHUP != 0 {
		events |= EventHangup
	}
	return events
}
