//go:build unix

package terminal

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// resizeHandler turns SIGWINCH into ResizeEvents for one fd
// Only changes are reported; a pending event is replaced by a newer one.
type resizeHandler struct {
	fd      int
	sigCh   chan os.Signal
	eventCh chan ResizeEvent
	stopCh  chan struct{}
	doneCh  chan struct{}

	last ResizeEvent
}

func newResizeHandler(fd int) *resizeHandler {
	r := &resizeHandler{
		fd:      fd,
		sigCh:   make(chan os.Signal, 1),
		eventCh: make(chan ResizeEvent, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	if cols, rows, err := Size(fd); err == nil {
		r.last = ResizeEvent{Width: cols, Height: rows}
	}
	return r
}

func (r *resizeHandler) start() {
	signal.Notify(r.sigCh, syscall.SIGWINCH)
	go r.watch()
}

func (r *resizeHandler) stop() {
	signal.Stop(r.sigCh)
	close(r.stopCh)
	<-r.doneCh
}

func (r *resizeHandler) events() <-chan ResizeEvent {
	return r.eventCh
}

func (r *resizeHandler) watch() {
	defer close(r.doneCh)

	for {
		select {
		case <-r.stopCh:
			return
		case <-r.sigCh:
			cols, rows, err := Size(r.fd)
			if err != nil {
				continue
			}
			ev := ResizeEvent{Width: cols, Height: rows}
			if ev == r.last {
				continue
			}
			r.last = ev
			r.publish(ev)
		}
	}
}

// publish never blocks: the consumer only cares about the latest size
func (r *resizeHandler) publish(ev ResizeEvent) {
	for {
		select {
		case r.eventCh <- ev:
			return
		default:
		}
		select {
		case <-r.eventCh:
		default:
		}
	}
}

// winsize asks the kernel for the window size of fd
func winsize(fd int) (cols, rows int, err error) {
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, err
	}
	return int(ws.Col), int(ws.Row), nil
}
