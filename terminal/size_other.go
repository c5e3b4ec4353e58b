//go:build !unix

package terminal

func winsize(fd int) (cols, rows int, err error) {
	return 0, 0, ErrNoSize
}

// resizeHandler is inert without SIGWINCH
type resizeHandler struct{}

func newResizeHandler(fd int) *resizeHandler        { return &resizeHandler{} }
func (r *resizeHandler) start()                     {}
func (r *resizeHandler) stop()                      {}
func (r *resizeHandler) events() <-chan ResizeEvent { return nil }
