package graphics

// Context is a render context whose entry points have been loaded. Only one
// context may be current per thread, so ownership moves between threads by
// releasing it on one and making it current on the other.
type Context interface {
	MakeCurrent() error
	Release() error
	GL() GL
	Close()
}
