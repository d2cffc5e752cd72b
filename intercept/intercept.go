package intercept

import (
	"errors"
	"fmt"
	"sync/atomic"

	"webshield/engine"
	"webshield/logger"
)

// ErrHookUnsupported is returned by a Host whose environment does not
// expose a given interception point. The layer skips that hook and
// keeps the rest: partial protection over total failure.
var ErrHookUnsupported = errors.New("interception point not supported by host")

// Response is the synthetic reply handed to a caller whose fetch was
// blocked: empty body, zero status, not OK. Callers that never handle
// rejection keep working.
type Response struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
	OK     bool   `json:"ok"`
}

// Hook signatures. The host network/DOM layer calls these on the
// thread raising the event; they are synchronous and never block on
// I/O.
type (
	// FetchHook returns a synthetic response for blocked requests and
	// nil for allowed ones (the host then delegates transparently).
	FetchHook func(url string) *Response

	// XHRHook returns a non-nil error for blocked requests; the host
	// surfaces it as the native synchronous throw at open time.
	XHRHook func(method, url string) error

	// SrcHook reports whether a src assignment may proceed. On false
	// the host drops the assignment silently: no load, no error event.
	SrcHook func(url string) bool

	// SocketHook covers WebSocket and EventSource construction; kind
	// is "websocket" or "eventsource". A non-nil error means the
	// constructor must throw synchronously.
	SocketHook func(kind, url string) error

	// ElementHook reports whether a freshly inserted element must be
	// removed from the document.
	ElementHook func(el Element) bool
)

// Host is the hook surface the embedding environment exposes. The
// engine supplies only policy functions; it never replaces global
// constructors itself.
type Host interface {
	RegisterFetchHook(FetchHook) error
	RegisterXHRHook(XHRHook) error
	RegisterImageSrcHook(SrcHook) error
	RegisterScriptSrcHook(SrcHook) error
	RegisterSocketHook(SocketHook) error
	RegisterElementHook(ElementHook) error
}

// Layer installs the engine's policy at every interception point the
// host exposes.
type Layer struct {
	engine    *engine.Engine
	installed atomic.Bool
}

// NewLayer creates an interception layer bound to one engine instance.
func NewLayer(e *engine.Engine) *Layer {
	return &Layer{engine: e}
}

// Installed reports whether hooks have been installed.
func (l *Layer) Installed() bool {
	return l.installed.Load()
}

// Install registers all hooks once. A second call is a no-op, so hooks
// are never double-installed. A host rejecting one interception point
// only loses that point.
func (l *Layer) Install(host Host) error {
	if host == nil {
		return fmt.Errorf("nil host")
	}
	if !l.installed.CompareAndSwap(false, true) {
		return nil
	}

	register := func(name string, err error) {
		if err == nil {
			return
		}
		if errors.Is(err, ErrHookUnsupported) {
			logger.Warnf("[Intercept] Host does not support %s hook, skipping", name)
			return
		}
		logger.Errorf("[Intercept] Failed to install %s hook: %v", name, err)
	}

	register("fetch", host.RegisterFetchHook(l.onFetch))
	register("xhr", host.RegisterXHRHook(l.onXHROpen))
	register("image-src", host.RegisterImageSrcHook(l.onImageSrc))
	register("script-src", host.RegisterScriptSrcHook(l.onScriptSrc))
	register("socket", host.RegisterSocketHook(l.onSocket))
	register("element", host.RegisterElementHook(l.onElementAdded))
	return nil
}

func (l *Layer) onFetch(url string) *Response {
	if l.engine.Decide(url, "fetch").Blocked {
		// 永不 reject，返回空的零状态响应
		return &Response{Status: 0, Body: []byte{}, OK: false}
	}
	return nil
}

func (l *Layer) onXHROpen(method, url string) error {
	if d := l.engine.Decide(url, "xhr"); d.Blocked {
		return fmt.Errorf("xhr request to %s: %w", url, engine.ErrBlocked)
	}
	return nil
}

func (l *Layer) onImageSrc(url string) bool {
	return !l.engine.Decide(url, "image").Blocked
}

func (l *Layer) onScriptSrc(url string) bool {
	return !l.engine.Decide(url, "script").Blocked
}

func (l *Layer) onSocket(kind, url string) error {
	if d := l.engine.Decide(url, kind); d.Blocked {
		return fmt.Errorf("%s connection to %s: %w", kind, url, engine.ErrBlocked)
	}
	return nil
}

func (l *Layer) onElementAdded(el Element) bool {
	if remove, reason := ShouldRemoveElement(el); remove {
		logger.Debugf("[Intercept] Removing element <%s> (%s)", el.Tag, reason)
		return true
	}
	if el.Tag == "iframe" && el.Src != "" {
		if l.engine.Decide(el.Src, "iframe").Blocked {
			return true
		}
	}
	return false
}
