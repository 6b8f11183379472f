package eventsource

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sync"

	"github.com/google/uuid"
)

// readBufferSize bounds one chunk delivered via OnChunk.
const readBufferSize = 64 * 1024

// HTTPTransport is the default Transport, built on net/http. Each request
// runs on its own goroutine which delivers the lifecycle callbacks
// sequentially, in wire order. No request timeout is imposed: an event
// stream is a deliberately long-lived response.
type HTTPTransport struct {
	// client issues credential-less requests; credClient carries a cookie
	// jar for requests with WithCredentials set.
	client     *http.Client
	credClient *http.Client

	mu      sync.Mutex
	cancels map[RequestID]context.CancelFunc
}

// NewHTTPTransport creates an HTTPTransport.
func NewHTTPTransport() *HTTPTransport {
	// cookiejar.New with default options cannot fail.
	jar, _ := cookiejar.New(nil)

	return &HTTPTransport{
		client:     &http.Client{},
		credClient: &http.Client{Jar: jar},
		cancels:    make(map[RequestID]context.CancelFunc),
	}
}

// Do issues the streaming request and starts delivering callbacks. The
// creation acknowledgement fires synchronously before Do returns; response,
// chunk and done callbacks follow from the request goroutine.
func (t *HTTPTransport) Do(req Request, cb Callbacks) (RequestID, error) {
	id := RequestID(uuid.NewString())
	ctx, cancel := context.WithCancel(context.Background())

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, nil)
	if err != nil {
		cancel()
		return "", err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	t.mu.Lock()
	t.cancels[id] = cancel
	t.mu.Unlock()

	if cb.OnCreated != nil {
		cb.OnCreated(id)
	}

	client := t.client
	if req.WithCredentials {
		client = t.credClient
	}

	go t.run(ctx, id, client, httpReq, cb)

	return id, nil
}

// Abort cancels an in-flight request. Unknown identifiers are a no-op.
func (t *HTTPTransport) Abort(id RequestID) {
	t.mu.Lock()
	cancel, ok := t.cancels[id]
	delete(t.cancels, id)
	t.mu.Unlock()

	if ok {
		cancel()
	}
}

// run performs the request and streams the body back through callbacks.
func (t *HTTPTransport) run(ctx context.Context, id RequestID, client *http.Client, httpReq *http.Request, cb Callbacks) {
	defer t.Abort(id)

	resp, err := client.Do(httpReq)
	if err != nil {
		t.finish(id, cb, err)
		return
	}
	defer resp.Body.Close()

	if cb.OnResponse != nil {
		cb.OnResponse(id, resp.StatusCode, resp.Header)
	}

	buf := make([]byte, readBufferSize)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 && cb.OnChunk != nil {
			cb.OnChunk(id, string(buf[:n]))
		}
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				// Clean end of stream, or a local abort.
				t.finish(id, cb, nil)
			} else {
				t.finish(id, cb, err)
			}
			return
		}
	}
}

func (t *HTTPTransport) finish(id RequestID, cb Callbacks, err error) {
	if cb.OnDone != nil {
		cb.OnDone(id, err)
	}
}
