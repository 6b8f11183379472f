package eventsource_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/eventsource/pkg/eventsource"
	"github.com/papercomputeco/eventsource/pkg/sse"
)

const streamURL = "http://localhost:8080/events"

var _ = Describe("EventSource", func() {
	var (
		transport *fakeTransport
		es        *eventsource.EventSource

		messages []sse.Event
		opens    []sse.Event
		errs     []sse.Event
	)

	BeforeEach(func() {
		transport = newFakeTransport()
		messages, opens, errs = nil, nil, nil

		var err error
		es, err = eventsource.New(streamURL, eventsource.WithTransport(transport))
		Expect(err).NotTo(HaveOccurred())

		es.OnMessage(func(ev sse.Event) { messages = append(messages, ev) })
		es.OnOpen(func(ev sse.Event) { opens = append(opens, ev) })
		es.OnError(func(ev sse.Event) { errs = append(errs, ev) })
	})

	Describe("New", func() {
		It("rejects an empty URL", func() {
			_, err := eventsource.New("")
			Expect(err).To(MatchError(eventsource.ErrEmptyURL))
		})

		It("starts in the connecting state", func() {
			Expect(es.ReadyState()).To(Equal(eventsource.Connecting))
		})

		It("exposes the URL", func() {
			Expect(es.URL()).To(Equal(streamURL))
		})
	})

	Describe("Connect", func() {
		It("issues a GET with the two default headers", func() {
			Expect(es.Connect()).To(Succeed())

			Expect(transport.req.Method).To(Equal("GET"))
			Expect(transport.req.URL).To(Equal(streamURL))
			Expect(transport.req.Headers).To(HaveKeyWithValue("Cache-Control", "no-store"))
			Expect(transport.req.Headers).To(HaveKeyWithValue("Accept", "text/event-stream"))
			Expect(transport.req.WithCredentials).To(BeFalse())
		})

		It("merges caller headers over the defaults", func() {
			custom, err := eventsource.New(streamURL,
				eventsource.WithTransport(transport),
				eventsource.WithHeaders(map[string]string{
					"Authorization": "Bearer token",
					"Accept":        "text/event-stream",
				}),
				eventsource.WithCredentials(true),
			)
			Expect(err).NotTo(HaveOccurred())
			Expect(custom.Connect()).To(Succeed())

			Expect(transport.req.Headers).To(HaveKeyWithValue("Authorization", "Bearer token"))
			Expect(transport.req.Headers).To(HaveKeyWithValue("Cache-Control", "no-store"))
			Expect(transport.req.WithCredentials).To(BeTrue())
		})

		It("extracts a caller Last-Event-ID header into session state", func() {
			custom, err := eventsource.New(streamURL,
				eventsource.WithTransport(transport),
				eventsource.WithHeaders(map[string]string{"Last-Event-ID": "42"}),
			)
			Expect(err).NotTo(HaveOccurred())
			Expect(custom.Connect()).To(Succeed())

			Expect(transport.req.Headers).NotTo(HaveKey("Last-Event-ID"))
			Expect(custom.LastEventID()).To(Equal("42"))
		})

		It("sends a seeded session Last-Event-ID as a request header", func() {
			custom, err := eventsource.New(streamURL,
				eventsource.WithTransport(transport),
				eventsource.WithLastEventID("7"),
			)
			Expect(err).NotTo(HaveOccurred())
			Expect(custom.Connect()).To(Succeed())

			Expect(transport.req.Headers).To(HaveKeyWithValue("Last-Event-ID", "7"))
		})

		It("rejects a second Connect", func() {
			Expect(es.Connect()).To(Succeed())
			Expect(es.Connect()).To(MatchError(eventsource.ErrAlreadyConnected))
		})

		It("rejects Connect after Close", func() {
			es.Close()
			Expect(es.Connect()).To(MatchError(eventsource.ErrClosed))
		})

		It("closes when the transport cannot issue the request", func() {
			transport.doErr = errors.New("no such host")

			Expect(es.Connect()).To(HaveOccurred())
			Expect(es.ReadyState()).To(Equal(eventsource.Closed))
		})
	})

	Describe("response classification", func() {
		BeforeEach(func() {
			Expect(es.Connect()).To(Succeed())
		})

		It("opens on 200 with the event-stream content type", func() {
			transport.respond(200, "text/event-stream")

			Expect(es.ReadyState()).To(Equal(eventsource.Open))
			Expect(opens).To(HaveLen(1))
			Expect(opens[0].Type).To(Equal("open"))
			Expect(errs).To(BeEmpty())
		})

		It("errors without closing on gateway-class server failures", func() {
			for _, status := range []int{500, 502, 503, 504} {
				transport.respond(status, "")
			}

			Expect(errs).To(HaveLen(4))
			Expect(es.ReadyState()).To(Equal(eventsource.Connecting))
			Expect(transport.aborted).To(BeEmpty())
		})

		It("errors without closing on redirects", func() {
			transport.respond(301, "")
			transport.respond(307, "")

			Expect(errs).To(HaveLen(2))
			Expect(errs[0].Data).To(ContainSubstring("redirect not supported"))
			Expect(es.ReadyState()).To(Equal(eventsource.Connecting))
		})

		It("errors and closes on any other non-200 status", func() {
			transport.respond(404, "text/event-stream")

			Expect(errs).To(HaveLen(1))
			Expect(es.ReadyState()).To(Equal(eventsource.Closed))
			Expect(transport.aborted).To(ContainElement(eventsource.RequestID("req-1")))
		})

		It("errors and closes on 200 with a wrong content type", func() {
			transport.respond(200, "text/plain")

			Expect(errs).To(HaveLen(1))
			Expect(errs[0].Data).To(ContainSubstring("content type"))
			Expect(es.ReadyState()).To(Equal(eventsource.Closed))
		})

		It("requires an exact, case-sensitive content type value", func() {
			transport.respond(200, "Text/Event-Stream")

			Expect(errs).To(HaveLen(1))
			Expect(es.ReadyState()).To(Equal(eventsource.Closed))
		})
	})

	Describe("event flow", func() {
		BeforeEach(func() {
			Expect(es.Connect()).To(Succeed())
			transport.respond(200, "text/event-stream")
		})

		It("dispatches a message event from a data chunk", func() {
			transport.chunk("data: hello\n\n")

			Expect(messages).To(HaveLen(1))
			Expect(messages[0].Data).To(Equal("hello"))
			Expect(messages[0].Origin).To(Equal(streamURL))
		})

		It("reassembles events split across chunks", func() {
			transport.chunk("data: hel")
			transport.chunk("lo\n")
			transport.chunk("\n")

			Expect(messages).To(HaveLen(1))
			Expect(messages[0].Data).To(Equal("hello"))
		})

		It("delivers named events to their channel only", func() {
			var ticks []sse.Event
			es.AddEventListener("tick", func(ev sse.Event) { ticks = append(ticks, ev) })

			transport.chunk("event: tick\ndata: 1\n\n")

			Expect(ticks).To(HaveLen(1))
			Expect(messages).To(BeEmpty())
		})

		It("tracks id and retry fields", func() {
			transport.chunk("id: 9\nretry: 2500\ndata: x\n\n")

			Expect(es.LastEventID()).To(Equal("9"))
			Expect(es.RetryInterval()).To(Equal(2500 * time.Millisecond))
		})

		It("errors and closes when the stream completes", func() {
			transport.done(nil)

			Expect(errs).To(HaveLen(1))
			Expect(errs[0].Data).To(ContainSubstring("stream ended"))
			Expect(es.ReadyState()).To(Equal(eventsource.Closed))
		})

		It("surfaces transport failures on completion", func() {
			transport.done(errors.New("connection reset"))

			Expect(errs).To(HaveLen(1))
			Expect(errs[0].Data).To(ContainSubstring("connection reset"))
			Expect(es.ReadyState()).To(Equal(eventsource.Closed))
		})
	})

	Describe("callback correlation", func() {
		BeforeEach(func() {
			Expect(es.Connect()).To(Succeed())
		})

		It("ignores callbacks under a stale request id", func() {
			transport.cb.OnResponse("stale", 200, nil)
			transport.cb.OnChunk("stale", "data: x\n\n")
			transport.cb.OnDone("stale", nil)

			Expect(es.ReadyState()).To(Equal(eventsource.Connecting))
			Expect(messages).To(BeEmpty())
			Expect(errs).To(BeEmpty())
		})

		It("ignores chunks arriving after Close", func() {
			transport.respond(200, "text/event-stream")
			es.Close()

			transport.chunk("data: late\n\n")

			Expect(messages).To(BeEmpty())
		})
	})

	Describe("Close", func() {
		It("is idempotent", func() {
			Expect(es.Connect()).To(Succeed())

			es.Close()
			es.Close()

			Expect(es.ReadyState()).To(Equal(eventsource.Closed))
			Eventually(es.Done()).Should(BeClosed())
		})

		It("aborts the in-flight request", func() {
			Expect(es.Connect()).To(Succeed())

			es.Close()

			Expect(transport.aborted).To(ContainElement(eventsource.RequestID("req-1")))
		})

		It("is safe before Connect", func() {
			es.Close()

			Expect(es.ReadyState()).To(Equal(eventsource.Closed))
			Expect(transport.aborted).To(BeEmpty())
		})

		It("is safe to call from a handler", func() {
			Expect(es.Connect()).To(Succeed())
			transport.respond(200, "text/event-stream")

			es.OnMessage(func(ev sse.Event) {
				messages = append(messages, ev)
				es.Close()
			})
			transport.chunk("data: bye\n\n")

			Expect(messages).To(HaveLen(1))
			Expect(es.ReadyState()).To(Equal(eventsource.Closed))
		})
	})

	Describe("listener registry", func() {
		BeforeEach(func() {
			Expect(es.Connect()).To(Succeed())
			transport.respond(200, "text/event-stream")
		})

		It("invokes registry listeners in order, then the primary handler", func() {
			var order []string
			es.AddEventListener("message", func(sse.Event) { order = append(order, "first") })
			es.AddEventListener("message", func(sse.Event) { order = append(order, "second") })
			es.OnMessage(func(sse.Event) { order = append(order, "primary") })

			transport.chunk("data: x\n\n")

			Expect(order).To(Equal([]string{"first", "second", "primary"}))
		})

		It("stops delivering to removed listeners", func() {
			var calls int
			handle := es.AddEventListener("message", func(sse.Event) { calls++ })

			transport.chunk("data: one\n\n")
			es.RemoveEventListener(handle)
			transport.chunk("data: two\n\n")

			Expect(calls).To(Equal(1))
		})

		It("replaces the primary handler rather than stacking", func() {
			var first, second int
			es.OnMessage(func(sse.Event) { first++ })
			es.OnMessage(func(sse.Event) { second++ })

			transport.chunk("data: x\n\n")

			Expect(first).To(BeZero())
			Expect(second).To(Equal(1))
		})
	})
})
