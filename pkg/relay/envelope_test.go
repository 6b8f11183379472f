package relay_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/eventsource/pkg/relay"
	"github.com/papercomputeco/eventsource/pkg/sse"
)

var _ = Describe("EventEnvelope", func() {
	ev := sse.Event{
		Type:        "tick",
		Data:        "{\"seq\":1}",
		Origin:      "http://localhost:8080/events",
		LastEventID: "1",
	}

	It("wraps a received event with v1 schema metadata", func() {
		env := relay.NewEnvelope(ev)

		Expect(env.SchemaVersion).To(Equal(relay.SchemaVersionV1))
		Expect(env.EventType).To(Equal(relay.EventTypeStreamEvent))
		Expect(env.EventID).NotTo(BeEmpty())
		Expect(env.EmittedAt).To(BeTemporally("~", time.Now(), time.Minute))
		Expect(env.Origin).To(Equal(ev.Origin))
		Expect(env.Stream.Type).To(Equal("tick"))
		Expect(env.Stream.Data).To(Equal("{\"seq\":1}"))
		Expect(env.Stream.LastEventID).To(Equal("1"))
	})

	It("assigns a fresh event ID per envelope", func() {
		first := relay.NewEnvelope(ev)
		second := relay.NewEnvelope(ev)

		Expect(first.EventID).NotTo(Equal(second.EventID))
	})

	It("serializes with snake_case keys", func() {
		payload, err := json.Marshal(relay.NewEnvelope(ev))
		Expect(err).NotTo(HaveOccurred())

		var parsed map[string]any
		Expect(json.Unmarshal(payload, &parsed)).To(Succeed())
		Expect(parsed).To(HaveKey("schema_version"))
		Expect(parsed).To(HaveKey("event_type"))
		Expect(parsed).To(HaveKey("emitted_at"))
		Expect(parsed).To(HaveKey("stream"))
	})
})
