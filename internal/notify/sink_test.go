package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitError_Is(t *testing.T) {
	err := NoListener(TopicScreenshotCreated, "/tmp/a.png")
	assert.ErrorIs(t, err, ErrNoListener)
	assert.NotErrorIs(t, err, ErrSerializationFailed)

	cause := errors.New("boom")
	err = SerializationFailed(TopicScreenshotCreated, "/tmp/a.png", cause)
	assert.ErrorIs(t, err, ErrSerializationFailed)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "boom")

	var emitErr *EmitError
	require.ErrorAs(t, err, &emitErr)
	assert.Equal(t, TopicScreenshotCreated, emitErr.Topic)
}

func TestCheckPayload(t *testing.T) {
	assert.NoError(t, CheckPayload(TopicScreenshotCreated, "/home/u/Desktop/Écran 01.02.03.png"))
	assert.ErrorIs(t, CheckPayload(TopicScreenshotCreated, "/tmp/\xff\xfe.png"), ErrSerializationFailed)
}

func TestSinkFunc(t *testing.T) {
	var got string
	s := SinkFunc(func(topic, payload string) error {
		got = topic + "=" + payload
		return nil
	})

	require.NoError(t, s.Emit("t", "p"))
	assert.Equal(t, "t=p", got)
}

func TestMulti(t *testing.T) {
	var calls []string
	ok := SinkFunc(func(topic, payload string) error {
		calls = append(calls, "ok")
		return nil
	})
	none := SinkFunc(func(topic, payload string) error {
		calls = append(calls, "none")
		return NoListener(topic, payload)
	})
	bad := SinkFunc(func(topic, payload string) error {
		calls = append(calls, "bad")
		return SerializationFailed(topic, payload, nil)
	})

	t.Run("all sinks called", func(t *testing.T) {
		calls = nil
		err := Multi{ok, none, bad}.Emit(TopicScreenshotCreated, "/a")
		assert.Equal(t, []string{"ok", "none", "bad"}, calls)
		assert.ErrorIs(t, err, ErrSerializationFailed)
		assert.NotErrorIs(t, err, ErrNoListener)
	})

	t.Run("one listener is enough", func(t *testing.T) {
		assert.NoError(t, Multi{none, ok}.Emit(TopicScreenshotCreated, "/a"))
	})

	t.Run("no listeners anywhere", func(t *testing.T) {
		assert.ErrorIs(t, Multi{none, none}.Emit(TopicScreenshotCreated, "/a"), ErrNoListener)
		assert.ErrorIs(t, Multi{}.Emit(TopicScreenshotCreated, "/a"), ErrNoListener)
	})
}
