package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penguin-judge/penguin-judge-go/session"
)

func TestSubjectDeliversCurrentValueOnSubscribe(t *testing.T) {
	subj := session.NewSubject("initial")

	var got []string
	subj.Subscribe(func(v string) { got = append(got, v) })

	require.Equal(t, []string{"initial"}, got)

	subj.Publish("second")
	subj.Publish("third")
	assert.Equal(t, []string{"initial", "second", "third"}, got)
	assert.Equal(t, "third", subj.Value())
}

func TestSubjectDeliversInSubscriptionOrder(t *testing.T) {
	subj := session.NewSubject(0)

	var order []string
	subj.Subscribe(func(v int) {
		if v != 0 {
			order = append(order, "first")
		}
	})
	subj.Subscribe(func(v int) {
		if v != 0 {
			order = append(order, "second")
		}
	})

	subj.Publish(1)
	subj.Publish(2)
	assert.Equal(t, []string{"first", "second", "first", "second"}, order)
}

func TestSubjectUnsubscribeStopsDelivery(t *testing.T) {
	subj := session.NewSubject(0)

	var got []int
	sub := subj.Subscribe(func(v int) { got = append(got, v) })

	subj.Publish(1)
	sub.Unsubscribe()
	sub.Unsubscribe() // second call is a no-op
	subj.Publish(2)

	assert.Equal(t, []int{0, 1}, got)
	assert.Equal(t, 2, subj.Value(), "value tracking continues without subscribers")
}

func TestSubjectRemainingSubscribersUnaffected(t *testing.T) {
	subj := session.NewSubject("start")

	var a, b []string
	subA := subj.Subscribe(func(v string) { a = append(a, v) })
	subj.Subscribe(func(v string) { b = append(b, v) })

	subA.Unsubscribe()
	subj.Publish("after")

	assert.Equal(t, []string{"start"}, a)
	assert.Equal(t, []string{"start", "after"}, b)
}
