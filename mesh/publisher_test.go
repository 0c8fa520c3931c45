package mesh

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResult(pair string) *ComparisonResult {
	return &ComparisonResult{
		Pair:      pair,
		Method:    "bounded",
		Distance:  1.2345,
		Bound:     0.001,
		Elapsed:   0.42,
		Timestamp: time.Now().Unix(),
	}
}

func TestPublishResultTopicsAndPayload(t *testing.T) {
	client := NewMockClient()
	client.SetConnected(true)

	p := NewPublisher(client)
	p.SetPublishPrefix("meshdist")

	require.NoError(t, p.PublishResult(testResult("scan-vs-cad")))

	msgs := client.GetPublishedMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "meshdist/scan-vs-cad", msgs[0].Topic)
	assert.Equal(t, "meshdist/results", msgs[1].Topic)
	assert.True(t, msgs[0].Retain)

	var got ComparisonResult
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &got))
	assert.Equal(t, "scan-vs-cad", got.Pair)
	assert.Equal(t, "bounded", got.Method)
	assert.Equal(t, 1.2345, got.Distance)
	assert.Equal(t, 0.001, got.Bound)

	var combined struct {
		Results   []ComparisonResult `json:"results"`
		Timestamp int64              `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &combined))
	require.Len(t, combined.Results, 1)
	assert.Equal(t, "scan-vs-cad", combined.Results[0].Pair)
	assert.NotZero(t, combined.Timestamp)
}

func TestPublishResultCombinedGrows(t *testing.T) {
	client := NewMockClient()
	client.SetConnected(true)
	p := NewPublisher(client)
	p.SetPublishPrefix("meshdist")

	require.NoError(t, p.PublishResult(testResult("p1")))
	require.NoError(t, p.PublishResult(testResult("p2")))

	msgs := client.GetPublishedMessages()
	require.Len(t, msgs, 4)

	var combined struct {
		Results []ComparisonResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(msgs[3].Payload, &combined))
	assert.Len(t, combined.Results, 2)
}

func TestPublishResultNotConnected(t *testing.T) {
	p := NewPublisher(NewMockClient())
	err := p.PublishResult(testResult("p"))
	assert.Error(t, err)

	p = NewPublisher(nil)
	assert.Error(t, p.PublishResult(testResult("p")))
}

func TestPublishResultPublishError(t *testing.T) {
	client := NewMockClient()
	client.SetConnected(true)
	client.SetPublishError(errors.New("broker rejected"))

	p := NewPublisher(client)
	err := p.PublishResult(testResult("p"))
	assert.Error(t, err)
}

func TestLatestResult(t *testing.T) {
	client := NewMockClient()
	client.SetConnected(true)
	p := NewPublisher(client)

	_, ok := p.LatestResult("p")
	assert.False(t, ok)

	require.NoError(t, p.PublishResult(testResult("p")))
	r, ok := p.LatestResult("p")
	require.True(t, ok)
	assert.Equal(t, "p", r.Pair)
}

func TestPublisherQoSAndRetainGuards(t *testing.T) {
	p := NewPublisher(nil)
	p.SetQoS(1)
	assert.Equal(t, byte(1), p.qos)
	p.SetQoS(7) // invalid, ignored
	assert.Equal(t, byte(1), p.qos)

	p.SetRetain(false)
	assert.False(t, p.retain)
}

func TestMQTTClientWithMock(t *testing.T) {
	mock := NewMockClient()
	c := newMQTTClientWithMock(mock, &Config{})
	assert.False(t, c.IsConnected())
	assert.Equal(t, mock, c.GetClient())

	c.setConnected(true)
	assert.True(t, c.IsConnected())

	mock.SetConnected(true)
	c.Disconnect()
	assert.False(t, c.IsConnected())
	assert.False(t, mock.IsConnected())
}
