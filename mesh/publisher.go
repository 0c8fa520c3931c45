package mesh

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher publishes comparison results to MQTT: one retained message per
// pair plus a combined message with every known result.
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
	latest        map[string]*ComparisonResult
	mu            sync.RWMutex
}

// NewPublisher creates a result publisher. The prefix comes from the
// MQTT_PUBLISH_PREFIX env var, falling back to "meshdist".
func NewPublisher(client mqtt.Client) *Publisher {
	prefix := os.Getenv("MQTT_PUBLISH_PREFIX")
	if prefix == "" {
		prefix = "meshdist"
	}

	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           0,
		retain:        true, // latest result stays visible to late subscribers
		latest:        make(map[string]*ComparisonResult),
	}
}

// SetPublishPrefix overrides the topic prefix (normally from config).
func (p *Publisher) SetPublishPrefix(prefix string) {
	if prefix != "" {
		p.publishPrefix = prefix
	}
}

// SetQoS sets the publish QoS level (0, 1 or 2).
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages are retained by the broker.
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}

// PublishResult publishes one comparison result to its pair topic and
// refreshes the combined results topic.
func (p *Publisher) PublishResult(r *ComparisonResult) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	p.mu.Lock()
	p.latest[r.Pair] = r
	p.mu.Unlock()

	if err := p.publishIndividual(r); err != nil {
		log.Printf("Error publishing result for %s: %v", r.Pair, err)
		return err
	}
	if err := p.publishCombined(); err != nil {
		log.Printf("Error publishing combined results: %v", err)
		return err
	}
	return nil
}

func (p *Publisher) publishIndividual(r *ComparisonResult) error {
	topic := fmt.Sprintf("%s/%s", p.publishPrefix, r.Pair)

	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	log.Printf("Published %s result for %s: distance=%.6g (%.2fs)",
		r.Method, r.Pair, r.Distance, r.Elapsed)
	return nil
}

func (p *Publisher) publishCombined() error {
	p.mu.RLock()
	results := make([]*ComparisonResult, 0, len(p.latest))
	for _, r := range p.latest {
		results = append(results, r)
	}
	p.mu.RUnlock()

	if len(results) == 0 {
		return nil
	}

	topic := fmt.Sprintf("%s/results", p.publishPrefix)

	message := map[string]interface{}{
		"results":   results,
		"timestamp": time.Now().Unix(),
	}
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshaling combined results: %w", err)
	}

	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// LatestResult returns the last published result for a pair.
func (p *Publisher) LatestResult(pair string) (*ComparisonResult, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.latest[pair]
	return r, ok
}
