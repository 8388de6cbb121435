package main

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Comcast/casematch/sio"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Couplings is an sio.Couplings for an MQTT broker.
type Couplings struct {
	Client               mqtt.Client
	Quiesce              uint
	SubTopics            string
	InjectTopic          bool
	WrapWithTopic        bool
	DefaultOutboundTopic string

	// OutcomeTopic, if not empty, is where each Result is
	// published.
	OutcomeTopic string

	InTimeout time.Duration

	incoming chan interface{}
	outbound chan *sio.Result
	done     chan bool
}

// NewCouplings makes Couplings without a Client.
func NewCouplings() *Couplings {
	return &Couplings{
		InTimeout: 5 * time.Second,
		incoming:  make(chan interface{}),
		outbound:  make(chan *sio.Result),
		done:      make(chan bool),
	}
}

// subject makes a subject out of an incoming payload.
func (c *Couplings) subject(topic string, payload []byte) interface{} {
	var x interface{}
	if err := json.Unmarshal(payload, &x); err != nil {
		log.Printf("Couldn't JSON-parse payload: %s", payload)
		x = string(payload)
	}
	if m, is := x.(map[string]interface{}); is {
		if c.InjectTopic {
			m["topic"] = topic
		}
	} else if c.WrapWithTopic {
		x = map[string]interface{}{
			"topic":   topic,
			"payload": x,
		}
	}
	return x
}

func (c *Couplings) consume(ctx context.Context, topic string, payload []byte) {
	x := c.subject(topic, payload)

	to := time.NewTimer(c.InTimeout)
	defer to.Stop()

	select {
	case <-ctx.Done():
		log.Printf("Not forwarding due to ctx.Done()")
	case c.incoming <- x:
	case <-to.C:
		log.Printf("Not forwarding due to stall ('%s','%s')", topic, payload)
	}
}

// inHandler is a Paho publish handler, which is used to handle
// messages send to us from the MQTT broker due to our subscriptions.
func (c *Couplings) inHandler(ctx context.Context, client mqtt.Client, msg mqtt.Message) {
	log.Printf("incoming: %s %s\n", msg.Topic(), msg.Payload())
	c.consume(ctx, msg.Topic(), msg.Payload())
}

// Start creates the MQTT session.
func (c *Couplings) Start(ctx context.Context) error {
	log.Printf("Attempting to connect to broker")
	if token := c.Client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("Connected to broker")

	for _, topic := range strings.Split(c.SubTopics, ",") {
		topic, qos := parseTopic(topic)
		if topic == "" {
			continue
		}
		log.Printf("Subscribing to %s (%d)", topic, qos)
		if t := c.Client.Subscribe(topic, qos, nil); t.Wait() && t.Error() != nil {
			return t.Error()
		}
	}
	log.Printf("Couplings started")

	return nil
}

// IO returns the channels that the Evaluator uses.
//
// MQTT input never ends, so the done channel is never closed.
func (c *Couplings) IO(ctx context.Context) (chan interface{}, chan *sio.Result, chan bool, error) {
	return c.incoming, c.outbound, c.done, nil
}

// publication is a message bound for the broker.
type publication struct {
	Topic   string
	QoS     byte
	Payload []byte
}

// publications determines what to publish for a Result.
//
// An emitted map can specify its topic ("topic") and QoS ("qos").
func (c *Couplings) publications(r *sio.Result) []*publication {
	acc := make([]*publication, 0, 4)

	if c.OutcomeTopic != "" {
		topic, qos := parseTopic(c.OutcomeTopic)
		js, err := json.Marshal(r)
		if err != nil {
			log.Printf("Failed to marshal result: %s", err)
		} else {
			acc = append(acc, &publication{topic, qos, js})
		}
	}

	if r.Outcome == nil || r.Events == nil {
		return acc
	}

	for _, x := range r.Emitted {
		topic, qos := parseTopic(c.DefaultOutboundTopic)
		if m, is := x.(map[string]interface{}); is {
			if s, is := m["topic"].(string); is {
				topic = s
			}
			if n, have := m["qos"]; have {
				if f, is := n.(float64); is {
					qos = byte(f)
				} else {
					log.Printf("Warning: ignoring qos %#v %T", n, n)
				}
			}
		}
		js, err := json.Marshal(x)
		if err != nil {
			log.Printf("Failed to marshal %#v", x)
			continue
		}
		acc = append(acc, &publication{topic, qos, js})
	}

	return acc
}

// outLoop forwards Results to the MQTT broker.
func (c *Couplings) outLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-c.outbound:
			if r == nil {
				return
			}
			for _, p := range c.publications(r) {
				log.Printf("Publishing %s %s", p.Topic, p.Payload)
				token := c.Client.Publish(p.Topic, p.QoS, false, p.Payload)
				if token.Wait() && token.Error() != nil {
					log.Printf("Publish error: %s", token.Error())
				}
			}
		}
	}
}

// Stop terminates the MQTT session.
func (c *Couplings) Stop(context.Context) error {
	log.Printf("Disconnecting")
	c.Client.Disconnect(c.Quiesce)
	return nil
}

// parseTopic can extract QoS from a topic name of the form TOPIC:QOS.
func parseTopic(s string) (string, byte) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return s, 0
	}
	qos, err := strconv.ParseUint(s[i+1:], 10, 8)
	if err != nil || 2 < qos {
		return s, 0
	}
	return s[:i], byte(qos)
}
