/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package main is a simple single-table process that evaluates
// messages from an MQTT broker.
//
// Each incoming message is a subject.  Messages emitted by the winning
// Case are published, and the Outcome is optionally published, too.
//
// The command line args follow those for mosquitto_sub.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/interpreters"
	"github.com/Comcast/casematch/matchers"
	"github.com/Comcast/casematch/sio"
	"github.com/Comcast/casematch/tools"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

func main() {

	var (
		broker BrokerConf

		quiesce   = flag.Int("quiesce", 100, "Disconnection quiescence (in milliseconds)")
		subTopics = flag.String("t", "", "subscription topic(s)")
		tableFile = flag.String("table", "", "table filename (YAML or JSON)")
		initFile  = flag.String("init", "", "File containing 'pub' commands to execute")

		injectTopic          = flag.Bool("inject-topic", true, "put topic in map of incoming messages")
		wrapWithTopic        = flag.Bool("wrap-with-topic", false, "wrap non-maps in a map along with the topic")
		defaultOutboundTopic = flag.String("def-outbound-topic", "misc", "Default out-bound message topic")
		outcomeTopic         = flag.String("outcome-topic", "", "Optional topic for outcomes")
		inTimeout            = flag.Duration("in-timeout", 5*time.Second, "timeout for in-bound queuing")
		evalTimeout          = flag.Duration("eval-timeout", 0, "optional timeout for each evaluation")
		verbose              = flag.Bool("v", false, "verbose")
	)

	broker.Flags(flag.CommandLine)

	flag.Parse()

	if *tableFile == "" {
		log.Fatal("need -table TABLE")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t, err := tools.ReadTable(*tableFile)
	if err != nil {
		log.Fatal(err)
	}
	fs := matchers.Standard()
	if err = t.Compile(ctx, interpreters.Standard(fs), fs, true); err != nil {
		log.Fatal(err)
	}

	mqtt.ERROR = log.New(os.Stderr, "mqtt.error ", 0)

	opts, err := broker.ClientOptions()
	if err != nil {
		log.Fatal(err)
	}

	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %s", err)
	}

	io := NewCouplings()
	io.Quiesce = uint(*quiesce)
	io.SubTopics = *subTopics
	io.InjectTopic = *injectTopic
	io.WrapWithTopic = *wrapWithTopic
	io.DefaultOutboundTopic = *defaultOutboundTopic
	io.OutcomeTopic = *outcomeTopic
	io.InTimeout = *inTimeout

	opts.DefaultPublishHandler = func(client mqtt.Client, msg mqtt.Message) {
		io.inHandler(ctx, client, msg)
	}

	io.Client = mqtt.NewClient(opts)

	conf := &sio.EvaluatorConf{
		Timeout: *evalTimeout,
	}

	e, err := sio.NewEvaluator(ctx, conf, core.NewUpdatableTable(t), io)
	if err != nil {
		log.Fatal(err)
	}
	e.Verbose = *verbose

	if err = io.Start(ctx); err != nil {
		log.Fatal(err)
	}

	go io.outLoop(ctx)

	if *initFile != "" {
		go func() {
			if err := io.runInit(ctx, *initFile); err != nil {
				log.Printf("init error %s", err)
			}
		}()
	}

	if err := e.Loop(ctx); err != nil {
		log.Fatal(err)
	}

	if err = io.Stop(context.Background()); err != nil {
		log.Printf("error from io.Stop: %v", err)
	}
}

// runInit reads 'pub TOPIC MSG' lines from the file and consumes
// each message as if it came from the broker.
func (c *Couplings) runInit(ctx context.Context, filename string) error {
	in, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(in), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line, err = sio.ShellExpand(line); err != nil {
			return fmt.Errorf("shell expansion error %s", err)
		}
		parts := strings.SplitN(line, " ", 3)
		switch strings.TrimSpace(parts[0]) {
		case "pub":
			if len(parts) != 3 {
				log.Printf("bad init line '%s'", line)
				continue
			}
			c.consume(ctx, parts[1], []byte(parts[2]))
		default:
			log.Printf("ignoring line '%s'", line)
		}
	}
	return nil
}
