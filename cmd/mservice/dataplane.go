package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/jsccast/yaml"
)

// TCPListener serves the data plane: each connection gets a Listener.
func (s *Service) TCPListener(ctx context.Context, port string) error {
	log.Printf("Starting TCP listener on %s", port)

	l, err := net.Listen("tcp", port)
	if err != nil {
		return err
	}
	ctl := make(chan bool, 1)

	go func() {
		select {
		case <-ctx.Done():
		case <-ctl:
		}
		l.Close()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-ctl:
				return nil
			default:
			}
			return err
		}

		go func() {
			in := bufio.NewReader(conn)

			if err := s.Listener(ctx, in, conn, ctl); err != nil {
				if err != io.EOF {
					log.Printf("TCPListener: %s", err)
				}
			}
			conn.Close()
		}()
	}
}

// Listener reads lines, which are either commands or SOps in JSON,
// and writes responses.
//
// Commands:
//
//	json|prettyjson|yaml    how to render responses
//	insub NS|inunsub NS     watch subjects sent to a namespace
//	outsub NS|outunsub NS   watch messages emitted in a namespace
//	sleep DURATION
//	echo MSG
//	shutdown                stop the TCP listener
func (s *Service) Listener(ctx context.Context, in *bufio.Reader, out io.Writer, ctl chan bool) error {
	id := fmt.Sprintf("%p", in)

	log.Printf("Service listener %s", id)
	defer log.Printf("Service listener closed %s", id)

	render := "json"

	sayMutex := sync.Mutex{}

	say := func(x interface{}) bool {
		sayMutex.Lock()
		defer sayMutex.Unlock()

		var js []byte
		var err error
		switch render {
		case "prettyjson":
			js, err = json.MarshalIndent(&x, "", "  ")
		case "yaml":
			js, err = yaml.Marshal(&x)
		default:
			js, err = json.Marshal(&x)
		}
		if err != nil {
			log.Printf("Service.Listener warning on rendering: %s on %#v", err, x)
			js = []byte(fmt.Sprintf("error: %s on %#v", err, x))
		}

		js = append(bytes.TrimRight(js, "\n"), '\n')

		if _, err = out.Write(js); err != nil {
			log.Printf("Service.Listener warning on Write: %s", err)
			return false
		}

		return true
	}

	outHook := func(x interface{}) {
		say(map[string]interface{}{
			"outbound": x,
		})
	}

	inHook := func(x interface{}) {
		say(map[string]interface{}{
			"inbound": x,
		})
	}

	defer func() {
		s.InSubs.RemAll(id)
		s.OutSubs.RemAll(id)
	}()

	complain := func(err error) bool {
		return say(map[string]interface{}{
			"error": err.Error(),
		})
	}

	okay := func() bool {
		return say("okay")
	}

	for {
		line, err := in.ReadBytes('\n')
		if err == io.EOF && len(line) == 0 {
			break
		}
		if err != nil && err != io.EOF {
			return err
		}

		sl := strings.TrimSpace(string(line))

		if strings.HasPrefix(sl, "#") || sl == "" {
			continue
		}

		switch sl {
		case "shutdown":
			log.Printf("Listener client says to shutdown")
			if ctl != nil {
				select {
				case ctl <- true:
				default:
				}
			}
			return nil
		case "prettyjson", "yaml", "json":
			render = sl
			okay()
			continue
		}

		parts := strings.Fields(sl)
		switch parts[0] {
		case "insub", "inunsub", "outsub", "outunsub":
			if len(parts) != 2 {
				if !complain(fmt.Errorf("%s NAMESPACE", parts[0])) {
					return nil
				}
				continue
			}
			ns := parts[1]
			switch parts[0] {
			case "insub":
				s.InSubs.Add(ns, id, inHook)
			case "inunsub":
				s.InSubs.Rem(ns, id)
			case "outsub":
				s.OutSubs.Add(ns, id, outHook)
			case "outunsub":
				s.OutSubs.Rem(ns, id)
			}
			okay()
			continue
		case "echo":
			say(strings.Join(parts[1:], " "))
			continue
		case "sleep":
			if len(parts) != 2 {
				if !complain(fmt.Errorf("sleep DURATION")) {
					return nil
				}
				continue
			}
			d, err := time.ParseDuration(parts[1])
			if err != nil {
				if !complain(err) {
					return nil
				}
				continue
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
			}
			continue
		}

		var op SOp
		if err := json.Unmarshal([]byte(sl), &op); err != nil {
			if !complain(err) {
				return err
			}
			continue
		}
		if err := op.Do(ctx, s); err != nil {
			if !complain(err) {
				return err
			}
			continue
		}

		if !say(&op) {
			return nil
		}
	}

	return nil
}
