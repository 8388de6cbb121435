package main

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/Comcast/casematch/core"
	. "github.com/Comcast/casematch/util/testutil"
)

var StopwatchOutput = false

// Stopwatch logs elapsed times when StopwatchOutput is true.
type Stopwatch struct {
	Tag  string
	Then time.Time
}

func NewStopwatch(tag string) *Stopwatch {
	return &Stopwatch{
		Tag:  tag,
		Then: time.Now(),
	}
}

func (t *Stopwatch) Stop() time.Duration {
	now := time.Now()
	d := now.Sub(t.Then)
	t.Then = now
	return d
}

func (t *Stopwatch) StopLog() time.Duration {
	d := t.Stop()
	if StopwatchOutput {
		log.Printf("stopwatch %s %fμ", t.Tag, d.Seconds()*1000*1000)
	}
	return d
}

// Render prints Outcomes by Table id.
func Render(tag string, m map[string]*core.Outcome) {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fmt.Printf("Outcomes %s\n", tag)
	for _, id := range ids {
		o := m[id]
		fmt.Printf("%s\n", id)
		fmt.Printf("  status   %s\n", o.Status)
		if o.Status == core.Matched {
			fmt.Printf("  case     %d %s\n", o.Case, o.Name)
			fmt.Printf("  bs       %s\n", JS(o.Bs))
		}
		if o.Events != nil && 0 < len(o.Emitted) {
			fmt.Printf("  emitted\n")
			for _, x := range o.Emitted {
				fmt.Printf("    %s\n", JS(x))
			}
		}
	}
}
