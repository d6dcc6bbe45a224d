package midi

import (
	"fmt"
	"strings"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-melodycards/debug"
	"go-melodycards/playback"
)

// PortTimeout bounds a port scan. Some MIDI services hang instead of failing.
const PortTimeout = 3 * time.Second

// OutPorts lists output port names. A driver must be registered by the
// caller's main package.
func OutPorts(timeout time.Duration) ([]string, error) {
	ports, err := outPorts(timeout)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	return names, nil
}

func outPorts(timeout time.Duration) ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case ports := <-ch:
		return ports, nil
	case <-time.After(timeout):
		return nil, fault.New("midi port scan timed out",
			ftag.With(ftag.Internal),
			fmsg.WithDesc("midi port scan timed out", "The MIDI service did not answer. Restarting it usually helps."),
		)
	}
}

// OpenOutput opens the first output port whose name contains name, ignoring
// case. An empty name picks the first port.
func OpenOutput(name string, clock playback.Clock, timers playback.Timers) (*Output, error) {
	ports, err := outPorts(PortTimeout)
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(name)
	for _, p := range ports {
		if want != "" && !strings.Contains(strings.ToLower(p.String()), want) {
			continue
		}
		send, err := gomidi.SendTo(p)
		if err != nil {
			return nil, fault.Wrap(err, fmsg.With(fmt.Sprintf("open midi port %q", p.String())))
		}
		debug.Info("midi", "sending notes to %s", p.String())
		return NewOutput(p.String(), send, p.Close, clock, timers), nil
	}

	return nil, fault.New(fmt.Sprintf("no midi output matching %q", name),
		ftag.With(ftag.NotFound),
		fmsg.WithDesc(fmt.Sprintf("no midi output matching %q", name), "No matching MIDI output was found. Run the ports command to list them."),
	)
}
