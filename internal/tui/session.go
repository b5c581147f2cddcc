package tui

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/create-enfyra-be/internal/pipeline"
)

// Session drives a Model from pipeline events. Interactive sessions run a
// bubbletea program; otherwise the model is updated in place and its final
// view is written once the run is over.
type Session struct {
	interactive bool
	out         io.Writer
	state       Model
	program     *tea.Program
	programErr  error
	done        chan struct{}
}

// Start begins a session for m. When interactive is false nothing is drawn
// until Finish.
func Start(m Model, interactive bool, out io.Writer) *Session {
	s := &Session{
		interactive: interactive,
		out:         out,
		state:       m,
		done:        make(chan struct{}),
	}

	if interactive {
		s.program = tea.NewProgram(m, tea.WithOutput(out))
		go func() {
			_, s.programErr = s.program.Run()
			close(s.done)
		}()
	} else {
		close(s.done)
	}
	return s
}

// Observe is a pipeline.Observer.
func (s *Session) Observe(event pipeline.Event) {
	if msg := FromEvent(event); msg != nil {
		s.dispatch(msg)
	}
}

// Finish marks the run as over and waits for the program to exit.
func (s *Session) Finish(runErr error) error {
	s.dispatch(DoneMsg{Err: runErr})
	<-s.done
	if !s.interactive {
		fmt.Fprint(s.out, s.state.View())
	}
	return s.programErr
}

func (s *Session) dispatch(msg tea.Msg) {
	if s.interactive {
		if s.program != nil {
			s.program.Send(msg)
		}
		return
	}

	updated, _ := s.state.Update(msg)
	if m, ok := updated.(Model); ok {
		s.state = m
	}
}
