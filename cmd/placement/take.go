package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lshigami/placement/internal/session"
	"github.com/rs/zerolog/log"
)

var (
	errQuit          = errors.New("quit")
	// errStop ends the input loop after a terminal screen was shown.
	errStop          = errors.New("stop")
	// errInvalidChoice is reported locally without contacting the API.
	errInvalidChoice = errors.New("not one of the options")
)

// remaining-time marks announced while the test runs
var timeWarnings = []time.Duration{10 * time.Minute, 5 * time.Minute, time.Minute, 10 * time.Second}

type completionEvent struct {
	attemptID string
	err       error
}

// listener forwards completion outcomes to the input loop.
type listener struct {
	events chan completionEvent
}

func (l *listener) OnCompleted(attemptID string) {
	l.events <- completionEvent{attemptID: attemptID}
}

func (l *listener) OnCompletionFailed(err error) {
	select {
	case l.events <- completionEvent{err: err}:
	default:
	}
}

func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return lines
}

func (a *app) take(ctx context.Context, attemptID string, in io.Reader) error {
	l := &listener{events: make(chan completionEvent, 8)}
	ticks := make(chan session.Tick, 1)

	sess, err := session.Open(ctx, a.api, attemptID, session.Options{
		Listener:     l,
		TickInterval: a.cfg.TickInterval,
		OnTick: func(t session.Tick) {
			select {
			case ticks <- t:
			default:
			}
		},
	})
	if err != nil {
		if errors.Is(err, session.ErrSessionInvalid) {
			a.render.Invalid(err)
			return nil
		}
		a.render.Error(err)
		return err
	}
	defer sess.Close()

	lines := readLines(in)
	a.render.Notice("Commands: :skip  :goto N  :grid  :time  :refresh  :retry  :quit")
	sess.Start(ctx)
	if sess.Phase() == session.PhaseInProgress {
		a.showQuestion(sess)
	}

	warned := map[time.Duration]bool{}
	for {
		select {
		case <-ctx.Done():
			a.render.Notice("\nInterrupted. The attempt keeps running; continue with: placement take %s", attemptID)
			return nil

		case ev := <-l.events:
			if ev.err != nil {
				a.render.Error(fmt.Errorf("submitting the test failed: %w", ev.err))
				a.render.Notice("Type :retry to try again.")
				continue
			}
			a.render.Info("Test submitted.")
			return a.showResult(ctx, ev.attemptID)

		case t := <-ticks:
			for _, w := range timeWarnings {
				if t.Remaining > 0 && t.Remaining <= w && !warned[w] {
					warned[w] = true
					a.render.Notice("%s left", t.Formatted)
					break
				}
			}

		case line, ok := <-lines:
			if !ok {
				a.render.Notice("Input closed. The attempt keeps running; continue with: placement take %s", attemptID)
				return nil
			}
			if err := a.handle(ctx, sess, strings.TrimSpace(line)); err != nil {
				if errors.Is(err, errQuit) {
					a.render.Notice("Leaving. The timer keeps running; continue with: placement take %s", attemptID)
					return nil
				}
				if errors.Is(err, errStop) {
					return nil
				}
				return err
			}
		}
	}
}

func (a *app) handle(ctx context.Context, sess *session.Session, line string) error {
	if strings.HasPrefix(line, ":") {
		return a.command(ctx, sess, line)
	}

	switch sess.Phase() {
	case session.PhaseCompleting:
		a.render.Notice("Your test is being submitted.")
		return nil
	case session.PhaseCompleted:
		return nil
	}

	answer, err := resolveAnswer(sess.Navigator(), line)
	if err != nil {
		a.render.Error(err)
		return nil
	}
	err = sess.Submit(ctx, answer)
	var subErr *session.SubmitError
	switch {
	case err == nil:
	case errors.Is(err, session.ErrSessionInvalid):
		a.render.Invalid(err)
		return errStop
	case errors.Is(err, session.ErrSessionClosed):
		a.render.Notice("Time is up, your test is being submitted.")
		return nil
	case errors.As(err, &subErr) && subErr.Retryable:
		a.render.Error(err)
		a.render.Notice("Nothing was saved. Enter your answer again to retry.")
		return nil
	default:
		a.render.Error(err)
		return nil
	}

	if sess.Phase() == session.PhaseInProgress {
		a.showQuestion(sess)
	}
	return nil
}

func (a *app) command(ctx context.Context, sess *session.Session, line string) error {
	fields := strings.Fields(line)
	var err error
	switch fields[0] {
	case ":quit", ":q":
		return errQuit
	case ":skip", ":s":
		err = sess.Skip()
	case ":goto", ":g":
		if len(fields) != 2 {
			a.render.Notice("usage: :goto N")
			return nil
		}
		n, perr := strconv.Atoi(fields[1])
		if perr != nil {
			a.render.Notice("usage: :goto N")
			return nil
		}
		err = sess.GoTo(n - 1)
	case ":grid":
		a.render.Grid(sess.Navigator())
		return nil
	case ":time":
		a.render.Notice("%s left", sess.Countdown().Formatted())
		return nil
	case ":refresh":
		err = sess.Refresh(ctx)
	case ":retry":
		if rerr := sess.RetryCompletion(ctx); rerr != nil && !errors.Is(rerr, session.ErrNothingToRetry) {
			log.Debug().Err(rerr).Msg("retry completion")
		}
		return nil
	default:
		a.render.Notice("unknown command %s", fields[0])
		return nil
	}

	if errors.Is(err, session.ErrSessionInvalid) {
		a.render.Invalid(err)
		return errStop
	}
	if err != nil {
		a.render.Error(err)
		return nil
	}
	if sess.Phase() == session.PhaseInProgress {
		a.showQuestion(sess)
	}
	return nil
}

// resolveAnswer maps "b", "2" or the option text to the matching option of a
// choice question. Anything else is rejected before it reaches the API.
func resolveAnswer(nav session.Navigator, input string) (string, error) {
	if nav.Affordance != session.AffordanceChoice || len(nav.Options) == 0 || strings.TrimSpace(input) == "" {
		return input, nil
	}
	input = strings.TrimSpace(input)
	if len(input) == 1 {
		if i := int(strings.ToLower(input)[0]) - 'a'; i >= 0 && i < len(nav.Options) {
			return nav.Options[i], nil
		}
	}
	if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= len(nav.Options) {
		return nav.Options[n-1], nil
	}
	for _, o := range nav.Options {
		if strings.EqualFold(o, input) {
			return o, nil
		}
	}
	return "", fmt.Errorf("%w: %q, pick a-%c or 1-%d", errInvalidChoice, input, 'a'+rune(len(nav.Options)-1), len(nav.Options))
}

func (a *app) showQuestion(sess *session.Session) {
	a.render.Question(sess.Navigator(), sess.Countdown().Formatted())
}

func (a *app) showResult(ctx context.Context, attemptID string) error {
	res, err := a.api.GetResult(ctx, attemptID)
	if err != nil {
		a.render.Error(err)
		return err
	}
	a.render.Result(res)
	return nil
}
