package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/vyaapaar/dashcore/pkg/clock"
	"github.com/vyaapaar/dashcore/pkg/conversation"
	"github.com/vyaapaar/dashcore/pkg/metrics"
	"github.com/vyaapaar/dashcore/pkg/model"
	"github.com/vyaapaar/dashcore/pkg/schedule"
)

func (a *app) cmdSend(args []string) int {
	flags := flag.NewFlagSet("send", flag.ContinueOnError)
	flags.SetOutput(a.errOut)
	surfaceName := flags.String("surface", "assistant", "assistant or channel")
	jsonOut := flags.Bool("json", false, "JSON output")
	timeout := flags.Duration("timeout", 30*time.Second, "give up waiting for the reply after this long")
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() < 1 {
		fmt.Fprintln(a.errOut, "usage: vy send [--surface assistant|channel] <text>")
		return 1
	}
	text := strings.Join(flags.Args(), " ")

	surface, ok := model.ParseSurface(*surfaceName)
	if !ok {
		return a.fail("send", &model.ValidationError{Field: "surface", Reason: fmt.Sprintf("unknown surface %q", *surfaceName)})
	}
	profile, _ := conversation.ProfileFor(surface)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	st, err := a.converse(ctx, profile, text, func(line string) {
		if !*jsonOut {
			fmt.Fprintln(a.out, line)
		}
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("no reply within %s", *timeout)
		}
		return a.fail("send", err)
	}
	if *jsonOut {
		a.printJSON(st)
	}
	return 0
}

// converse submits text on a fresh real-time conversation and waits until
// the message has settled and its reply has landed. Progress lines go to
// emit. Returns the final state.
func (a *app) converse(ctx context.Context, profile conversation.Profile, text string, emit func(string)) (model.ConversationState, error) {
	rnd := a.random()
	lib, err := a.replyLibrary(rnd)
	if err != nil {
		return model.ConversationState{}, err
	}

	sched := schedule.New(clock.Real{})
	feed := metrics.NewFeed(a.store, sched, metrics.WithBudget(a.cfg.Budget()), metrics.WithLogger(a.log))
	ctrl, err := conversation.New("", profile, sched, lib,
		conversation.WithRandom(rnd),
		conversation.WithUsageSink(feed),
		conversation.WithLogger(a.log),
	)
	if err != nil {
		return model.ConversationState{}, err
	}

	runCtx, stopRun := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = sched.Run(runCtx)
	}()
	defer func() {
		stopRun()
		wg.Wait()
		ctrl.Close()
		feed.Wait()
	}()

	target := model.StatusDelivered
	if profile.MarkSeenOnReply {
		target = model.StatusSeen
	}

	var (
		mu      sync.Mutex
		localID string
		seen    uint64
		last    = model.DeliveryStatus(-1)
		replies int
		final   model.ConversationState
	)
	done := make(chan struct{})
	observe := func(st model.ConversationState) {
		mu.Lock()
		defer mu.Unlock()
		if localID == "" || st.Version <= seen || final.Version != 0 {
			return
		}
		seen = st.Version
		m, ok := st.Find(localID)
		if !ok {
			return
		}
		if m.Status != last {
			last = m.Status
			emit(fmt.Sprintf("  %s %s", sched.Now().Format("15:04:05.000"), m.Status))
		}
		var got []model.Message
		for _, r := range st.Messages {
			if r.Origin == model.OriginCounterpart && r.Seq > m.Seq {
				got = append(got, r)
			}
		}
		for _, r := range got[replies:] {
			line := fmt.Sprintf("%s: %s", profile.Surface, r.Content)
			if r.Cost != nil {
				line += fmt.Sprintf(" (%d tokens)", *r.Cost)
			}
			emit(line)
		}
		replies = len(got)
		if replies > 0 && m.Status >= target && !st.CounterpartTyping {
			final = st
			close(done)
		}
	}
	unsubscribe := ctrl.Subscribe(observe)
	defer unsubscribe()

	id, err := ctrl.Submit(text)
	if err != nil {
		return model.ConversationState{}, err
	}
	emit(fmt.Sprintf("you: %s", text))
	mu.Lock()
	localID = id
	mu.Unlock()
	observe(ctrl.State())

	select {
	case <-done:
		mu.Lock()
		defer mu.Unlock()
		return final, nil
	case <-ctx.Done():
		return model.ConversationState{}, ctx.Err()
	}
}
