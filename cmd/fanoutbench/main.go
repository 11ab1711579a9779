package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/d60-Lab/fanout-debugger/config"
	"github.com/d60-Lab/fanout-debugger/internal/app"
	"github.com/d60-Lab/fanout-debugger/internal/model"
)

// fanoutbench 测量 comment 事件的 fanout 与批量重放延迟
//
//	FOLLOWERS   作者的粉丝数（默认 200）
//	REPEAT      事件条数（默认 50）
//	WORKERS     重放 worker 数（默认取 replay.workers）
func main() {
	cfg, err := config.Load()
	must(err)
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	must(err)
	defer a.Close()

	FOLLOWERS := envInt("FOLLOWERS", 200)
	REPEAT := envInt("REPEAT", 50)
	WORKERS := envInt("WORKERS", cfg.Replay.Workers)

	// prepare author + followers
	run := time.Now().UnixNano()
	author := &model.User{Username: fmt.Sprintf("bench_author_%d", run)}
	must(a.Users.Create(ctx, author))
	commenter := &model.User{Username: fmt.Sprintf("bench_commenter_%d", run)}
	must(a.Users.Create(ctx, commenter))
	for i := 0; i < FOLLOWERS; i++ {
		f := &model.User{Username: fmt.Sprintf("bench_f_%d_%05d", run, i)}
		must(a.Users.Create(ctx, f))
		must(a.Followers.Create(ctx, f.ID, author.ID))
	}

	// fanout
	eventIDs := make([]string, 0, REPEAT)
	process := make([]time.Duration, 0, REPEAT)
	for i := 0; i < REPEAT; i++ {
		st := time.Now()
		res, err := a.Engine.ProcessEvent(ctx, model.CreateEventInput{
			ActorID:  commenter.ID,
			Type:     model.EventTypeComment,
			TargetID: author.ID,
			Metadata: map[string]any{"bench": i},
		})
		must(err)
		process = append(process, time.Since(st))
		eventIDs = append(eventIDs, res.Event.ID)
	}

	// bulk replay through the queue
	stop := a.ReplayQueue.Start(WORKERS)
	st := time.Now()
	for _, id := range eventIDs {
		for !a.ReplayQueue.Enqueue(id) {
			time.Sleep(time.Millisecond)
		}
	}
	replays := make([]time.Duration, 0, len(eventIDs))
	failed := 0
	for range eventIDs {
		out := <-a.ReplayQueue.Results()
		if out.Err != nil {
			failed++
			continue
		}
		replays = append(replays, out.Latency)
	}
	wall := time.Since(st)
	must(stop(ctx))

	fmt.Printf("FOLLOWERS=%d REPEAT=%d WORKERS=%d\n", FOLLOWERS, REPEAT, WORKERS)
	fmt.Printf("ProcessEvent: avg=%v p95=%v p99=%v\n", avg(process), pct(process, 0.95), pct(process, 0.99))
	if len(replays) > 0 {
		fmt.Printf("Queued replay: avg=%v p95=%v p99=%v wall=%v failed=%d\n", avg(replays), pct(replays, 0.95), pct(replays, 0.99), wall, failed)
	} else {
		fmt.Printf("Queued replay: all %d failed\n", failed)
	}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			return v
		}
	}
	return def
}

func avg(vs []time.Duration) time.Duration {
	var sum time.Duration
	for _, d := range vs {
		sum += d
	}
	return sum / time.Duration(len(vs))
}

func pct(vs []time.Duration, p float64) time.Duration {
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(float64(len(xs)) * p)
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}
