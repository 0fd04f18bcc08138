package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"

	"nhooyr.io/websocket"

	"eusko/core/events"
	"eusko/rpc"
)

func runEventsCommand(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("events", stderr)
	from := fs.Uint64("from", 0, "first sequence number")
	limit := fs.Uint64("limit", 100, "page size")
	eventType := fs.String("type", "", "only events of this type (e.g. ledger.minted)")
	address := fs.String("address", "", "only events mentioning this address")
	follow := fs.Bool("follow", false, "stream new events over the websocket after the backlog")
	maxEvents := fs.Int("max", 0, "stop following after this many events (0: until interrupted)")
	asJSON := fs.Bool("json", false, "print one JSON record per line")
	if !parseFlags(fs, args, stderr) {
		return 1
	}
	if *address != "" {
		if _, ok := parseAddressFlag(stderr, "address", *address); !ok {
			return 1
		}
	}
	emit := func(rec events.Record) {
		if *asJSON {
			data, _ := json.Marshal(rec)
			fmt.Fprintln(stdout, string(data))
			return
		}
		fmt.Fprintln(stdout, formatRecord(rec))
	}

	if *follow {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := followEvents(ctx, *from, *eventType, *address, *maxEvents, emit); err != nil {
			return fail(stderr, err)
		}
		return 0
	}

	ctx, cancel := commandContext()
	defer cancel()
	page, err := newRPCClient().Events(ctx, rpc.EventsParams{From: *from, Limit: *limit, Type: *eventType, Address: *address})
	if err != nil {
		return fail(stderr, err)
	}
	for _, rec := range page.Events {
		emit(rec)
	}
	if !*asJSON {
		fmt.Fprintf(stdout, "next: %d\n", page.Next)
	}
	return 0
}

// eventsStreamURL derives the websocket endpoint from the JSON-RPC URL.
func eventsStreamURL(endpoint string, from uint64, eventType, address string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", fmt.Errorf("invalid rpc endpoint: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported rpc scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/events"
	q := url.Values{}
	q.Set("from", strconv.FormatUint(from, 10))
	if eventType != "" {
		q.Set("type", eventType)
	}
	if address != "" {
		q.Set("address", address)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func followEvents(ctx context.Context, from uint64, eventType, address string, maxEvents int, emit func(events.Record)) error {
	target, err := eventsStreamURL(rpcEndpoint, from, eventType, address)
	if err != nil {
		return err
	}
	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", target, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	seen := 0
	for maxEvents <= 0 || seen < maxEvents {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return err
		}
		var rec events.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		emit(rec)
		seen++
	}
	return nil
}

func formatRecord(rec events.Record) string {
	keys := make([]string, 0, len(rec.Attributes))
	for k := range rec.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+rec.Attributes[k])
	}
	return fmt.Sprintf("#%d h=%d %s %s", rec.Sequence, rec.Height, rec.Type, strings.Join(parts, " "))
}
