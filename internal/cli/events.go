package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/noderegistry/internal/event"
	"github.com/roach88/noderegistry/internal/store"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	Kind  string // optional - filter to one event kind
	URL   string // optional - filter to events about one url
	After int64  // optional - only events with seq > After
}

// EventsResult holds the listed events.
type EventsResult struct {
	Events []event.Event `json:"events"`
	Stats  EventsStats   `json:"stats"`
}

// EventsStats holds summary statistics for the listing.
type EventsStats struct {
	Listed   int            `json:"listed"`
	Total    int64          `json:"total"`
	ByKind   map[string]int `json:"by_kind"`
	HeadSeq  int64          `json:"head_seq"`
	HeadHash string         `json:"head_hash"`
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List the event log",
		Long: `List committed events in log order.

Each registry mutation appends exactly one event. --kind and --url narrow
the listing; --url matches node events only.

Examples:
  noderegistry events
  noderegistry events --kind node-added
  noderegistry events --url https://node-1.example --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(ctx context.Context, s *session) error {
				return runEvents(ctx, opts, s.store, rootOpts.formatter(cmd))
			})
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one event kind")
	cmd.Flags().StringVar(&opts.URL, "url", "", "filter to events about a url")
	cmd.Flags().Int64Var(&opts.After, "after", 0, "only events after this seq")
	cmd.MarkFlagsMutuallyExclusive("kind", "url")

	return cmd
}

func runEvents(ctx context.Context, opts *EventsOptions, st *store.Store, out *OutputFormatter) error {
	if opts.Kind != "" && !event.Kind(opts.Kind).Valid() {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown event kind %q: must be one of %v", opts.Kind, event.Kinds))
	}

	var (
		events []event.Event
		err    error
	)
	switch {
	case opts.Kind != "":
		events, err = st.ReadEventsByKind(ctx, event.Kind(opts.Kind))
	case opts.URL != "":
		events, err = st.ReadEventsForURL(ctx, opts.URL)
	default:
		events, err = st.ReadEvents(ctx, opts.After)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	events = afterSeq(events, opts.After)

	total, err := st.CountEvents(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count events", err)
	}

	result := EventsResult{
		Events: events,
		Stats: EventsStats{
			Listed: len(events),
			Total:  total,
			ByKind: make(map[string]int),
		},
	}
	for _, ev := range events {
		result.Stats.ByKind[string(ev.Kind)]++
	}
	last, ok, err := st.LastEvent(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read log head", err)
	}
	if ok {
		result.Stats.HeadSeq = last.Seq
		result.Stats.HeadHash = last.Hash
	}

	return out.Emit(result, func(w io.Writer) {
		outputEventsText(w, result, out.Verbose)
	})
}

func afterSeq(events []event.Event, after int64) []event.Event {
	if after <= 0 {
		return events
	}
	kept := events[:0]
	for _, ev := range events {
		if ev.Seq > after {
			kept = append(kept, ev)
		}
	}
	return kept
}

func outputEventsText(w io.Writer, result EventsResult, verbose bool) {
	if len(result.Events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}

	for _, ev := range result.Events {
		fmt.Fprintf(w, "[%d] %s %-21s %-12s %s\n",
			ev.Seq, ev.At.Format(event.TimeFormat), ev.Kind, ev.Actor, describeEvent(ev))
		if verbose {
			fmt.Fprintf(w, "     id=%s hash=%s\n", ev.ID, ev.Hash)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d of %d event(s)\n", result.Stats.Listed, result.Stats.Total)
}

// describeEvent renders the kind-specific part of an event for text output.
func describeEvent(ev event.Event) string {
	switch ev.Kind {
	case event.KindNodeAdded, event.KindNodeStatusChanged:
		return fmt.Sprintf("%s approved=%t", ev.URL, ev.Approved)
	case event.KindNodeRemoved:
		return ev.URL
	case event.KindMetadataUpdated:
		return fmt.Sprintf("version=%s link=%s", ev.Version, ev.DownloadLink)
	default:
		return ev.Subject
	}
}
