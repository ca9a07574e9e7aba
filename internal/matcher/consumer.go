package matcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strings"

	"talentos/internal/domain"
)

// State is the lifecycle of one stream consumption. Transitions are
// one-way: Idle -> Streaming -> one of the terminal states.
type State string

const (
	StateIdle      State = "idle"
	StateStreaming State = "streaming"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// Outcome is what consuming one scoring stream produced. Matches carries
// whatever was merged before the terminal transition, including on
// cancellation. Partial marks a degraded completion, where the stream
// ended without an authoritative complete event but partial results had
// already arrived.
type Outcome struct {
	State    State
	Matches  []domain.CandidateMatch
	Partial  bool
	Progress int
}

// Consumer reads one server-sent-event scoring stream and folds its
// frames into a merged result set. It is single-use.
type Consumer struct {
	// submitted is the number of candidates sent for scoring. It is the
	// progress denominator floor when the stream under-reports totals.
	submitted int

	// onProgress, when set, is called with each new progress percentage.
	onProgress func(pct int)

	state   State
	results *MergedResultSet
}

func NewConsumer(submitted int, onProgress func(pct int)) *Consumer {
	return &Consumer{
		submitted:  submitted,
		onProgress: onProgress,
		state:      StateIdle,
		results:    NewMergedResultSet(),
	}
}

// Consume reads frames until a terminal event, end of stream, or context
// cancellation. Cancellation is honored within one frame: accumulated
// matches are preserved in the outcome. A stream that ends with nothing
// merged and no complete event fails with domain.ErrNoResults.
func (c *Consumer) Consume(ctx context.Context, r io.Reader) (*Outcome, error) {
	if c.state != StateIdle {
		return nil, fmt.Errorf("matcher.Consume: consumer already used (state %s)", c.state)
	}
	c.state = StateStreaming

	progress := 0
	sawPartial := false
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventName string
	var data strings.Builder

	for {
		if err := ctx.Err(); err != nil {
			c.state = StateCancelled
			return c.outcome(sawPartial, progress), nil
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()

		switch {
		case line == "":
			if eventName == "" && data.Len() == 0 {
				continue
			}
			ev, err := decodeEvent(eventName, []byte(data.String()))
			eventName = ""
			data.Reset()
			if err != nil {
				log.Printf("matcher.Consume: skipping frame: %v", err)
				continue
			}
			switch ev.Type {
			case EventPartial:
				c.results.Merge(ev.Matches)
				sawPartial = sawPartial || len(ev.Matches) > 0
				progress = computeProgress(ev.ProcessedCount, ev.TotalCount, c.submitted)
				if c.onProgress != nil {
					c.onProgress(progress)
				}
			case EventComplete:
				c.results.Replace(ev.Matches)
				c.state = StateCompleted
				if c.onProgress != nil {
					c.onProgress(100)
				}
				return &Outcome{State: StateCompleted, Matches: c.results.Sorted(), Progress: 100}, nil
			case EventError:
				return c.finishDegraded(sawPartial, progress, errors.New(ev.Message))
			case EventLog:
				if !isNoise(ev.Level, ev.LogText) {
					log.Printf("matcher.Consume: upstream %s: %s", ev.Level, ev.LogText)
				}
			}
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		case strings.HasPrefix(line, ":"):
			// comment frame, ignored
		default:
			log.Printf("matcher.Consume: ignoring malformed line %q", line)
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			c.state = StateCancelled
			return c.outcome(sawPartial, progress), nil
		}
		return c.finishDegraded(sawPartial, progress, err)
	}
	// Clean end of stream without a complete event.
	return c.finishDegraded(sawPartial, progress, io.ErrUnexpectedEOF)
}

// finishDegraded resolves a stream that ended without an authoritative
// complete event. With partial results in hand the job completes in a
// degraded state; with nothing merged it fails.
func (c *Consumer) finishDegraded(sawPartial bool, progress int, cause error) (*Outcome, error) {
	if sawPartial && c.results.Len() > 0 {
		log.Printf("matcher.Consume: completing with partial results: %v", cause)
		c.state = StateCompleted
		out := c.outcome(true, progress)
		return out, nil
	}
	c.state = StateFailed
	if errors.Is(cause, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("matcher.Consume: %w", domain.ErrNoResults)
	}
	return nil, fmt.Errorf("matcher.Consume: stream failed: %w", cause)
}

func (c *Consumer) outcome(partial bool, progress int) *Outcome {
	return &Outcome{
		State:    c.state,
		Matches:  c.results.Sorted(),
		Partial:  partial,
		Progress: progress,
	}
}

// computeProgress maps processed/total onto a whole percentage, clamped
// to [0,100]. The submitted count floors the denominator so an
// under-reporting stream can never show more progress than is real.
func computeProgress(processed, total, submitted int) int {
	denom := total
	if submitted > denom {
		denom = submitted
	}
	if denom <= 0 {
		return 0
	}
	pct := int(math.Round(float64(processed) / float64(denom) * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// isNoise filters upstream log frames that carry no operator value.
func isNoise(level, msg string) bool {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return true
	}
	lower := strings.ToLower(msg)
	for _, kw := range []string{"heartbeat", "keep-alive", "keepalive", "ping"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
