// Package session implements the session façade of spec.md §4.5: tokenize
// a prompt, prefill it into an executor, then loop decode steps streaming
// text to an observer until a stop token or the token budget is hit.
package session

import (
	"context"
	"log/slog"

	"github.com/edgegemma/runtime/executor"
	"github.com/edgegemma/runtime/kerrors"
	"github.com/edgegemma/runtime/sample"
	"github.com/edgegemma/runtime/tensor"
	"github.com/edgegemma/runtime/tokenizer"
)

// DoneReason says why Generate stopped, adapted from the teacher's
// llm.DoneReason (llm/server_inference.go) trimmed to the reasons that
// apply to a single, non-HTTP sequence.
type DoneReason int

const (
	DoneReasonStop DoneReason = iota
	DoneReasonLength
	DoneReasonError
)

func (d DoneReason) String() string {
	switch d {
	case DoneReasonStop:
		return "stop"
	case DoneReasonLength:
		return "length"
	case DoneReasonError:
		return "error"
	default:
		return "unknown"
	}
}

// Observer receives the three streaming signals of spec.md §9 ("next
// chunk", "done", "error"). Any type implementing all three methods
// satisfies it; there is no base type to embed.
type Observer interface {
	OnChunk(text string)
	OnDone(reason DoneReason)
	OnError(err error)
}

// Config holds the per-generation knobs spec.md §4.5 names: the set of
// token ids that end generation, a hard token budget, and the sampler
// seam (not yet honored — the executor always greedy-argmaxes).
type Config struct {
	StopTokenIDs map[int32]struct{}
	MaxTokens    int
	Sampler      sample.Sampler
}

// NewConfig builds a Config from a plain slice of stop token ids,
// defaulting Sampler to sample.Greedy{}.
func NewConfig(stopTokenIDs []int32, maxTokens int) Config {
	set := make(map[int32]struct{}, len(stopTokenIDs))
	for _, id := range stopTokenIDs {
		set[id] = struct{}{}
	}
	return Config{StopTokenIDs: set, MaxTokens: maxTokens, Sampler: sample.Greedy{}}
}

// Session ties one executor and tokenizer together to serve Generate
// calls. It is not safe to call Generate concurrently on the same
// Session, matching the executor's own single-threaded contract.
type Session struct {
	exec *executor.Executor
	tok  *tokenizer.Tokenizer
	cfg  Config
}

// New builds a Session over an already-created executor and tokenizer.
func New(exec *executor.Executor, tok *tokenizer.Tokenizer, cfg Config) *Session {
	return &Session{exec: exec, tok: tok, cfg: cfg}
}

// Generate tokenizes prompt, prefills it, then decodes one token at a time
// until a stop token id is sampled or MaxTokens decode steps have run,
// streaming decoded text to observer as soon as it is free of a split
// UTF-8 tail. Decoded text held back by kerrors.IncompleteBPE is retried
// with the next token, exactly as spec.md §4.5 specifies, grounded on the
// teacher's flushPending/stop-matching loop (runner_batch.go,
// runner_compute.go) simplified to one sequence with no batching.
func (s *Session) Generate(ctx context.Context, prompt string, observer Observer) error {
	ids := s.tok.TextToTokenIds(prompt)
	if len(ids) == 0 {
		err := kerrors.New(kerrors.InvalidArgument, "session.Generate", "prompt tokenized to zero ids")
		observer.OnError(err)
		return err
	}

	input := s.exec.Context().FromInts(ids, 1, len(ids))
	if err := s.exec.Prefill(ctx, input); err != nil {
		observer.OnError(err)
		return err
	}

	var pendingIDs []int32
	generated := 0

	for {
		out := s.exec.Context().Empty(tensor.Int32, 1)
		tokenID, err := s.exec.Decode(ctx, nil, out)
		if err != nil {
			observer.OnError(err)
			return err
		}
		generated++

		if _, stop := s.cfg.StopTokenIDs[tokenID]; stop {
			s.flushRemainder(pendingIDs, observer)
			slog.Debug("session hit stop token", "token", tokenID)
			observer.OnDone(DoneReasonStop)
			return nil
		}

		pendingIDs = append(pendingIDs, tokenID)
		text, err := s.tok.TokenIdsToText(pendingIDs)
		switch {
		case kerrors.Is(err, kerrors.IncompleteBPE):
			// Hold the ids and retry once the next token arrives.
		case err != nil:
			observer.OnError(err)
			return err
		default:
			if text != "" {
				observer.OnChunk(text)
			}
			pendingIDs = nil
		}

		if generated >= s.cfg.MaxTokens {
			s.flushRemainder(pendingIDs, observer)
			slog.Debug("session hit max tokens", "maxTokens", s.cfg.MaxTokens)
			observer.OnDone(DoneReasonLength)
			return nil
		}
	}
}

// flushRemainder best-effort decodes any ids still held back by a prior
// IncompleteBPE retry when generation is ending anyway; a tail that is
// still incomplete at end-of-generation is dropped rather than surfaced
// as an error, since there is no further token that could complete it.
func (s *Session) flushRemainder(pendingIDs []int32, observer Observer) {
	if len(pendingIDs) == 0 {
		return
	}
	if text, err := s.tok.TokenIdsToText(pendingIDs); err == nil && text != "" {
		observer.OnChunk(text)
	}
}
