// Package translate implements chunked document translation: the input is
// split on a delimiter, segments are folded into chunks that fit the model's
// token budget, and each chunk is sent to a chat-completion backend in order.
// Results are joined with the same delimiter.
package translate

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/minios-linux/gptrans/i18n"
	"github.com/minios-linux/gptrans/tokenizer"
)

// DefaultSplitter separates paragraphs.
const DefaultSplitter = "\n\n"

// Completer sends one chunk to the remote model and returns its answer.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userText string) (string, error)
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// Options controls a Translator.
type Options struct {
	// Model is the model identifier; it selects the token budget.
	Model string
	// PromptTemplate is the system prompt with {targetLanguage} and
	// {targetFileExt} placeholders. Empty means DefaultPrompt.
	PromptTemplate string
	// Splitter is the segment delimiter. Empty means DefaultSplitter.
	Splitter string
	// Estimator counts tokens. Nil means tokenizer.CharEstimator.
	Estimator tokenizer.Estimator
	// Logger receives progress messages. Nil means the logrus standard logger.
	Logger logrus.FieldLogger
}

func (o Options) splitter() string {
	if o.Splitter == "" {
		return DefaultSplitter
	}
	return o.Splitter
}

func (o Options) promptTemplate() string {
	if o.PromptTemplate == "" {
		return DefaultPrompt
	}
	return o.PromptTemplate
}

func (o Options) estimator() tokenizer.Estimator {
	if o.Estimator == nil {
		return tokenizer.CharEstimator{}
	}
	return o.Estimator
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger == nil {
		return logrus.StandardLogger()
	}
	return o.Logger
}

// ---------------------------------------------------------------------------
// Translator
// ---------------------------------------------------------------------------

// Translator runs the chunk/translate loop against a Completer.
// Chunks are translated strictly one after another.
type Translator struct {
	completer Completer
	opts      Options
}

// New returns a Translator that sends chunks to c.
func New(c Completer, opts Options) *Translator {
	return &Translator{completer: c, opts: opts}
}

// Chunk is one planned request.
type Chunk struct {
	Index  int
	Text   string
	Tokens int
}

// Translate translates text into targetLanguage. targetFileExt is only
// substituted into the prompt. Every chunk boundary falls on a splitter;
// the first failing chunk aborts the run and no partial output is returned.
func (t *Translator) Translate(ctx context.Context, text, targetLanguage, targetFileExt string) (string, error) {
	splitter := t.opts.splitter()
	planner := tokenizer.NewPlanner(t.opts.estimator(), t.opts.Model)
	prompt := RenderPrompt(t.opts.promptTemplate(), targetLanguage, targetFileExt)

	log := t.opts.logger().WithFields(logrus.Fields{
		"run_id": uuid.NewString(),
		"model":  t.opts.Model,
		"lang":   targetLanguage,
	})
	log.Infof(i18n.T("%s Start translating with %s..."), time.Now().Format(time.DateTime), t.opts.Model)

	var out strings.Builder
	index := 0
	err := fold(Split(text, splitter), splitter, planner, func(chunk string, final bool) error {
		index++
		log.WithFields(logrus.Fields{
			"chunk":  index,
			"tokens": planner.Estimator.EstimateTokens(chunk),
			"budget": planner.Budget,
		}).Debug("sending chunk")

		result, err := t.completer.Complete(ctx, prompt, chunk)
		if err != nil {
			return &RemoteCallError{Chunk: index, Err: err}
		}
		if result == "" {
			log.WithField("chunk", index).Info(i18n.T("Possible error: translation result is empty"))
		}

		out.WriteString(result)
		if !final {
			out.WriteString(splitter)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	log.WithField("chunks", index).Info(i18n.T("Translation completed!"))
	return out.String(), nil
}

// Plan returns the chunks Translate would send for text, without calling
// the remote model.
func (t *Translator) Plan(text string) []Chunk {
	splitter := t.opts.splitter()
	planner := tokenizer.NewPlanner(t.opts.estimator(), t.opts.Model)

	var chunks []Chunk
	_ = fold(Split(text, splitter), splitter, planner, func(chunk string, _ bool) error {
		chunks = append(chunks, Chunk{
			Index:  len(chunks) + 1,
			Text:   chunk,
			Tokens: planner.Estimator.EstimateTokens(chunk),
		})
		return nil
	})
	return chunks
}

// Budget returns the per-chunk token budget for the configured model.
func (t *Translator) Budget() int {
	return tokenizer.Budget(t.opts.Model)
}

// ---------------------------------------------------------------------------
// Splitting and folding
// ---------------------------------------------------------------------------

// Split cuts text on splitter. strings.Join(Split(text, s), s) == text.
func Split(text, splitter string) []string {
	return strings.Split(text, splitter)
}

// fold accumulates segments into a buffer joined by splitter and calls
// flush whenever adding the next segment would push a buffer holding at
// least one segment over the budget. A held segment counts even when it is
// the empty string, so leading splitters form their own chunk. The final
// buffer is always flushed, even when empty. A single segment larger than
// the budget is flushed whole.
func fold(segments []string, splitter string, p tokenizer.Planner, flush func(chunk string, final bool) error) error {
	var buf strings.Builder
	held := 0 // segments currently in buf

	for _, seg := range segments {
		if held > 0 && p.Overflows(buf.String()+splitter+seg) {
			if err := flush(buf.String(), false); err != nil {
				return err
			}
			buf.Reset()
			held = 0
		}
		if held > 0 {
			buf.WriteString(splitter)
		}
		buf.WriteString(seg)
		held++
	}

	return flush(buf.String(), true)
}
