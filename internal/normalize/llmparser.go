package normalize

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/sells-group/grant-review/internal/llm"
	"github.com/sells-group/grant-review/internal/model"
)

const extractPrompt = `Extract the key elements of the following submission.

Respond with a single JSON object and nothing else:
{
  "summary": "concise summary, at most %d words",
  "arguments": {"for": ["..."], "against": ["..."]},
  "risk_factors": ["..."],
  "opportunity_factors": ["..."],
  "economic_implications": ["..."]
}

Use at most %d items per list. Use empty lists when nothing applies.

SUBMISSION:
%s`

// LLMParser asks the model to extract a ParsedInput and falls back to the
// heuristic parser when the call fails or the response is not JSON.
type LLMParser struct {
	gen       llm.Generator
	heuristic *HeuristicParser
	opts      Options
}

// NewLLMParser creates an LLMParser.
func NewLLMParser(gen llm.Generator, opts Options) *LLMParser {
	opts = opts.withDefaults()
	return &LLMParser{gen: gen, heuristic: NewHeuristicParser(opts), opts: opts}
}

// Parse implements Parser.
func (p *LLMParser) Parse(ctx context.Context, raw any) model.ParsedInput {
	return safely(raw, p.opts.SummaryMaxWords, func() model.ParsedInput {
		text := textOf(raw)
		if strings.TrimSpace(text) == "" {
			return model.ParsedInput{}
		}

		resp, err := p.gen.Generate(ctx, fmt.Sprintf(extractPrompt, p.opts.SummaryMaxWords, p.opts.MaxItems, text))
		if err != nil {
			zap.L().Warn("normalize: extraction call failed, using heuristic parser", zap.Error(err))
			return p.heuristic.Parse(ctx, raw)
		}

		obj, ok := llm.ExtractObject(resp)
		if !ok {
			zap.L().Warn("normalize: extraction response is not JSON, using heuristic parser",
				zap.Int("response_len", len(resp)))
			return p.heuristic.Parse(ctx, raw)
		}

		out := p.fromJSON(obj)
		if out.Summary == "" {
			out.Summary = truncateWords(strings.Join(strings.Fields(text), " "), p.opts.SummaryMaxWords)
		}
		return out
	})
}

func (p *LLMParser) fromJSON(obj string) model.ParsedInput {
	n := p.opts.MaxItems
	return model.ParsedInput{
		Summary: truncateWords(gjson.Get(obj, "summary").String(), p.opts.SummaryMaxWords),
		Arguments: model.Arguments{
			For:     capList(llm.StringList(obj, "arguments.for"), n),
			Against: capList(llm.StringList(obj, "arguments.against"), n),
		},
		RiskFactors:          capList(llm.StringList(obj, "risk_factors"), n),
		OpportunityFactors:   capList(llm.StringList(obj, "opportunity_factors"), n),
		EconomicImplications: capList(llm.StringList(obj, "economic_implications"), n),
	}
}
