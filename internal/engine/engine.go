package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/hurttlocker/prontex/internal/digest"
	"github.com/hurttlocker/prontex/internal/textnorm"
)

// Oracle is the external disambiguation capability. Implementations do
// transport only; prompt construction and answer interpretation stay
// here. Any transport, timeout, or HTTP failure comes back as an error
// and the engine degrades to the rule-based result.
type Oracle interface {
	Ask(ctx context.Context, system, user string) (string, error)
}

// Engine resolves every declared field for one record. Safe to reuse
// across records; it holds no per-record state.
type Engine struct {
	oracle Oracle
	digest digest.Config
	logf   func(format string, args ...any)
}

// Option configures an Engine.
type Option func(*Engine)

// WithOracle enables the external disambiguation gate. A nil oracle
// leaves extraction purely rule-based.
func WithOracle(o Oracle) Option {
	return func(e *Engine) { e.oracle = o }
}

// WithDigestConfig overrides the digest bounds.
func WithDigestConfig(cfg digest.Config) Option {
	return func(e *Engine) { e.digest = cfg }
}

// WithLogf routes diagnostic messages (oracle failures, gate
// decisions). Default discards them.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(e *Engine) { e.logf = logf }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		digest: digest.DefaultConfig(),
		logf:   func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract resolves the full declared field set for one record. Each
// record is independent; errors never escape, per-field failures
// resolve to the absent marker.
func (e *Engine) Extract(ctx context.Context, d *Document) Result {
	r := make(Result, len(fieldTable))
	for _, desc := range fieldTable {
		r[desc.Name] = e.resolveField(ctx, d, desc, r)
	}
	return r
}

func (e *Engine) resolveField(ctx context.Context, d *Document, desc Descriptor, r Result) Value {
	if desc.Derive != nil {
		return desc.Derive(d, r)
	}

	cands := desc.Generate(d)
	ruleVal := e.ruleResult(desc, cands)

	if e.oracle == nil || desc.Merge == MergeRuleOnly {
		return ruleVal
	}
	consult := desc.Merge == MergeOracleFirst ||
		(desc.Merge == MergeRuleFirst && ambiguous(cands, desc.Threshold))
	if !consult {
		return ruleVal
	}

	oracleVal, ok := e.consult(ctx, d, desc)
	if !ok {
		return ruleVal
	}
	return oracleVal
}

// ruleResult walks the ranking and takes the first candidate whose raw
// token survives the field's domain parse.
func (e *Engine) ruleResult(desc Descriptor, cands []Candidate) Value {
	for _, c := range cands {
		if v, ok := desc.parse(c.Raw); ok {
			return v
		}
	}
	return Absent()
}

const systemPrompt = "Você extrai informações médicas de prontuários com precisão."

const userPromptFormat = `Você é um especialista em extração de informações médicas de prontuários.

Tarefa: Extrair o valor de "%s" (%s) do texto abaixo.

Formato esperado: %s

INSTRUÇÕES:
1. Procure o valor mais relevante e confiável para o paciente principal
2. Se houver múltiplas ocorrências, escolha a que está mais próxima de contexto pré-operatório ou da cirurgia principal
3. Retorne APENAS o valor, sem explicações
4. Se não encontrar, retorne "None"
5. Para valores numéricos, retorne apenas o número
6. Para valores categóricos, retorne exatamente como aparece no texto (normalizado)

Texto:
%s
`

// Answers that mean "the record does not say".
var sentinelAnswers = map[string]bool{
	"none":           true,
	"nao encontrado": true,
	"n/a":            true,
	"na":             true,
}

// consult runs one oracle round trip for a field. The second return is
// false whenever the rule-based result should stand: transport failure,
// sentinel answer, or an answer outside the field's domain.
func (e *Engine) consult(ctx context.Context, d *Document, desc Descriptor) (Value, bool) {
	dg := d.Digest(e.digest)
	user := fmt.Sprintf(userPromptFormat, desc.Name, desc.Domain.Hint, desc.Domain.Format, dg)

	answer, err := e.oracle.Ask(ctx, systemPrompt, user)
	if err != nil {
		e.logf("oracle: %s: %v", desc.Name, err)
		return Absent(), false
	}
	answer = strings.TrimSpace(answer)
	if sentinelAnswers[textnorm.Normalize(answer)] {
		return Absent(), false
	}
	v, ok := desc.parse(answer)
	if !ok {
		e.logf("oracle: %s: answer %q outside domain", desc.Name, answer)
		return Absent(), false
	}
	return v, true
}

// Digest returns the record's relevant-context digest, built at most
// once per document.
func (d *Document) Digest(cfg digest.Config) string {
	if d.digest == "" {
		d.digest = digest.Build(d.Norm, d.Anchor, cfg)
	}
	return d.digest
}
