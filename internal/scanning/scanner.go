package scanning

import (
	"context"
	"image"
	"log/slog"
	"time"

	"github.com/Zikrig/garantee-datamatrix/internal/convert"
)

// Variant is one transformed copy of the input image used as a decode attempt
type Variant struct {
	Name  string
	Image image.Image
}

// Decoder decodes the payloads visible in a single image under one parameter profile
type Decoder interface {
	Decode(img image.Image, p Profile) ([]string, error)
}

// Engine sweeps image variants and decoder profiles until a code is found.
// An Engine holds no mutable state and is safe for concurrent use.
type Engine struct {
	decoder  Decoder
	toolkit  Toolkit
	profiles []Profile
	budget   time.Duration
}

// DefaultBudget bounds one sweep. A photo without a code is reported as such once it runs out.
const DefaultBudget = 20 * time.Second

// Option configures an Engine
type Option func(*Engine)

// WithDecoder replaces the DataMatrix decoder
func WithDecoder(d Decoder) Option {
	return func(e *Engine) {
		e.decoder = d
	}
}

// WithToolkit sets the collaborator that produces the threshold variant family.
// Pass NoToolkit{} when that family is unavailable.
func WithToolkit(t Toolkit) Option {
	return func(e *Engine) {
		e.toolkit = t
	}
}

// WithProfiles replaces the ordered decoder profile list
func WithProfiles(profiles []Profile) Option {
	return func(e *Engine) {
		e.profiles = profiles
	}
}

// WithBudget bounds the time one sweep may take. Zero means no limit.
func WithBudget(d time.Duration) Option {
	return func(e *Engine) {
		e.budget = d
	}
}

// NewEngine creates an Engine with the DataMatrix decoder, the threshold toolkit and
// DefaultProfiles unless overridden
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		decoder:  DataMatrix{},
		toolkit:  Thresholds{},
		profiles: DefaultProfiles,
		budget:   DefaultBudget,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.toolkit == nil {
		e.toolkit = NoToolkit{}
	}
	return e
}

var defaultEngine = NewEngine()

// ExtractCodes runs the default engine over image bytes
func ExtractCodes(data []byte) []string {
	return defaultEngine.ExtractCodes(data)
}

// ExtractCodes returns the unique decoded payloads in discovery order.
// Undecodable input yields an empty slice.
func (e *Engine) ExtractCodes(data []byte) []string {
	return e.ExtractCodesContext(context.Background(), data)
}

// ExtractCodesContext is ExtractCodes that also stops between attempts once ctx is done
// or the engine's budget is spent, returning whatever was found so far.
func (e *Engine) ExtractCodesContext(ctx context.Context, data []byte) (codes []string) {
	if e.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.budget)
		defer cancel()
	}

	found := make([]string, 0, 1)
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Code sweep aborted", "panic", r, "found", len(found))
			codes = found
		}
	}()

	img, err := convert.Decode(data)
	if err != nil {
		slog.Debug("Image could not be decoded", "size", len(data), "error", err)
		return found
	}

	seen := make(map[string]struct{})
	attempts := 0
sweep:
	for v := range e.Variants(img) {
		for _, p := range e.profiles {
			if err := ctx.Err(); err != nil {
				slog.Debug("Code sweep stopped", "variant", v.Name, "attempts", attempts, "error", err)
				break sweep
			}
			attempts++
			payloads := e.attempt(v, p)
			for _, payload := range payloads {
				if _, ok := seen[payload]; ok {
					continue
				}
				seen[payload] = struct{}{}
				found = append(found, payload)
			}
			if len(payloads) > 0 {
				slog.Debug("Code decoded", "variant", v.Name, "profile", p.Name, "attempts", attempts)
				break
			}
		}
		if len(found) > 0 {
			break
		}
	}

	if len(found) == 0 {
		slog.Debug("No code found", "attempts", attempts)
	}
	return found
}

// attempt runs one (variant, profile) decode. Errors and panics mean "no result".
func (e *Engine) attempt(v Variant, p Profile) (payloads []string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("Decoder panicked", "variant", v.Name, "profile", p.Name, "panic", r)
			payloads = nil
		}
	}()

	decoded, err := e.decoder.Decode(v.Image, p)
	if err != nil {
		return nil
	}
	return decoded
}
