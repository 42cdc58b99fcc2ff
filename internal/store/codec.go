package store

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/oxhq/esengine/internal/compiler"
	"github.com/oxhq/esengine/internal/scope"
)

// dtoConstant mirrors compiler.Constant, substituting a recursive
// dtoCodeBlock for Code and dropping ScopeRef: the compiler never
// actually emits a ConstScopeRecord constant (see DESIGN.md — the
// field exists on compiler.Constant for a future slot-indexed
// addressing mode that addConstant's dedup switch already special-
// cases but nothing constructs yet), so there is nothing to encode for
// that Kind; toDTO rejects a CodeBlock holding one, so Put fails with
// an error instead of caching it.
type dtoConstant struct {
	Kind     compiler.ConstKind
	IsString bool
	Number   float64
	Str      string
	Bool     bool
	Code     *dtoCodeBlock
	Locator  scope.BindingLocator
}

// dtoFunctionInfo mirrors scope.FunctionInfo, dropping
// FunctionsToInitialize: the compiler's declaration-instantiation pass
// (compiler.go's emitDeclarationInstantiation) never reads it back —
// function declarations are hoisted textually rather than via this
// list, a deliberate deviation from spec's eager-hoist order (see
// DESIGN.md Open Questions) — so it carries no runtime-observable
// information to cache.
type dtoFunctionInfo struct {
	ParamNames              []string
	VarNames                []string
	LexicallyDeclaredNames  []string
	NeedsArguments          bool
	HasParameterExpressions bool
	EvalTransparent         bool
}

type dtoHandler struct {
	StartPC, EndPC    int
	HandlerPC         int
	StackDepthAtEntry int
	EnvDepthAtEntry   int
	Kind              compiler.HandlerKind
}

type dtoCodeBlock struct {
	Name         string
	Bytecode     []byte
	Constants    []dtoConstant
	ParamCount   int
	Length       int
	Flags        compiler.Flags
	Handlers     []dtoHandler
	FunctionInfo *dtoFunctionInfo
	SourceMap    map[int]int
}

func toDTO(c *compiler.CodeBlock) (*dtoCodeBlock, error) {
	if c == nil {
		return nil, nil
	}
	d := &dtoCodeBlock{
		Name:       c.Name,
		Bytecode:   c.Bytecode,
		ParamCount: c.ParamCount,
		Length:     c.Length,
		Flags:      c.Flags,
		SourceMap:  c.SourceMap,
	}
	for _, h := range c.Handlers {
		d.Handlers = append(d.Handlers, dtoHandler{
			StartPC: h.StartPC, EndPC: h.EndPC, HandlerPC: h.HandlerPC,
			StackDepthAtEntry: h.StackDepthAtEntry, EnvDepthAtEntry: h.EnvDepthAtEntry,
			Kind: h.Kind,
		})
	}
	for _, k := range c.Constants {
		if k.Kind == compiler.ConstScopeRecord {
			return nil, fmt.Errorf("store: cannot cache a CodeBlock with a ConstScopeRecord constant")
		}
		dc := dtoConstant{
			Kind: k.Kind, IsString: k.IsString, Number: k.Number,
			Str: k.Str, Bool: k.Bool, Locator: k.Locator,
		}
		if k.Kind == compiler.ConstCodeBlock {
			nested, err := toDTO(k.Code)
			if err != nil {
				return nil, err
			}
			dc.Code = nested
		}
		d.Constants = append(d.Constants, dc)
	}
	if c.FunctionInfo != nil {
		fi := c.FunctionInfo
		d.FunctionInfo = &dtoFunctionInfo{
			ParamNames:              fi.ParamNames,
			VarNames:                fi.VarNames,
			LexicallyDeclaredNames:  fi.LexicallyDeclaredNames,
			NeedsArguments:          fi.NeedsArguments,
			HasParameterExpressions: fi.HasParameterExpressions,
			EvalTransparent:         fi.EvalTransparent,
		}
	}
	return d, nil
}

func fromDTO(d *dtoCodeBlock) *compiler.CodeBlock {
	if d == nil {
		return nil
	}
	c := &compiler.CodeBlock{
		Name:       d.Name,
		Bytecode:   d.Bytecode,
		ParamCount: d.ParamCount,
		Length:     d.Length,
		Flags:      d.Flags,
		SourceMap:  d.SourceMap,
	}
	for _, h := range d.Handlers {
		c.Handlers = append(c.Handlers, compiler.Handler{
			StartPC: h.StartPC, EndPC: h.EndPC, HandlerPC: h.HandlerPC,
			StackDepthAtEntry: h.StackDepthAtEntry, EnvDepthAtEntry: h.EnvDepthAtEntry,
			Kind: h.Kind,
		})
	}
	for _, dc := range d.Constants {
		k := compiler.Constant{
			Kind: dc.Kind, IsString: dc.IsString, Number: dc.Number,
			Str: dc.Str, Bool: dc.Bool, Locator: dc.Locator,
		}
		if dc.Kind == compiler.ConstCodeBlock {
			k.Code = fromDTO(dc.Code)
		}
		c.Constants = append(c.Constants, k)
	}
	if d.FunctionInfo != nil {
		fi := d.FunctionInfo
		c.FunctionInfo = &scope.FunctionInfo{
			ParamNames:              fi.ParamNames,
			VarNames:                fi.VarNames,
			LexicallyDeclaredNames:  fi.LexicallyDeclaredNames,
			NeedsArguments:          fi.NeedsArguments,
			HasParameterExpressions: fi.HasParameterExpressions,
			EvalTransparent:         fi.EvalTransparent,
		}
	}
	return c
}

// encode gob-serializes code's DTO form for Payload storage.
func encode(code *compiler.CodeBlock) ([]byte, error) {
	dto, err := toDTO(code)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(dto); err != nil {
		return nil, fmt.Errorf("store: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func decode(payload []byte) (*compiler.CodeBlock, error) {
	var dto dtoCodeBlock
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(&dto); err != nil {
		return nil, fmt.Errorf("store: decode: %w", err)
	}
	return fromDTO(&dto), nil
}
