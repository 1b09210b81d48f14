package textblock

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Render produces the final HTML for a block tree.
//
//   - Blocks carrying slabs concatenate them; each placeholder is replaced
//     by the resolver of the enhancement named in it.
//   - Sections render their children (child i at path+"_"+i) and join the
//     results in order.
//   - Built-in blocks without slabs are validated first.
//   - Registered formats dispatch to their Format.
//
// Request-scoped data travels in ctx. Any failure fails the whole render;
// no partial output is returned. Unresolved pragmas fail with
// ErrUnknownFormat.
func (e *Engine) Render(ctx context.Context, b Block, path string) (string, error) {
	out, err := e.render(ctx, b, path)
	if err != nil {
		e.log.Debug("textblock: render failed", "path", path, "error", err)
		return "", err
	}
	return out, nil
}

func (e *Engine) render(ctx context.Context, b Block, path string) (string, error) {
	if isNil(b) {
		return "", errorf("render", "", path, ErrUnknownFormat, "nil %T block", b)
	}
	if s, ok := b.(Slabbed); ok {
		if slabs := s.HTMLSlabs(); slabs != nil {
			return e.renderSlabs(ctx, slabs, path)
		}
	}

	switch x := b.(type) {
	case *Section:
		return e.renderSection(ctx, x, path)
	case *HTML, *Markdown, *PlainishText:
		v := &validator{e: e}
		valid, err := v.block(x, path, true)
		if err != nil {
			return "", err
		}
		return e.render(ctx, valid, path)
	case *Pragma:
		return "", errorf("render", FormatPragma, path, ErrUnknownFormat, "unresolved pragma")
	}

	f, ok := e.reg.Format(b.Format())
	if !ok {
		return "", errorf("render", b.Format(), path, ErrUnknownFormat, "no renderer for %q", b.Format())
	}
	out, err := f.Render(ctx, e, b, path)
	if err != nil {
		return "", newError("render", b.Format(), path, err)
	}
	return out, nil
}

func (e *Engine) renderSection(ctx context.Context, s *Section, path string) (string, error) {
	parts := make([]string, len(s.Blocks))
	g, gctx := errgroup.WithContext(ctx)
	e.group(g)
	for i, child := range s.Blocks {
		i, child := i, child
		g.Go(func() error {
			out, err := e.render(gctx, child, path+"_"+strconv.Itoa(i))
			if err != nil {
				return err
			}
			parts[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return strings.Join(parts, ""), nil
}

func (e *Engine) renderSlabs(ctx context.Context, slabs Slabs, path string) (string, error) {
	if len(slabs) == 1 && !slabs[0].IsPlaceholder() {
		return slabs[0].Text, nil
	}

	resolvers := make([]Enhancement, len(slabs))
	for i, slab := range slabs {
		if !slab.IsPlaceholder() {
			continue
		}
		enh, ok := e.reg.Enhancement(slab.Placeholder.Name)
		if !ok {
			return "", errorf("render", "", path, ErrUnknownEnhancement, "no enhancement named %q", slab.Placeholder.Name)
		}
		resolvers[i] = enh
	}

	parts := make([]string, len(slabs))
	g, gctx := errgroup.WithContext(ctx)
	e.group(g)
	for i, slab := range slabs {
		if !slab.IsPlaceholder() {
			parts[i] = slab.Text
			continue
		}
		i, p, enh := i, slab.Placeholder, resolvers[i]
		g.Go(func() error {
			out, err := enh.Resolve(gctx, p)
			if err != nil {
				var re *ResolverError
				if errors.As(err, &re) {
					return err
				}
				return &ResolverError{Kind: "enhancement", Name: p.Name, Path: path, Err: err}
			}
			parts[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}
	return strings.Join(parts, ""), nil
}
