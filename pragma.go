package textblock

import (
	"context"
	"errors"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// PragmaResolver replaces a pragma with concrete content. path addresses
// the pragma's position in the tree ("0_1_2" style when the caller starts
// at "0").
type PragmaResolver func(ctx context.Context, p *Pragma, path string) (Block, error)

// ResolvePragmas returns a copy of b with every pragma replaced by the
// resolver's result, which is used unchecked. Section children resolve
// concurrently; child i is addressed as path+"_"+i and results keep the
// original order. The first failure is returned and the rest discarded.
//
// Nil blocks are returned as they are; Render rejects them.
//
// A resolver that never returns stalls the call; no timeout is imposed
// beyond what ctx carries.
func (e *Engine) ResolvePragmas(ctx context.Context, b Block, path string, resolve PragmaResolver) (Block, error) {
	out, err := e.resolvePragmas(ctx, b, path, resolve)
	if err != nil {
		e.log.Debug("textblock: pragma resolution failed", "path", path, "error", err)
		return nil, err
	}
	return out, nil
}

func (e *Engine) resolvePragmas(ctx context.Context, b Block, path string, resolve PragmaResolver) (Block, error) {
	if isNil(b) {
		return b, nil
	}
	switch x := b.(type) {
	case *Pragma:
		out, err := resolve(ctx, x, path)
		if err != nil {
			var re *ResolverError
			if errors.As(err, &re) {
				return nil, err
			}
			return nil, &ResolverError{Kind: "pragma", Path: path, Err: err}
		}
		return out, nil
	case *Section:
		blocks := make([]Block, len(x.Blocks))
		g, gctx := errgroup.WithContext(ctx)
		e.group(g)
		for i, child := range x.Blocks {
			i, child := i, child
			g.Go(func() error {
				out, err := e.resolvePragmas(gctx, child, path+"_"+strconv.Itoa(i), resolve)
				if err != nil {
					return err
				}
				blocks[i] = out
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return &Section{Blocks: blocks}, nil
	}
	return b, nil
}
