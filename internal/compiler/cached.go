package compiler

import (
	"context"

	"mqltools/internal/cache"
	"mqltools/internal/complog"
	"mqltools/internal/trace"
)

func (r *Runner) fromCache(key cache.Digest, rep *Report) bool {
	var e cache.Entry
	ok, err := r.cache.Get(key, &e)
	if err != nil || !ok || !e.Fresh() {
		return false
	}
	rep.RunID = e.RunID
	rep.Log = e.Log
	rep.Result = complog.Parse(e.Log, rep.Mode == Compile)
	rep.Cached = true
	return true
}

// store records the run unless one of the included files cannot be hashed,
// in which case a later hit could not be validated.
func (r *Runner) store(ctx context.Context, key cache.Digest, rep *Report) {
	e := &cache.Entry{
		RunID:   rep.RunID,
		Source:  rep.Target,
		Log:     rep.Log,
		Created: r.now(),
	}
	for _, ent := range rep.Result.Entries {
		inc, ok := ent.(complog.IncludeNotice)
		if !ok {
			continue
		}
		h, err := cache.HashFile(inc.Path)
		if err != nil {
			return
		}
		e.Deps = append(e.Deps, cache.Dep{Path: inc.Path, Hash: h})
	}
	if err := r.cache.Put(key, e); err != nil {
		trace.Point(trace.FromContext(ctx), trace.ScopeFile, "cache", "store failed: "+err.Error())
	}
}

