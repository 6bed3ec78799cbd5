package patch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/foamstudy/internal/ctxlog"
	"github.com/vk/foamstudy/internal/foamdict"
	"github.com/vk/foamstudy/internal/params"
)

// Setting is one logical parameter assignment requested for a case.
type Setting struct {
	Path  string
	Value float64
}

// Patcher rewrites the dictionary files of exactly one case directory.
// A patcher must not be shared across case directories, and a directory
// must never be patched while a solver reading it is in flight; callers
// enforce both by sequencing.
type Patcher struct {
	caseDir string
	store   *params.Store
	mapper  *params.Mapper
}

// New returns a patcher for caseDir using the given value store. The store
// should be private to this case (clone the study-level store first).
func New(caseDir string, store *params.Store) *Patcher {
	return &Patcher{
		caseDir: caseDir,
		store:   store,
		mapper:  params.NewMapper(store),
	}
}

// pendingWrite is one key write queued for a file, with the logical
// parameter it came from for outcome attribution.
type pendingWrite struct {
	planID int
	param  string
	key    string
	value  string
}

type pendingBlock struct {
	planID int
	param  string
	block  string
	subKey string
	value  string
}

// fileBatch collects every write bound for one file so the file is read,
// rewritten, and written back exactly once per pass.
type fileBatch struct {
	file   string
	writes []pendingWrite
	blocks []pendingBlock
}

// Apply maps the settings to concrete writes, applies them file by file in
// a single pass each, and returns the ordered substitution log together
// with the resolved values actually written (including derived ones).
// Unsupported parameters, missing files, and unmatched keys become log
// records; only filesystem read/write failures return an error, and then
// the log describes how far the pass got.
func (p *Patcher) Apply(ctx context.Context, settings []Setting) (Log, map[string]float64, error) {
	logger := ctxlog.FromContext(ctx)

	// The case's own parameters dictionary is the authoritative snapshot
	// for cross-parameter derivations (densities, geometry bases).
	if err := p.store.MergeCaseFile(filepath.Join(p.caseDir, params.FileParameters)); err != nil {
		return nil, nil, err
	}

	batches, plans, log := p.buildBatches(ctx, settings)

	appliedPlans := make(map[int]bool)
	for _, batch := range batches {
		records, err := p.applyBatch(ctx, batch, appliedPlans)
		log = append(log, records...)
		if err != nil {
			return log, nil, err
		}
	}

	resolved := make(map[string]float64)
	for id, plan := range plans {
		if appliedPlans[id] {
			for k, v := range plan.Resolved {
				resolved[k] = v
			}
		}
	}

	logger.Info("substitution pass finished",
		"case", p.caseDir,
		"applied", log.Applied(),
		"not_found", len(log.NotFound()),
	)
	return log, resolved, nil
}

// buildBatches maps every setting and groups the resulting writes per
// target file, preserving first-seen file order. When two parameters claim
// the same key in the same file, the first request wins and the second is
// recorded as skipped rather than silently dropped.
func (p *Patcher) buildBatches(ctx context.Context, settings []Setting) ([]*fileBatch, map[int]*params.Plan, Log) {
	logger := ctxlog.FromContext(ctx)

	var log Log
	var order []string
	byFile := make(map[string]*fileBatch)
	claimed := make(map[string]string) // "file\x00key" -> parameter that claimed it
	plans := make(map[int]*params.Plan)

	batchFor := func(file string) *fileBatch {
		b, ok := byFile[file]
		if !ok {
			b = &fileBatch{file: file}
			byFile[file] = b
			order = append(order, file)
		}
		return b
	}

	for id, s := range settings {
		plan, err := p.mapper.Map(ctx, s.Path, s.Value)
		if err != nil {
			logger.Warn("parameter not mapped", "parameter", s.Path, "error", err)
			log = append(log, Record{
				Parameter: s.Path,
				Status:    StatusSkipped,
				Reason:    err.Error(),
			})
			continue
		}
		plans[id] = plan

		for _, w := range plan.Writes {
			claimKey := w.File + "\x00" + w.Key
			if owner, taken := claimed[claimKey]; taken {
				log = append(log, Record{
					Parameter: s.Path,
					File:      w.File,
					Key:       w.Key,
					Status:    StatusSkipped,
					Reason:    fmt.Sprintf("key already set by %s", owner),
				})
				continue
			}
			claimed[claimKey] = s.Path
			b := batchFor(w.File)
			b.writes = append(b.writes, pendingWrite{planID: id, param: s.Path, key: w.Key, value: w.Value})
		}

		for _, bw := range plan.BlockWrites {
			claimKey := bw.File + "\x00" + bw.Block + "\x00" + bw.SubKey
			if owner, taken := claimed[claimKey]; taken {
				log = append(log, Record{
					Parameter: s.Path,
					File:      bw.File,
					Key:       bw.Block + "." + bw.SubKey,
					Status:    StatusSkipped,
					Reason:    fmt.Sprintf("key already set by %s", owner),
				})
				continue
			}
			claimed[claimKey] = s.Path
			b := batchFor(bw.File)
			b.blocks = append(b.blocks, pendingBlock{planID: id, param: s.Path, block: bw.Block, subKey: bw.SubKey, value: bw.Value})
		}

		for _, skip := range plan.Skipped {
			log = append(log, Record{
				Parameter: s.Path,
				File:      params.FileParameters,
				Key:       skip.Key,
				Status:    StatusSkipped,
				Reason:    skip.Reason,
			})
		}
	}

	batches := make([]*fileBatch, 0, len(order))
	for _, file := range order {
		batches = append(batches, byFile[file])
	}
	return batches, plans, log
}

// applyBatch rewrites one file in a single linear scan. A missing file
// marks every key bound for it as not-found and the pass continues.
func (p *Patcher) applyBatch(ctx context.Context, batch *fileBatch, appliedPlans map[int]bool) (Log, error) {
	logger := ctxlog.FromContext(ctx)
	path := filepath.Join(p.caseDir, batch.file)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("target file not found, skipping its keys", "file", batch.file)
			return notFoundRecords(batch), nil
		}
		return nil, fmt.Errorf("reading %s: %w", batch.file, err)
	}

	lines := foamdict.Parse(string(data))

	values := make(map[string]string, len(batch.writes))
	for _, w := range batch.writes {
		values[w.key] = w.value
	}
	lines, keyResult := foamdict.Apply(lines, values)

	blockResults := make(map[string]foamdict.Result)
	if len(batch.blocks) > 0 {
		// All block writes in the observed templates share one sub-key per
		// file, but group by sub-key anyway to stay honest.
		bySubKey := make(map[string]map[string]string)
		for _, bw := range batch.blocks {
			if bySubKey[bw.subKey] == nil {
				bySubKey[bw.subKey] = make(map[string]string)
			}
			bySubKey[bw.subKey][bw.block] = bw.value
		}
		for subKey, blocks := range bySubKey {
			var res foamdict.Result
			lines, res = foamdict.ApplyBlocks(lines, subKey, blocks)
			blockResults[subKey] = res
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", batch.file, err)
	}
	if err := os.WriteFile(path, []byte(foamdict.Render(lines)), info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("writing %s: %w", batch.file, err)
	}

	var records Log
	for _, w := range batch.writes {
		if change, ok := keyResult.Applied[w.key]; ok {
			appliedPlans[w.planID] = true
			records = append(records, Record{
				Parameter: w.param, File: batch.file, Key: w.key,
				Old: change.Old, New: change.New, Status: StatusApplied,
			})
			logger.Debug("substituted key", "file", batch.file, "key", w.key, "old", change.Old, "new", change.New)
		} else {
			records = append(records, Record{
				Parameter: w.param, File: batch.file, Key: w.key, Status: StatusNotFound,
			})
			logger.Warn("key not found in file", "file", batch.file, "key", w.key, "parameter", w.param)
		}
	}
	for _, bw := range batch.blocks {
		res := blockResults[bw.subKey]
		if change, ok := res.Applied[bw.block]; ok {
			appliedPlans[bw.planID] = true
			records = append(records, Record{
				Parameter: bw.param, File: batch.file, Key: bw.block + "." + bw.subKey,
				Old: change.Old, New: change.New, Status: StatusApplied,
			})
		} else {
			records = append(records, Record{
				Parameter: bw.param, File: batch.file, Key: bw.block + "." + bw.subKey, Status: StatusNotFound,
			})
			logger.Warn("block not found in file", "file", batch.file, "block", bw.block, "parameter", bw.param)
		}
	}
	return records, nil
}

func notFoundRecords(batch *fileBatch) Log {
	var records Log
	for _, w := range batch.writes {
		records = append(records, Record{
			Parameter: w.param, File: batch.file, Key: w.key,
			Status: StatusNotFound, Reason: "file not found",
		})
	}
	for _, bw := range batch.blocks {
		records = append(records, Record{
			Parameter: bw.param, File: batch.file, Key: bw.block + "." + bw.subKey,
			Status: StatusNotFound, Reason: "file not found",
		})
	}
	return records
}
