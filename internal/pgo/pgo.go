// Package pgo implements Pine's profile-guided specialization analyzer
// (spec §4.6): given the FrameReports a profiling run of package eval's
// ProfileEvaluate collected, it derives, per expression, an ordered set
// of environment Constraints worth lowering a dedicated specialization
// for. The analyzer is pure: it never evaluates an expression itself
// and never mutates the reports it reads.
package pgo

import (
	"sort"

	"github.com/pine-vm/pine/internal/eval"
	"github.com/pine-vm/pine/internal/lower"
	"github.com/pine-vm/pine/internal/value"
)

// Config bounds how aggressively the analyzer clusters samples into
// specializations (spec §4.6's three named caps).
type Config struct {
	// ClassUsageCountMin is the sample-count floor a candidate class
	// must clear to be emitted at all.
	ClassUsageCountMin int
	// LimitClassesPerExpression caps how many Constraints a single
	// expression may receive.
	LimitClassesPerExpression int
	// LimitSampleCountPerSample caps the number of Facts a single
	// Constraint may carry.
	LimitSampleCountPerSample int
	// MaxPathDepth bounds how deep into an environment's List structure
	// the analyzer looks for candidate discriminating paths.
	MaxPathDepth int
}

// DefaultConfig is a reasonable starting point for a single-process
// profiling run.
func DefaultConfig() Config {
	return Config{
		ClassUsageCountMin:        2,
		LimitClassesPerExpression: 8,
		LimitSampleCountPerSample: 4,
		MaxPathDepth:              3,
	}
}

// Analyze aggregates reports per expression and returns the
// CompilationClasses a host can hand to Evaluator.InstallCompilationClasses
// (spec §6's install_compilation_classes) so the next compilation of
// each expression builds the emitted specializations ahead of time.
func Analyze(reports []eval.FrameReport, cfg Config) lower.CompilationClasses {
	byExpr := make(map[lower.ExpressionKey][]eval.FrameReport)
	for _, r := range reports {
		if r.Expression == nil || r.Environment == nil {
			continue
		}
		key := lower.KeyOf(r.Expression)
		byExpr[key] = append(byExpr[key], r)
	}

	out := make(lower.CompilationClasses, len(byExpr))
	for key, group := range byExpr {
		constraints := analyzeExpression(group, cfg)
		if len(constraints) > 0 {
			out[key] = constraints
		}
	}
	return out
}

// analyzeExpression implements spec §4.6's three numbered steps for one
// expression's sample group.
func analyzeExpression(group []eval.FrameReport, cfg Config) []lower.Constraint {
	envs := make([]*value.Value, len(group))
	for i, r := range group {
		envs[i] = r.Environment
	}

	candidates := candidatePaths(envs, cfg.MaxPathDepth)
	stable := stableFacts(envs, candidates)

	discriminator, buckets := pickDiscriminator(envs, candidates, stable, cfg)
	if discriminator == nil {
		return nil
	}

	type classCount struct {
		fact  lower.Fact
		count int
	}
	var classes []classCount
	for _, b := range buckets {
		if b.count < cfg.ClassUsageCountMin {
			continue
		}
		classes = append(classes, classCount{fact: lower.Fact{Path: discriminator, Value: b.value}, count: b.count})
	}
	if len(classes) < 2 {
		// A single surviving bucket isn't a useful specialization split;
		// the generic compilation already covers it.
		return nil
	}

	sort.Slice(classes, func(i, j int) bool { return classes[i].count > classes[j].count })
	if len(classes) > cfg.LimitClassesPerExpression {
		classes = classes[:cfg.LimitClassesPerExpression]
	}

	constraints := make([]lower.Constraint, 0, len(classes))
	for _, c := range classes {
		facts := append(append([]lower.Fact(nil), stable...), c.fact)
		if len(facts) > cfg.LimitSampleCountPerSample {
			facts = facts[:cfg.LimitSampleCountPerSample]
		}
		constraints = append(constraints, lower.NewConstraint(facts))
	}

	sort.Slice(constraints, func(i, j int) bool {
		return constraints[i].MoreSpecificThan(constraints[j]) || (!constraints[j].MoreSpecificThan(constraints[i]) && len(constraints[i].Facts()) > len(constraints[j].Facts()))
	})
	return constraints
}

// candidatePaths enumerates every List-index path reachable from the
// environment's root up to maxDepth, bounded to the indices actually
// observed across envs, shallowest paths first and lexicographically
// within one depth.
func candidatePaths(envs []*value.Value, maxDepth int) []lower.Path {
	const maxWidth = 16
	frontier := []lower.Path{{}}
	var all []lower.Path
	for depth := 0; depth < maxDepth; depth++ {
		var next []lower.Path
		for _, p := range frontier {
			width := 0
			for _, env := range envs {
				v, ok := lower.Navigate(env, p)
				if ok && v.IsList() && v.Len() > width {
					width = v.Len()
				}
			}
			if width > maxWidth {
				width = maxWidth
			}
			for i := 0; i < width; i++ {
				child := append(append(lower.Path(nil), p...), int64(i))
				next = append(next, child)
			}
		}
		all = append(all, next...)
		frontier = next
	}
	sort.Slice(all, func(i, j int) bool {
		if len(all[i]) != len(all[j]) {
			return len(all[i]) < len(all[j])
		}
		return pathLess(all[i], all[j])
	})
	return all
}

func pathLess(p, o lower.Path) bool {
	for i := 0; i < len(p) && i < len(o); i++ {
		if p[i] != o[i] {
			return p[i] < o[i]
		}
	}
	return len(p) < len(o)
}

// stableFacts returns the Facts that hold for every sample in envs:
// paths that navigate successfully in every sample and always resolve
// to an equal Value (spec §4.6 step 1).
func stableFacts(envs []*value.Value, candidates []lower.Path) []lower.Fact {
	var facts []lower.Fact
	for _, p := range candidates {
		var first *value.Value
		ok := true
		for _, env := range envs {
			v, found := lower.Navigate(env, p)
			if !found {
				ok = false
				break
			}
			if first == nil {
				first = v
			} else if !value.Equal(first, v) {
				ok = false
				break
			}
		}
		if ok && first != nil {
			facts = append(facts, lower.Fact{Path: p, Value: first})
		}
	}
	return facts
}

type valueBucket struct {
	value *value.Value
	count int
}

// pickDiscriminator finds the shallowest, lexicographically-first
// candidate path whose value distribution across envs splits into 2..
// LimitClassesPerExpression distinct repeated values — the clustering
// key spec §4.6 step 2 uses to partition samples into candidate
// environment classes. Paths already part of stable facts are skipped,
// since a constant path can never discriminate between classes.
func pickDiscriminator(envs []*value.Value, candidates []lower.Path, stable []lower.Fact, cfg Config) (lower.Path, []valueBucket) {
	isStable := make(map[string]bool, len(stable))
	for _, f := range stable {
		isStable[pathKey(f.Path)] = true
	}

	for _, p := range candidates {
		if isStable[pathKey(p)] {
			continue
		}
		buckets := bucketValues(envs, p)
		if len(buckets) < 2 || len(buckets) > cfg.LimitClassesPerExpression {
			continue
		}
		qualifying := 0
		for _, b := range buckets {
			if b.count >= cfg.ClassUsageCountMin {
				qualifying++
			}
		}
		if qualifying < 2 {
			continue
		}
		return p, buckets
	}
	return nil, nil
}

func bucketValues(envs []*value.Value, p lower.Path) []valueBucket {
	byHash := make(map[[32]byte]*valueBucket)
	var order [][32]byte
	for _, env := range envs {
		v, ok := lower.Navigate(env, p)
		if !ok {
			return nil // path doesn't apply uniformly; not a usable discriminator
		}
		h := v.Hash()
		b, exists := byHash[h]
		if !exists {
			b = &valueBucket{value: v}
			byHash[h] = b
			order = append(order, h)
		}
		b.count++
	}
	out := make([]valueBucket, 0, len(order))
	for _, h := range order {
		out = append(out, *byHash[h])
	}
	return out
}

func pathKey(p lower.Path) string {
	b := make([]byte, len(p)*8)
	for i, idx := range p {
		for j := 0; j < 8; j++ {
			b[i*8+j] = byte(idx >> (56 - 8*j))
		}
	}
	return string(b)
}
