package edges

import (
	"context"

	"ctxlens/internal/universe"
)

// HistoryBuilder links files that tend to change together across the
// externally supplied commit history (spec.md §6's optional commit
// input). Correlation arithmetic — co-change count over total-change
// count — is adapted from the teacher's internal/coupling.Analyzer,
// ported from its os/exec("git", "log", ...) shell-out form to pure
// in-memory aggregation over policy.Commits, since history here is
// delivered data, not something this package shells out for.
func HistoryBuilder(ctx context.Context, u *universe.Universe, policy Policy) ([]Edge, error) {
	if u == nil || len(policy.Commits) == 0 {
		return nil, nil
	}

	maxCommits := policy.MaxCommits
	if maxCommits <= 0 {
		maxCommits = 500
	}
	maxFiles := policy.MaxFilesPerCommit
	if maxFiles <= 0 {
		maxFiles = 30
	}

	totalChanges := make(map[string]int)
	coChanges := make(map[[2]string]int)

	considered := 0
	for _, c := range policy.Commits {
		if considered >= maxCommits {
			break
		}
		if len(c.Files) == 0 || len(c.Files) > maxFiles {
			continue
		}
		considered++

		inUniverse := make([]string, 0, len(c.Files))
		for _, f := range c.Files {
			if _, ok := u.ByPath[f]; ok {
				inUniverse = append(inUniverse, f)
				totalChanges[f]++
			}
		}
		for i, a := range inUniverse {
			for _, b := range inUniverse[i+1:] {
				coChanges[filePairKey(a, b)]++
			}
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	var out []Edge
	for pair, coCount := range coChanges {
		a, b := pair[0], pair[1]
		totalA, totalB := totalChanges[a], totalChanges[b]
		union := totalA + totalB - coCount
		if union <= 0 {
			continue
		}
		correlation := float64(coCount) / float64(union)
		if correlation <= 0 {
			continue
		}
		weight := policy.HistoryMin + correlation*(policy.HistoryMax-policy.HistoryMin)
		if weight > 1 {
			weight = 1
		}
		fa, fb := u.ByPath[a], u.ByPath[b]
		if len(fa) == 0 || len(fb) == 0 {
			continue
		}
		out = append(out,
			Edge{From: fa[0].ID(), To: fb[0].ID(), Weight: weight, Family: FamilyHistory},
			Edge{From: fb[0].ID(), To: fa[0].ID(), Weight: weight, Family: FamilyHistory},
		)
	}
	return out, nil
}

func filePairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
