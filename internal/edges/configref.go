package edges

import (
	"context"
	"path"

	"ctxlens/internal/fragment"
	"ctxlens/internal/pathrel"
	"ctxlens/internal/universe"
)

// ConfigReferenceBuilder scans manifest/deploy fragments (Dockerfile,
// Helm/K8s, Terraform, CI YAML) for source-path-shaped string literals
// and links the manifest fragment to the fragments of the file it names.
// No HCL parser exists anywhere in the retrieved corpus (see DESIGN.md),
// so Terraform/Dockerfile content is scanned with the same regex
// heuristic as everything else in internal/pathrel; YAML manifests are
// additionally fragmented at the structured-config strategy, so their
// scalar values are already isolated per-key before this builder runs.
func ConfigReferenceBuilder(ctx context.Context, u *universe.Universe, policy Policy) ([]Edge, error) {
	if u == nil {
		return nil, nil
	}

	var out []Edge
	for _, manifest := range u.Fragments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !pathrel.IsManifestPath(manifest.Path) {
			continue
		}
		refs := pathrel.ExtractPathReferences(manifest.Content)
		if len(refs) == 0 {
			continue
		}
		for _, ref := range refs {
			targets := resolveReference(u, ref)
			for _, t := range targets {
				if t.ID() == manifest.ID() {
					continue
				}
				weight := policy.ConfigWeightMin
				if t.Path == ref {
					weight = policy.ConfigWeightMax
				}
				out = append(out,
					Edge{From: manifest.ID(), To: t.ID(), Weight: weight, Family: FamilyConfiguration},
					Edge{From: t.ID(), To: manifest.ID(), Weight: weight, Family: FamilyConfiguration},
				)
			}
		}
	}
	return out, nil
}

// resolveReference finds universe fragments belonging to a referenced
// path, falling back to a basename match when the literal omits the
// directory (e.g. a bare "worker.py" in a Dockerfile COPY).
func resolveReference(u *universe.Universe, ref string) []fragment.Fragment {
	if frags, ok := u.ByPath[ref]; ok {
		return frags
	}
	base := path.Base(ref)
	var out []fragment.Fragment
	for p, frags := range u.ByPath {
		if path.Base(p) == base {
			out = append(out, frags...)
		}
	}
	return out
}
