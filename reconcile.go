package cpf

import "github.com/pkg/errors"

// status classifies one plugin slot during reconciliation. The
// vocabulary is closed and every slot ends up in exactly one of these
// four states by the time Reload merges the lists.
type status byte

const (
	statusDelete     status = 'D' // default for a live (pre-reload) slot
	statusUnmodified status = 'U'
	statusReloaded   status = 'R'
	statusNew        status = 'N' // default for a freshly discovered slot
)

// Reload re-scans fw.Root, reconciles the result against fw's current
// plugin set, and swaps fw's plugin list for the merged one. Unmodified
// plugins are left untouched (same handle, same addresses); modified
// plugins are destructed and reconstructed in place; deleted plugins
// are destructed and dropped; new plugins are constructed and added.
//
// If displayReport is true, one log line per classification is emitted
// before Reload returns.
func Reload(fw *Framework, displayReport bool) error {
	r, err := loadFramework(fw.Root, fw.opts)
	if err != nil {
		return errors.Wrap(err, "reload")
	}

	if len(r.Plugins) == 0 {
		fw.logger().Info("reload: nothing to reload")
		return nil
	}

	merged, err := reconcile(fw, r.Plugins, displayReport)
	if err != nil {
		return errors.Wrap(err, "reload")
	}
	fw.Plugins = merged
	return nil
}

// reconcile performs the classification-and-merge algorithm against
// fw's current plugin list and a freshly loaded candidate list, and
// returns the merged, sorted, dependency-relinked plugin list. It is
// factored out from Reload so the algorithm can be exercised directly
// against hand-built plugin fixtures, without going through discovery
// or the dynamic linker.
func reconcile(fw *Framework, fresh []*Plugin, displayReport bool) ([]*Plugin, error) {
	live := fw.Plugins

	statusC := make([]status, len(live))
	for i := range statusC {
		statusC[i] = statusDelete
	}
	statusR := make([]status, len(fresh))
	for i := range statusR {
		statusR[i] = statusNew
	}

	// Pass 1 — unmodified: same logical name, same digest.
	for ri, rp := range fresh {
		for li, lp := range live {
			if statusC[li] != statusDelete {
				continue
			}
			if lp.Name == rp.Name && lp.Digest == rp.Digest {
				statusC[li] = statusUnmodified
				statusR[ri] = statusUnmodified
				break
			}
		}
	}

	// Pass 2 — reloaded: same logical name, different digest. Replace
	// the live record in place immediately: destruct the old, adopt the
	// new, construct it.
	for ri, rp := range fresh {
		if statusR[ri] != statusNew {
			continue
		}
		for li, lp := range live {
			if statusC[li] != statusDelete {
				continue
			}
			if lp.Name != rp.Name {
				continue
			}
			statusC[li] = statusReloaded
			statusR[ri] = statusReloaded

			release(lp, true)
			*lp = *rp
			rp.handle = 0
			rp.Funcs = nil
			rp.Context = nil

			invokeCtorDtor(lp.ctorAddr, lp)
			break
		}
	}

	// Pass 3 — delete leftovers.
	for li, lp := range live {
		if statusC[li] == statusDelete {
			invokeCtorDtor(lp.dtorAddr, lp)
		}
	}

	// Pass 4 — instantiate new.
	for ri, rp := range fresh {
		if statusR[ri] == statusNew {
			invokeCtorDtor(rp.ctorAddr, rp)
		}
	}

	// The duplicate handles loading fresh candidates opened for every
	// plugin that turned out unmodified are surplus: the live
	// framework's original handle for that plugin is what stays in
	// service. Close them without invoking any hook — they were never
	// constructed, so they must not be destructed either.
	for ri, rp := range fresh {
		if statusR[ri] == statusUnmodified {
			release(rp, false)
		}
	}

	merged := make([]*Plugin, 0, len(live)+len(fresh))
	for li, lp := range live {
		if statusC[li] != statusDelete {
			merged = append(merged, lp)
		}
	}
	for ri, rp := range fresh {
		if statusR[ri] == statusNew {
			merged = append(merged, rp)
		}
	}
	sortPluginsByPath(merged)

	// Rebinds dependency function tables over the merged list: reloaded
	// plugins carry fresh Context objects whose Deps must point at the
	// merged set's function tables, not the pre-reload ones.
	tmp := &Framework{Root: fw.Root, Plugins: merged, opts: fw.opts}
	if err := linkDependencies(tmp); err != nil {
		return nil, errors.Wrap(err, "relinking dependencies")
	}

	// Release whatever in live was not carried into merged (every D
	// slot); handles/tables of U and R survivors are untouched because
	// they are the very same *Plugin values now living in merged.
	for li, lp := range live {
		if statusC[li] == statusDelete {
			release(lp, false)
		}
	}

	if displayReport {
		log := fw.logger()
		for li, lp := range live {
			if statusC[li] == statusDelete {
				log.WithField("plugin", lp.Name).Info("Deleted")
			}
		}
		for _, p := range merged {
			// A merged entry's classification is recovered from whichever
			// side supplied it: report Unmodified/Reloaded for survivors
			// from live, New for the rest.
			if cl, ok := classificationOf(p, live, statusC); ok {
				log.WithField("plugin", p.Name).Info(classificationLabel(cl))
			} else {
				log.WithField("plugin", p.Name).Info("New")
			}
		}
	}

	return merged, nil
}

func classificationOf(p *Plugin, live []*Plugin, statusC []status) (status, bool) {
	for i, lp := range live {
		if lp == p {
			return statusC[i], true
		}
	}
	return 0, false
}

func classificationLabel(s status) string {
	switch s {
	case statusUnmodified:
		return "Unmodified"
	case statusReloaded:
		return "Reloaded"
	case statusDelete:
		return "Deleted"
	default:
		return "New"
	}
}
