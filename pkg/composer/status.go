package composer

import (
	"github.com/arthur-debert/copyfold/pkg/errors"
	"github.com/arthur-debert/copyfold/pkg/style"
	"github.com/arthur-debert/copyfold/pkg/target"
)

// Status reads the composer's records. The target folder is left alone.
func (c *Composer) Status() (style.TargetStatus, error) {
	if !c.mu.TryLock() {
		return style.TargetStatus{}, errors.Newf(errors.ErrPassInProgress, "composer %s is already running", c.opts.Name)
	}
	defer c.mu.Unlock()

	t, err := target.Inspect(c.fs, c.targetOptions())
	if err != nil {
		return style.TargetStatus{}, err
	}
	defer t.Close()

	status := style.TargetStatus{
		Composer:   c.opts.Name,
		Composite:  c.opts.Composite,
		Folder:     t.RelFolder(),
		Moved:      t.Changed(),
		Relocating: t.Phase1Finished(),
	}
	for _, exporterType := range c.opts.ExporterTypes {
		repo, err := t.Repository(exporterType)
		if err != nil {
			return status, err
		}
		recs, err := repo.ListAll()
		if err != nil {
			return status, err
		}
		for _, rec := range recs {
			status.Records = append(status.Records, style.RecordStatus{
				Path:      rec.Path,
				Folder:    rec.Folder,
				Target:    rec.Target,
				Type:      rec.ExporterType,
				LastOp:    rec.LastOp,
				AddedBy:   rec.AddedBy,
				UpdatedBy: rec.UpdatedBy,
				RemovedBy: rec.RemovedBy,
				ChangedAt: rec.ChangedAt,
			})
		}
	}
	return status, nil
}
