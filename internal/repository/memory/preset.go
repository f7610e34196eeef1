package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
)

type presetRepositoryImpl struct {
	store *Store
}

func NewPresetRepository(store *Store) timesheet.PresetRepository {
	return &presetRepositoryImpl{store: store}
}

func (r *presetRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]timesheet.WorkingHoursPreset, error) {
	out := []timesheet.WorkingHoursPreset{}
	r.store.read(ctx, func() {
		for _, p := range r.store.presets {
			if p.UserID == userID {
				out = append(out, p)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *presetRepositoryImpl) Create(ctx context.Context, preset timesheet.WorkingHoursPreset) (timesheet.WorkingHoursPreset, error) {
	err := r.store.write(ctx, func() error {
		preset.ID = newID()
		preset.CreatedAt = r.store.now()
		r.store.presets[preset.ID] = preset
		return nil
	})
	if err != nil {
		return timesheet.WorkingHoursPreset{}, err
	}
	return preset, nil
}

func (r *presetRepositoryImpl) ClearDefault(ctx context.Context, userID string) error {
	return r.store.write(ctx, func() error {
		for id, p := range r.store.presets {
			if p.UserID == userID && p.IsDefault {
				p.IsDefault = false
				r.store.presets[id] = p
			}
		}
		return nil
	})
}

func (r *presetRepositoryImpl) Delete(ctx context.Context, userID, id string) error {
	return r.store.write(ctx, func() error {
		p, ok := r.store.presets[id]
		if !ok || p.UserID != userID {
			return notFound(timesheet.ErrPresetNotFound, "preset", id)
		}
		delete(r.store.presets, id)
		return nil
	})
}
